package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lgulliver/pdfbinder/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := NewSessions(&config.SessionConfig{
		CookieName: "test",
		Secret:     "test-secret-key-32-bytes-long!!!",
		MaxAge:     time.Hour,
	})

	router := gin.New()
	router.Use(s.SessionMiddleware(), RequestLogger())
	router.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, SessionID(c))
	})
	router.GET("/flash", func(c *gin.Context) {
		AddFlash(c, "first")
		AddFlash(c, "second")
		SaveSession(c)
		c.Redirect(http.StatusFound, "/show")
	})
	router.GET("/show", func(c *gin.Context) {
		c.JSON(http.StatusOK, Flashes(c))
	})
	return router
}

func do(router *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSessionMiddleware_MintsAndKeepsID(t *testing.T) {
	router := setupSessionRouter(t)

	first := do(router, "/id", nil)
	require.Equal(t, http.StatusOK, first.Code)
	id := first.Body.String()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.True(t, cookies[0].HttpOnly)

	second := do(router, "/id", cookies)
	assert.Equal(t, id, second.Body.String())
	assert.Empty(t, second.Result().Cookies(), "an existing session is not re-issued")

	other := do(router, "/id", nil)
	assert.NotEqual(t, id, other.Body.String())
}

func TestSessionMiddleware_RejectsTamperedCookie(t *testing.T) {
	router := setupSessionRouter(t)

	w := do(router, "/id", []*http.Cookie{{Name: "test", Value: "forged"}})
	require.Equal(t, http.StatusOK, w.Code)
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
	assert.NotEmpty(t, w.Result().Cookies())
}

func TestFlashes(t *testing.T) {
	router := setupSessionRouter(t)

	start := do(router, "/id", nil)
	cookies := start.Result().Cookies()

	w := do(router, "/flash", cookies)
	require.Equal(t, http.StatusFound, w.Code)
	cookies = w.Result().Cookies()

	w = do(router, "/show", cookies)
	assert.JSONEq(t, `["first","second"]`, w.Body.String())

	// Shown once only
	w = do(router, "/show", w.Result().Cookies())
	assert.JSONEq(t, `null`, w.Body.String())
}
