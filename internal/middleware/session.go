package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/lgulliver/pdfbinder/pkg/config"
	"github.com/rs/zerolog/log"
)

const (
	// SessionIDKey is the gin context key holding the caller's workspace id
	SessionIDKey = "session_id"

	sessionKey = "session"
	uidValue   = "uid"
)

// Sessions issues and reads the signed cookie that ties a browser to its workspace
type Sessions struct {
	store *sessions.CookieStore
	name  string
}

// NewSessions creates a cookie session store from configuration
func NewSessions(cfg *config.SessionConfig) *Sessions {
	store := sessions.NewCookieStore([]byte(cfg.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store, name: cfg.CookieName}
}

// SessionMiddleware makes sure every request carries a session id, minting
// one on first contact
func (s *Sessions) SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := s.store.Get(c.Request, s.name)
		if err != nil {
			// A tampered or outdated cookie; start over with a fresh session
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("discarding unreadable session cookie")
		}

		uid, _ := session.Values[uidValue].(string)
		if _, err := uuid.Parse(uid); err != nil {
			uid = uuid.NewString()
			session.Values[uidValue] = uid
			if err := session.Save(c.Request, c.Writer); err != nil {
				log.Error().Err(err).Msg("failed to save new session")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			log.Debug().Str("session_id", uid).Msg("new session started")
		}

		c.Set(sessionKey, session)
		c.Set(SessionIDKey, uid)
		c.Next()
	}
}

// SessionID returns the id set by SessionMiddleware
func SessionID(c *gin.Context) string {
	return c.GetString(SessionIDKey)
}

// AddFlash queues a message for the next rendered page. Queued messages are
// only kept once SaveSession runs.
func AddFlash(c *gin.Context, message string) {
	if session := current(c); session != nil {
		session.AddFlash(message)
	}
}

// SaveSession writes the session cookie. It must be called before the
// response body is written.
func SaveSession(c *gin.Context) {
	session := current(c)
	if session == nil {
		return
	}
	if err := session.Save(c.Request, c.Writer); err != nil {
		log.Error().Err(err).Str("session_id", SessionID(c)).Msg("failed to save session")
	}
}

// Flashes returns and clears the queued messages
func Flashes(c *gin.Context) []string {
	session := current(c)
	if session == nil {
		return nil
	}

	raw := session.Flashes()
	if len(raw) == 0 {
		return nil
	}
	SaveSession(c)

	messages := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			messages = append(messages, msg)
		}
	}
	return messages
}

func current(c *gin.Context) *sessions.Session {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil
	}
	session, _ := value.(*sessions.Session)
	return session
}
