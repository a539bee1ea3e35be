package main

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lgulliver/pdfbinder/internal/middleware"
	"github.com/lgulliver/pdfbinder/internal/workspace"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templateFS embed.FS

func setupRouter(manager *workspace.Manager, sessions *middleware.Sessions, uploadMaxBytes int64) *gin.Engine {
	// Set Gin mode based on log level
	if zerolog.GlobalLevel() == zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "pdfbinder",
			"time":    time.Now().UTC(),
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Workspace routes, all scoped to the caller's session
	ws := router.Group("/")
	ws.Use(sessions.SessionMiddleware())
	{
		ws.GET("/", handleIndex(manager))
		ws.GET("/index", handleIndex(manager))
		ws.POST("/upload", handleUpload(manager, uploadMaxBytes))
		ws.GET("/shots/:name", handleThumbnail(manager))
		ws.GET("/delete/:name", handleDelete(manager))
		ws.GET("/reorder", handleReorder(manager))
		ws.GET("/reorder/:order", handleReorder(manager))
		ws.GET("/merge", handleMerge(manager))
		ws.GET("/cleanup", handleCleanup(manager))
		ws.GET("/api/documents", handleListDocuments(manager))
	}

	return router
}
