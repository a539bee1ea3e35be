package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lgulliver/pdfbinder/internal/common"
	"github.com/lgulliver/pdfbinder/internal/middleware"
	"github.com/lgulliver/pdfbinder/internal/render"
	"github.com/lgulliver/pdfbinder/internal/storage"
	"github.com/lgulliver/pdfbinder/internal/workspace"
	"github.com/lgulliver/pdfbinder/pkg/config"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.LoadFromEnv()

	// Setup logging
	cfg.Logging.SetupLogging()

	log.Info().Str("environment", cfg.Server.Environment).Msg("starting pdfbinder")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// Initialize storage
	storageFactory := storage.NewStorageFactory(&cfg.Storage)
	workspaceStorage, err := storageFactory.CreateStorage()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	// Initialize next-index counters
	counters, err := common.NewCounterStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("type", cfg.Counter.Type).Msg("failed to initialize counter store")
	}
	defer counters.Close()

	// Initialize services
	thumbnailer := render.NewThumbnailer(render.NewFitzRasterizer(cfg.Render.DPI), cfg.Render.ThumbnailWidth)
	manager := workspace.NewManager(workspaceStorage, counters, thumbnailer, render.NewPDFMerger())

	// Setup HTTP server
	router := setupRouter(manager, middleware.NewSessions(&cfg.Session), cfg.Server.UploadMaxBytes)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go runSweeper(sweepCtx, manager, cfg.Storage.SweepInterval, cfg.Session.MaxAge)

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	stopSweeper()

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	} else {
		log.Info().Msg("server shutdown complete")
	}
}

// runSweeper purges workspaces that outlived their session until ctx ends
func runSweeper(ctx context.Context, manager *workspace.Manager, interval, maxAge time.Duration) {
	if interval <= 0 {
		log.Info().Msg("workspace sweeper disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := manager.SweepStale(ctx, maxAge); err != nil {
				log.Error().Err(err).Msg("workspace sweep failed")
			}
		}
	}
}
