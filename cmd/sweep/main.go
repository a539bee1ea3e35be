package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/lgulliver/pdfbinder/internal/common"
	"github.com/lgulliver/pdfbinder/internal/render"
	"github.com/lgulliver/pdfbinder/internal/storage"
	"github.com/lgulliver/pdfbinder/internal/workspace"
	"github.com/lgulliver/pdfbinder/pkg/config"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg := config.LoadFromEnv()
	cfg.Logging.SetupLogging()

	var (
		olderThan = flag.Duration("older-than", cfg.Session.MaxAge, "Remove workspaces idle for longer than this")
		dryRun    = flag.Bool("dry-run", false, "List stale workspaces without removing them")
	)
	flag.Parse()

	if *olderThan <= 0 {
		fmt.Printf("Usage: %s [-older-than DURATION] [-dry-run]\n", os.Args[0])
		fmt.Println("  -older-than  must be a positive duration such as 24h")
		os.Exit(1)
	}

	// Initialize storage
	workspaceStorage, err := storage.NewStorageFactory(&cfg.Storage).CreateStorage()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize storage")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if *dryRun {
		stale, err := workspaceStorage.ListStale(ctx, *olderThan)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to list stale workspaces")
		}
		for _, ws := range stale {
			fmt.Println(ws.SessionID)
		}
		log.Info().Int("count", len(stale)).Dur("older_than", *olderThan).Msg("Dry run completed")
		return
	}

	counters, err := common.NewCounterStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize counter store")
	}
	defer counters.Close()

	thumbnailer := render.NewThumbnailer(render.NewFitzRasterizer(cfg.Render.DPI), cfg.Render.ThumbnailWidth)
	manager := workspace.NewManager(workspaceStorage, counters, thumbnailer, render.NewPDFMerger())

	removed, err := manager.SweepStale(ctx, *olderThan)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sweep workspaces")
	}
	log.Info().Int("removed", removed).Dur("older_than", *olderThan).Msg("Sweep completed successfully")
}
