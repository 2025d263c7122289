package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgriffen/mksheets/internal/api"
	"github.com/dgriffen/mksheets/internal/config"
	"github.com/dgriffen/mksheets/internal/content"
	"github.com/dgriffen/mksheets/internal/pipeline"
	"github.com/dgriffen/mksheets/internal/render"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the compendium, layering a pack over the built-in content.
	registry, err := content.LoadBuiltin()
	if err != nil {
		log.Error("failed to load built-in content", "error", err)
		os.Exit(1)
	}
	if cfg.ContentPack != "" {
		if err := registry.LoadPack(cfg.ContentPack); err != nil {
			log.Error("failed to load content pack", "path", cfg.ContentPack, "error", err)
			os.Exit(1)
		}
		log.Info("content pack loaded", "path", cfg.ContentPack)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("failed to create output directory", "path", cfg.OutputDir, "error", err)
		os.Exit(1)
	}

	stats := render.NewStats(time.Hour)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, registry, pipeline.Options{
		OutputDir:    cfg.OutputDir,
		Format:       render.FormatPDF,
		LatexCommand: cfg.LatexCommand,
	}, stats, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, stats, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting sheetsd", "port", cfg.Port, "workers", cfg.WorkerCount)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
