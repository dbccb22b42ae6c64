package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/timmy/tubescribe/internal/api"
	"github.com/timmy/tubescribe/internal/config"
	"github.com/timmy/tubescribe/internal/export"
	"github.com/timmy/tubescribe/internal/logger"
	"github.com/timmy/tubescribe/internal/scraper"
	"github.com/timmy/tubescribe/internal/service"
)

func main() {
	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	appLogger := logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "tubescribe",
		File:        cfg.Log.File,
		MaxSize:     cfg.Log.MaxSize,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAge:      cfg.Log.MaxAge,
		Compress:    cfg.Log.Compress,
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Ensure the transcripts directory exists before the first export
	if err := os.MkdirAll(cfg.Export.TranscriptsDir, 0o755); err != nil {
		appLogger.WithError(err).Fatal("Failed to create transcripts directory")
	}
	appLogger.WithField("dir", cfg.Export.TranscriptsDir).Info("Transcripts directory ready")

	// Initialize the scraper client and exporter
	scraperClient := scraper.NewClient(&scraper.Config{
		Timeout:    time.Duration(cfg.Scraper.TimeoutSeconds) * time.Second,
		RetryCount: cfg.Scraper.RetryCount,
	}, appLogger)
	exporter := export.NewExporter(cfg.Export.TranscriptsDir, appLogger)

	// Initialize job state and the background runner
	store := service.NewJobStateStore()
	runner := service.NewRunner(store, scraperClient, exporter, appLogger, &service.RunnerConfig{
		ChannelWindowDays: cfg.Scraper.ChannelWindowDays,
	})
	runner.Start()

	// Setup router
	router := api.SetupRouter(store, runner, exporter, cfg, appLogger)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	// Let an in-flight job reach its terminal outcome before exiting
	runner.Stop()

	appLogger.Info("Server exited")
}
