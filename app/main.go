package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scoutd/scoutd/app/alert"
	"github.com/scoutd/scoutd/app/api"
	"github.com/scoutd/scoutd/app/cfg"
	"github.com/scoutd/scoutd/app/database"
	"github.com/scoutd/scoutd/app/metrics"
	"github.com/scoutd/scoutd/app/pipeline"
	"github.com/scoutd/scoutd/app/publish"
	"github.com/scoutd/scoutd/app/scout"
	"github.com/scoutd/scoutd/app/source"
	"github.com/scoutd/scoutd/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting scoutd", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	configCache := scout.NewConfigCache(appCfg.ScoutsDir)
	if err := configCache.Run(); err != nil {
		slog.Error("Failed to load scout configurations", "dir", appCfg.ScoutsDir, "error", err)
		os.Exit(1)
	}
	slog.Info("Scout configurations loaded", "count", configCache.GetConfigCount())

	seenRepo := database.NewSeenRepository(db)
	topicRepo := database.NewTopicRepository(db)
	scoutRepo := database.NewScoutRepository(db)

	publisher, err := publish.NewPublisher(appCfg.NatsURL)
	if err != nil {
		slog.Error("Failed to connect to NATS", "url", appCfg.NatsURL, "error", err)
		os.Exit(1)
	}
	defer publisher.Close()

	var dispatcher pipeline.Dispatcher
	if appCfg.WebhookURL != "" {
		dispatcher = alert.NewDispatcher(appCfg.WebhookURL)
		slog.Info("Alert dispatcher enabled")
	} else {
		slog.Info("Alert dispatcher disabled (WEBHOOK_URL not set)")
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}

	sourceOpts := source.Options{
		UserAgent:       appCfg.UserAgent,
		SearchAPIKey:    appCfg.SearchAPIKey,
		SearchAccountID: appCfg.SearchAccountID,
	}

	runner := pipeline.NewRunner(seenRepo, topicRepo, scoutRepo, dispatcher, publisher, httpClient, sourceOpts)

	contentExtractor := scout.NewContentExtractor()

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval)
	scheduler := tasks.NewScheduler(configCache, scoutRepo, topicRepo, runner, contentExtractor, httpClient)
	scheduler.Start()
	defer scheduler.Stop()

	metrics.Init("scoutd", appCfg.Version)

	apiHandler := api.NewHandler(configCache, scoutRepo, topicRepo, runner, scheduler)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler and publisher are stopped via defer
	slog.Info("Shutdown complete")
}
