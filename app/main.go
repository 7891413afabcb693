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

	"github.com/newshub/newshub/app/api"
	"github.com/newshub/newshub/app/cfg"
	"github.com/newshub/newshub/app/database"
	"github.com/newshub/newshub/app/feed"
	"github.com/newshub/newshub/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		return
	}

	cfg.NewLogger(os.Stdout, appCfg)

	if err := run(appCfg); err != nil {
		slog.Error("NewsHub stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting NewsHub ingestion server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("Connected to database", "path", appCfg.DBPath)

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database schema ready", "version", version, "dirty", dirty)

	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)

	seed, err := feed.LoadSeed(appCfg.SeedFile)
	if err != nil {
		return fmt.Errorf("failed to load seed file %s: %w", appCfg.SeedFile, err)
	}

	ctx := context.Background()

	registered, err := seed.Apply(ctx, feedRepo)
	if err != nil {
		return fmt.Errorf("failed to seed feeds: %w", err)
	}
	slog.Info("Feeds registered", "registered", registered, "configured", seed.FeedCount(), "file", appCfg.SeedFile)

	fetcher := feed.NewFetcher(feed.FetcherOptions{
		Timeout:      appCfg.FetchTimeoutDuration(),
		MaxRedirects: appCfg.MaxRedirects,
		MaxItems:     appCfg.MaxArticlesPerFeed,
		UserAgent:    appCfg.UserAgent,
	})
	extractor := feed.NewContentExtractor(feed.NewHTTPClient(appCfg.MaxRedirects), appCfg.FetchTimeoutDuration(), appCfg.UserAgent)
	gate := tasks.NewGate(feedRepo, articleRepo, extractor)
	orchestrator := tasks.NewOrchestrator(feedRepo, fetcher, feed.NewNormalizer(), gate, appCfg.WorkerCount)

	scheduler := tasks.NewScheduler(orchestrator, appCfg.SchedulerIntervalDuration(), appCfg.RunOnStartup)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(feedRepo, articleRepo, orchestrator)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "api_enabled", appCfg.APIAccessKey != "")

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
		slog.Error("Server error", "error", runErr)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return runErr
}
