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

	"github.com/podbrief/podbrief/app/api"
	"github.com/podbrief/podbrief/app/cfg"
	"github.com/podbrief/podbrief/app/database"
	"github.com/podbrief/podbrief/app/ingest"
	"github.com/podbrief/podbrief/app/topics"
	"github.com/podbrief/podbrief/app/worker"
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
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting podbrief server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to connect to database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "migration_version", version, "dirty", dirty)

	catalog, err := topics.LoadCatalog(appCfg.TopicsFile)
	if err != nil {
		slog.Error("Failed to load topic catalog", "path", appCfg.TopicsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Topic catalog loaded", "topics", catalog.Count())

	accountRepo := database.NewAccountRepository(db)
	episodeRepo := database.NewEpisodeRepository(db)
	weightRepo := database.NewWeightRepository(db)
	queueRepo := database.NewQueueRepository(db)
	pushRepo := database.NewPushRepository(db)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	resolver := ingest.NewResolver(httpClient, appCfg.UserAgent)
	workerClient := worker.NewClient(appCfg.WorkerUrl, appCfg.WorkerAccessKey, httpClient)
	if !workerClient.Configured() {
		slog.Warn("Worker URL not configured, digest generation proxy is disabled")
	}

	handler := api.NewHandler(accountRepo, episodeRepo, weightRepo, queueRepo,
		pushRepo, resolver, workerClient, catalog)
	server := api.NewServer(handler, accountRepo, appCfg.WorkerAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port, "base_url", appCfg.BaseUrl)
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

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	slog.Info("Shutdown complete")
}
