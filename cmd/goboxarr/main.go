package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amaumene/goboxarr/internal/api"
	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/controllers"
	"github.com/amaumene/goboxarr/internal/scheduler"
	"github.com/amaumene/goboxarr/internal/services/radarr"
	"github.com/amaumene/goboxarr/internal/services/trakt"
	"github.com/amaumene/goboxarr/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 2. Setup logger
	logger := utils.NewLogger(cfg.LogLevel)
	logger.Info("Starting Goboxarr")
	logger.WithField("data_dir", cfg.DataDir).Info("Configuration loaded")

	// 3. Initialize services
	traktClient, err := trakt.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Trakt client: %w", err)
	}
	logger.Info("Trakt client initialized")

	radarrClient, err := radarr.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Radarr client: %w", err)
	}
	if _, err := radarrClient.TestConnection(context.Background()); err != nil {
		logger.WithError(err).Warn("Radarr connection check failed, continuing anyway")
	}

	// 4. Initialize controllers
	selector := controllers.NewRootFolderSelector(cfg, radarrClient, logger)
	autoAdder := controllers.NewAutoAdder(cfg, radarrClient, selector, logger)
	snapshots := controllers.NewSnapshotGenerator(cfg, radarrClient, logger)
	history := controllers.NewHistoryLog(cfg, logger)
	updates := controllers.NewUpdateController(cfg, traktClient, radarrClient, autoAdder, snapshots, history, logger)
	logger.Info("Controllers initialized")

	// 5. Initialize scheduler
	sched, err := scheduler.New(cfg, updates, history, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// 6. Initialize HTTP server
	server := api.NewServer(api.Deps{
		Config:    cfg,
		Radarr:    radarrClient,
		Selector:  selector,
		Updates:   updates,
		Snapshots: snapshots,
		History:   history,
		Scheduler: sched,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serverErrChan := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil {
			serverErrChan <- err
		}
	}()

	// 7. Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Goboxarr is running")

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
		if err := server.Shutdown(context.Background()); err != nil {
			logger.WithError(err).Error("Error during server shutdown")
		}
	}

	logger.Info("Goboxarr stopped")
	return nil
}
