package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/amaumene/goboxarr/internal/api/handlers"
	"github.com/amaumene/goboxarr/internal/api/middleware"
	"github.com/amaumene/goboxarr/internal/config"
	"github.com/amaumene/goboxarr/internal/controllers"
	"github.com/amaumene/goboxarr/internal/scheduler"
	"github.com/amaumene/goboxarr/internal/services/radarr"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger *logrus.Logger
}

// Deps carries everything the route layer needs
type Deps struct {
	Config    *config.Config
	Radarr    *radarr.Client
	Selector  *controllers.RootFolderSelector
	Updates   *controllers.UpdateController
	Snapshots *controllers.SnapshotGenerator
	History   *controllers.HistoryLog
	Scheduler *scheduler.Scheduler
}

// NewServer creates a new HTTP server
func NewServer(deps Deps, logger *logrus.Logger) *Server {
	s := &Server{logger: logger}

	mux := http.NewServeMux()
	s.setupRoutes(mux, deps)

	s.server = &http.Server{
		Addr:         ":" + deps.Config.ServerPort,
		Handler:      middleware.Logging(mux, logger),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux, deps Deps) {
	healthHandler := handlers.NewHealthHandler(s.logger)
	mux.HandleFunc("/health", healthHandler.ServeHTTP)

	boxOfficeHandler := handlers.NewBoxOfficeHandler(deps.Snapshots, s.logger)
	mux.HandleFunc("/api/boxoffice/current", boxOfficeHandler.Current)
	mux.HandleFunc("/api/boxoffice/history/", boxOfficeHandler.History)

	schedulerHandler := handlers.NewSchedulerHandler(deps.Scheduler, deps.Updates, deps.History, s.logger)
	mux.HandleFunc("/api/scheduler/trigger", schedulerHandler.Trigger)
	mux.HandleFunc("/api/scheduler/reload", schedulerHandler.Reload)
	mux.HandleFunc("/api/scheduler/status", schedulerHandler.Status)
	mux.HandleFunc("/api/scheduler/history", schedulerHandler.History)
	mux.HandleFunc("/api/scheduler/update-week", schedulerHandler.UpdateWeek)

	moviesHandler := handlers.NewMoviesHandler(deps.Config, deps.Radarr, deps.Selector, deps.Updates, s.logger)
	mux.HandleFunc("/api/movies/status", moviesHandler.Status)
	mux.HandleFunc("/api/movies/add", moviesHandler.Add)
	mux.HandleFunc("/api/movies/root-folders/available", moviesHandler.RootFoldersAvailable)
	mux.HandleFunc("/api/movies/root-folders/suggest", moviesHandler.RootFoldersSuggest)
	mux.HandleFunc("/api/movies/", moviesHandler.Movie)

	configHandler := handlers.NewConfigHandler(deps.Config, deps.Radarr, deps.Scheduler, s.logger)
	mux.HandleFunc("/api/config", configHandler.Get)
	mux.HandleFunc("/api/config/test", configHandler.Test)
	mux.HandleFunc("/api/config/save", configHandler.Save)
	mux.HandleFunc("/api/config/root-folders", configHandler.RootFolders)
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.logger.WithField("addr", s.server.Addr).Info("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
