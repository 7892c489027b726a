// Package server provides HTTP server management and lifecycle handling for
// the dead stock service. It includes server setup, middleware configuration,
// route management, and graceful shutdown capabilities with proper error
// handling and logging.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noine32/deadstock-search-replit/auth"
	"github.com/noine32/deadstock-search-replit/config"
	"github.com/noine32/deadstock-search-replit/data"
	"github.com/noine32/deadstock-search-replit/handlers"
	"github.com/noine32/deadstock-search-replit/interfaces"
	"github.com/noine32/deadstock-search-replit/logging"
	"github.com/noine32/deadstock-search-replit/metrics"
	"github.com/noine32/deadstock-search-replit/storage"
)

// Server represents the HTTP server
type Server struct {
	server    *http.Server
	router    chi.Router
	container *data.Container
	store     *storage.Store
	authSvc   *auth.Service
	checker   interfaces.HealthChecker
	config    *config.Config
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, container *data.Container, store *storage.Store, authSvc *auth.Service, checker interfaces.HealthChecker) *Server {
	router := chi.NewRouter()

	server := &Server{
		server: &http.Server{
			Handler:      router,
			Addr:         cfg.Address + ":" + cfg.Port,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		router:    router,
		container: container,
		store:     store,
		authSvc:   authSvc,
		checker:   checker,
		config:    cfg,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.DefaultLoggingService.Logger))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(RateLimitHandler)
	s.router.Use(metrics.Metrics)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Post("/auth/register", handlers.HandleRegister(s.authSvc))
	s.router.Post("/auth/login", handlers.HandleLogin(s.authSvc))

	s.router.Group(func(r chi.Router) {
		r.Use(s.authSvc.Middleware)
		r.Post("/reconcile", handlers.HandleReconcile(s.container, s.store))
		r.Get("/reconcile/latest", handlers.HandleLatest(s.container))
		r.Get("/records", handlers.HandleRecords(s.store))
	})

	s.router.Get("/health", handlers.HandleHealth(s.checker))
	s.router.Handle("/metrics", promhttp.Handler())
}

// Start starts the server
func (s *Server) Start() error {
	// Start profiling server if in development mode
	if s.config.Env == "dev" {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		fmt.Println("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			fmt.Println("Profiling server failed: ", err)
		}
	}()
}
