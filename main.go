package main

import (
	"context"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/noine32/deadstock-search-replit/auth"
	"github.com/noine32/deadstock-search-replit/config"
	"github.com/noine32/deadstock-search-replit/data"
	"github.com/noine32/deadstock-search-replit/health"
	"github.com/noine32/deadstock-search-replit/logging"
	"github.com/noine32/deadstock-search-replit/scheduler"
	"github.com/noine32/deadstock-search-replit/server"
	"github.com/noine32/deadstock-search-replit/storage"
)

func main() {
	// .env is optional, real deployments set variables directly
	if err := godotenv.Load(); err != nil {
		logging.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger(cfg.LogFile, cfg.LogLevel)

	store, err := storage.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		logging.Error("Failed to open database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureSchema(ctx); err != nil {
		cancel()
		logging.Error("Failed to prepare database schema", "error", err)
		os.Exit(1)
	}
	cancel()

	container := data.NewContainer()
	authSvc := auth.NewService(store, cfg.JWTSecret)
	checker := health.NewHealthChecker(container, store)

	cleaner := scheduler.NewScheduler(store, cfg.RetentionDays)
	if err := cleaner.Start(); err != nil {
		logging.Error("Failed to start retention scheduler", "error", err)
		os.Exit(1)
	}
	defer cleaner.Stop()

	srv := server.NewServer(cfg, container, store, authSvc, checker)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}
