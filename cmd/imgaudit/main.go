package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"imgaudit/internal/api"
	"imgaudit/internal/audit"
	"imgaudit/internal/browser"
	"imgaudit/internal/config"
	"imgaudit/internal/monitoring"
	"imgaudit/internal/service"
	"imgaudit/internal/storage"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	// Initialize Storage Layer
	pgStore, err := storage.NewPostgresStore(cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	redisStore := storage.NewRedisStore(cfg.RedisAddr)

	metrics := monitoring.NewMetrics()

	// Initialize the browser boundary and the audit core
	pool := browser.NewPool(browser.Options{
		ChromePath:    cfg.ChromePath,
		Headless:      cfg.Headless,
		PageTimeout:   time.Duration(cfg.AuditTimeout) * time.Second,
		WaitAfterLoad: time.Duration(cfg.PageWaitMS) * time.Millisecond,
	}, logger)
	auditor := audit.NewAuditor(pool, cfg.EnrichConcurrency, logger)

	// Initialize the worker pool
	svc := service.NewService(cfg, auditor, redisStore, pgStore, metrics, logger)
	svc.Start()

	// Initialize API Server
	server := api.NewServer(cfg, svc, pgStore, redisStore, logger)

	// Graceful Shutdown
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()

	logger.Info("server started", zap.String("port", cfg.ServerPort))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	svc.Stop()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exiting")
}
