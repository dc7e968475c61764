package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"paysync-server/internal/app"
	"paysync-server/internal/config"
	transport "paysync-server/internal/http"
	"paysync-server/internal/http/middleware"
	"paysync-server/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialise", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	router := transport.NewRouter(transport.Dependencies{
		Config:      cfg,
		Auth:        application.Auth,
		Tokens:      application.Auth,
		Sync:        application.Sync,
		Payments:    application.Payments,
		Logger:      logger,
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimitPerMinute),
	})

	// Sync requests can outlive the default request timeout.
	writeTimeout := cfg.RequestTimeout
	if cfg.Sync.Timeout+5*time.Second > writeTimeout {
		writeTimeout = cfg.Sync.Timeout + 5*time.Second
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadTimeout:       cfg.RequestTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrors:
		logger.Error("http server stopped unexpectedly", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("http server stopped")
}
