package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-sis/meridian/internal/app"
	"github.com/meridian-sis/meridian/internal/audit"
	"github.com/meridian-sis/meridian/internal/authz"
	authzhttp "github.com/meridian-sis/meridian/internal/authz/http"
	"github.com/meridian-sis/meridian/internal/observability"
	"github.com/meridian-sis/meridian/internal/platform/cache"
	"github.com/meridian-sis/meridian/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	// The bulk-mark marker degrades gracefully without Redis, so a
	// failed connection is a warning rather than a startup failure.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, bulk-mark markers disabled", slog.Any("error", err))
		redisClient = nil
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
	}

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	directory := authz.NewRepository(dbpool, redisClient)
	engine := authz.NewService(directory)
	recorder := audit.NewRecorder(asynqClient, logger)
	policyHandler := authzhttp.NewHandler(logger, engine, recorder, metrics)

	router := app.NewRouter(app.RouterParams{
		Logger:        logger,
		Config:        cfg,
		Metrics:       metrics,
		PolicyHandler: policyHandler,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("policy service listening", slog.String("addr", cfg.AppAddr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", slog.Any("error", err))
	}
}
