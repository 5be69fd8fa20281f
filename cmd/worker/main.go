package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meridian-sis/meridian/internal/app"
	"github.com/meridian-sis/meridian/internal/audit"
	jobmetrics "github.com/meridian-sis/meridian/internal/jobs"
	"github.com/meridian-sis/meridian/internal/platform/db"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	writer := audit.NewWriter(pool, logger)

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			audit.QueueDefault: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(audit.TaskTypeDecision, func(ctx context.Context, t *asynq.Task) error {
		return metrics.Track("decision_audit").End(writer.HandleDecisionTask(ctx, t))
	})

	go func() {
		http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(cfg.WorkerMetricsAddr, nil); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		srv.Shutdown()
	}()

	logger.Info("audit worker starting")
	if err := srv.Run(mux); err != nil {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
