package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentkb/answer-engine/internal/bootstrap"
	"github.com/agentkb/answer-engine/internal/config"
	"github.com/agentkb/answer-engine/internal/core/domain"
	"github.com/agentkb/answer-engine/internal/observability/logging"
	"github.com/agentkb/answer-engine/internal/observability/metrics"
)

const service = "answer-engine-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(service, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(service)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSAuditSubject)
	err = app.Queue.SubscribeQueryAudited(ctx, func(handlerCtx context.Context, entry domain.AuditEntry) error {
		writeCtx, cancel := context.WithTimeout(handlerCtx, 30*time.Second)
		defer cancel()

		start := time.Now()
		insertErr := app.AuditStore.Insert(writeCtx, entry)
		workerMetrics.FinishAuditWrite(service, time.Since(start), insertErr)
		workerMetrics.ObserveAuditLag(service, time.Since(entry.AskedAt))
		return insertErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
