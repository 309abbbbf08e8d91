package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/daxmodi1/ShikshaMitra/internal/bootstrap"
	"github.com/daxmodi1/ShikshaMitra/internal/config"
	"github.com/daxmodi1/ShikshaMitra/internal/observability/logging"
	"github.com/daxmodi1/ShikshaMitra/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.Setup("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	app.Processor.OnIndexed = func(documentID string, chunks int) {
		workerMetrics.ObserveChunksIndexed("worker", chunks)
	}

	metricsServer := &http.Server{
		Addr:        ":" + cfg.WorkerMetricsPort,
		Handler:     workerMetrics.Handler(),
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("worker_metrics_server_failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSIngestSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if doc, lookupErr := app.Repo.GetByID(processCtx, documentID); lookupErr == nil {
			workerMetrics.ObserveQueueLag("worker", time.Since(doc.UpdatedAt))
		}

		workerMetrics.StartDocument()
		start := time.Now()
		processErr := app.Processor.ProcessByID(processCtx, documentID)
		workerMetrics.FinishDocument("worker", time.Since(start), processErr)
		if processErr != nil {
			logger.Error("document_processing_failed", "document_id", documentID, "error", processErr)
		}
		return processErr
	})
	if err != nil && ctx.Err() == nil {
		logger.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}
}
