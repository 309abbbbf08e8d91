package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	httpadapter "github.com/daxmodi1/ShikshaMitra/internal/adapters/http"
	"github.com/daxmodi1/ShikshaMitra/internal/bootstrap"
	"github.com/daxmodi1/ShikshaMitra/internal/config"
	"github.com/daxmodi1/ShikshaMitra/internal/observability/logging"
	"github.com/daxmodi1/ShikshaMitra/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := logging.Setup("api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	serverMetrics := metrics.NewHTTPServerMetrics("api")

	// Warm the lexical index from whatever the vector store already holds.
	rebuildErr := app.Refresher.Refresh(ctx)
	serverMetrics.RecordIndexRebuild("api", rebuildErr)
	if rebuildErr != nil {
		logger.Warn("initial_index_rebuild_failed", "error", rebuildErr)
	}

	go func() {
		subErr := app.Queue.SubscribeIndexUpdated(ctx, func(handlerCtx context.Context, documentID string) error {
			rebuildCtx, cancel := context.WithTimeout(handlerCtx, time.Minute)
			defer cancel()
			rebuildErr := app.Refresher.Refresh(rebuildCtx)
			serverMetrics.RecordIndexRebuild("api", rebuildErr)
			if rebuildErr != nil {
				logger.Warn("index_rebuild_failed", "document_id", documentID, "error", rebuildErr)
			}
			return rebuildErr
		})
		if subErr != nil && ctx.Err() == nil {
			logger.Error("index_subscription_failed", "error", subErr)
		}
	}()

	router := httpadapter.NewRouter(httpadapter.RouterOptions{
		Service:        "api",
		Assistant:      app.Assistant,
		Ingestor:       app.Ingestor,
		Repo:           app.Repo,
		Exchanges:      app.Exchanges,
		Metrics:        serverMetrics,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		MaxInFlight:    cfg.MaxInFlight,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", serverMetrics.Handler())
	mux.Handle("/", router.Handler())

	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
	slog.Info("api_stopped")
}
