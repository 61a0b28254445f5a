package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/regtechlab/docrag/internal/bootstrap"
	"github.com/regtechlab/docrag/internal/config"
	"github.com/regtechlab/docrag/internal/observability/logging"
	"github.com/regtechlab/docrag/internal/observability/metrics"
)

const serviceName = "docrag-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger(serviceName, "info").Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	log := logging.NewJSONLogger(serviceName, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log, nil)
	if err != nil {
		log.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		log.Info("worker_metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("worker_metrics_server_failed", "error", err)
		}
	}()

	go runBackfillLoop(ctx, app, log, time.Duration(cfg.BackfillIntervalSeconds)*time.Second)

	log.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		workerMetrics.StartDocument()
		start := time.Now()
		processErr := app.ProcessUC.ProcessByID(processCtx, documentID)
		workerMetrics.FinishDocument(serviceName, time.Since(start), processErr)

		if processErr == nil {
			if doc, err := app.Repo.GetByID(processCtx, documentID); err == nil {
				workerMetrics.ObserveChunksIndexed(serviceName, doc.ChunkCount)
				workerMetrics.ObserveQueueLag(serviceName, start.Sub(doc.CreatedAt))
			}
		}
		return processErr
	})
	if err != nil {
		log.Error("worker_subscribe_failed", "error", err)
		os.Exit(1)
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = metricsServer.Shutdown(shutdownCtx)
}

// runBackfillLoop periodically re-embeds chunks that were indexed without
// vectors, so an embedding outage during processing heals on its own.
func runBackfillLoop(ctx context.Context, app *bootstrap.App, log *slog.Logger, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := app.BackfillUC.BackfillVectors(ctx)
			if err != nil {
				log.Warn("vector_backfill_failed", "error", err)
				continue
			}
			if count > 0 {
				log.Info("vector_backfill_completed", "chunks", count)
			}
		}
	}
}
