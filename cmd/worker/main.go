package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docpipe/docpipe/internal/bootstrap"
	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/core/domain"
	"github.com/docpipe/docpipe/internal/observability/logging"
	"github.com/docpipe/docpipe/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("docpipe-worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "worker")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:        ":" + cfg.WorkerMetricsPort,
		Handler:     app.Metrics.Handler(),
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentUploaded(ctx, func(handlerCtx context.Context, documentID int64) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		start := time.Now()
		app.Metrics.StartRun()
		doc, err := app.ProcessUC.ProcessByID(processCtx, documentID)
		if err != nil {
			// Conflicts mean another worker holds the document; not an error
			// worth redelivery and not a failed run.
			if domain.IsKind(err, domain.ErrConflict) {
				app.Metrics.FinishRun(time.Since(start), metrics.RunConflict)
				slog.Info("document claimed by another worker", "document_id", documentID)
				return nil
			}
			app.Metrics.FinishRun(time.Since(start), metrics.RunFailed)
			return err
		}
		outcome := metrics.RunProcessed
		if doc.Status == domain.StatusFailed {
			outcome = metrics.RunFailed
		}
		app.Metrics.FinishRun(time.Since(start), outcome)
		app.Metrics.ObserveQueueLag(start.Sub(doc.UploadedAt))
		return nil
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
