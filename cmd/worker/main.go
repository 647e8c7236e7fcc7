package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mfortin/tax-intake/internal/bootstrap"
	"github.com/mfortin/tax-intake/internal/config"
	"github.com/mfortin/tax-intake/internal/core/domain"
	"github.com/mfortin/tax-intake/internal/observability/logging"
	"github.com/mfortin/tax-intake/internal/observability/metrics"
)

const serviceName = "tax-intake-worker"

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	if !cfg.AutoProcessEnabled {
		logger.Info("auto processing disabled, worker exiting")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	metricsServer := &http.Server{
		Addr:        ":" + cfg.WorkerMetricsPort,
		Handler:     workerMetrics.Handler(),
		ReadTimeout: 10 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentUploaded(ctx, func(handlerCtx context.Context, documentID string) error {
		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()
		return processDocument(processCtx, app, workerMetrics, logger, documentID)
	})
	if err != nil {
		logger.Error("worker subscribe failed", "error", err)
		os.Exit(1)
	}
}

// processDocument classifies one uploaded document and, when a kind was
// recognized, extracts its fields. An unrecognized document is left for
// manual classification rather than treated as a failure.
func processDocument(
	ctx context.Context,
	app *bootstrap.App,
	workerMetrics *metrics.WorkerMetrics,
	logger *slog.Logger,
	documentID string,
) error {
	start := time.Now()
	workerMetrics.StartDocument()

	if doc, err := app.Documents.GetByID(ctx, documentID); err == nil {
		workerMetrics.ObserveQueueLag(serviceName, start.Sub(doc.UploadedAt))
	}

	doc, _, err := app.Lifecycle.ClassifyDocument(ctx, documentID)
	if err != nil {
		workerMetrics.FinishDocument(serviceName, time.Since(start), err)
		return err
	}
	if doc.DocKind == domain.KindUnknown {
		logger.Info("document not recognized, skipping extraction", "document_id", documentID)
		workerMetrics.FinishDocument(serviceName, time.Since(start), nil)
		return nil
	}

	_, status, err := app.Lifecycle.ExtractDocument(ctx, documentID)
	workerMetrics.FinishDocument(serviceName, time.Since(start), err)
	if err != nil {
		return err
	}

	logger.Info("document processed",
		"document_id", documentID,
		"kind", string(doc.DocKind),
		"intake_status", string(status),
	)
	return nil
}
