package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mfortin/tax-intake/internal/config"
	"github.com/mfortin/tax-intake/internal/core/classify"
	"github.com/mfortin/tax-intake/internal/core/ports"
	"github.com/mfortin/tax-intake/internal/core/usecase"
	"github.com/mfortin/tax-intake/internal/export"
	"github.com/mfortin/tax-intake/internal/infrastructure/llm/ollama"
	natsqueue "github.com/mfortin/tax-intake/internal/infrastructure/queue/nats"
	"github.com/mfortin/tax-intake/internal/infrastructure/repository/postgres"
	"github.com/mfortin/tax-intake/internal/infrastructure/resilience"
	"github.com/mfortin/tax-intake/internal/infrastructure/storage/localfs"
	"github.com/mfortin/tax-intake/internal/infrastructure/textextract"
)

// App wires the full dependency graph once and hands the composed
// services to cmd/api and cmd/worker.
type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Documents ports.DocumentRepository

	Clients   ports.ClientService
	Intakes   ports.IntakeService
	Ingestor  ports.DocumentIngestor
	Lifecycle ports.DocumentLifecycle
	Exporter  *export.Service

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	rules, err := config.LoadRules(cfg.RulesPath)
	if err != nil {
		return nil, fmt.Errorf("load intake rules: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	clientRepo := postgres.NewClientRepository(db)
	intakeRepo := postgres.NewIntakeRepository(db)
	itemRepo := postgres.NewChecklistItemRepository(db)
	docRepo := postgres.NewDocumentRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	textExtractor := textextract.NewExtractor(storage, textextract.Config{})
	fieldExtractor := ollama.NewFieldExtractor(
		ollama.New(cfg.OllamaURL, cfg.OllamaModel),
		ollama.FieldExtractorOptions{
			Executor:          executor,
			RequestsPerSecond: cfg.ExtractRatePerSecond,
			Timeout:           time.Duration(cfg.ExtractTimeoutSeconds) * time.Second,
		},
	)
	classifier := classify.NewClassifier(rules.Keywords, textExtractor)

	clientsUC := usecase.NewClientUseCase(clientRepo)
	intakesUC := usecase.NewIntakeUseCase(clientRepo, intakeRepo, itemRepo, rules.Checklists)
	uploadUC := usecase.NewUploadUseCase(intakeRepo, docRepo, storage, queue)
	lifecycleUC := usecase.NewLifecycleUseCase(intakeRepo, docRepo, itemRepo, classifier, textExtractor, fieldExtractor)
	exporter := export.NewService(intakeRepo, itemRepo, docRepo, logger)

	return &App{
		Config: cfg,

		Queue:     queue,
		Documents: docRepo,

		Clients:   clientsUC,
		Intakes:   intakesUC,
		Ingestor:  uploadUC,
		Lifecycle: lifecycleUC,
		Exporter:  exporter,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
