package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/docpipe/docpipe/internal/config"
	"github.com/docpipe/docpipe/internal/core/ports"
	"github.com/docpipe/docpipe/internal/core/usecase"
	"github.com/docpipe/docpipe/internal/infrastructure/analysis/classifier"
	"github.com/docpipe/docpipe/internal/infrastructure/analysis/entities"
	"github.com/docpipe/docpipe/internal/infrastructure/analysis/language"
	"github.com/docpipe/docpipe/internal/infrastructure/extractor/content"
	"github.com/docpipe/docpipe/internal/infrastructure/extractor/structured"
	neo4jgraph "github.com/docpipe/docpipe/internal/infrastructure/graph/neo4j"
	"github.com/docpipe/docpipe/internal/infrastructure/idgen"
	"github.com/docpipe/docpipe/internal/infrastructure/ocr"
	"github.com/docpipe/docpipe/internal/infrastructure/queue/nats"
	"github.com/docpipe/docpipe/internal/infrastructure/repository/memstore"
	"github.com/docpipe/docpipe/internal/infrastructure/repository/postgres"
	"github.com/docpipe/docpipe/internal/infrastructure/resilience"
	"github.com/docpipe/docpipe/internal/infrastructure/storage/localfs"
	"github.com/docpipe/docpipe/internal/observability/metrics"
)

type App struct {
	Config  config.Config
	Metrics *metrics.PipelineMetrics

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	ReadUC    ports.DocumentReader

	closeFn func()
}

// New wires the full dependency graph for one service process. The service
// name only labels logs and metrics; api and worker share the same wiring.
func New(ctx context.Context, cfg config.Config, service string) (*App, error) {
	executor := resilience.NewExecutor(resilience.DefaultConfig())
	pipelineMetrics := metrics.NewPipelineMetrics(service)

	var (
		repo     ports.DocumentRepository
		sequence ports.SequenceGenerator
		closers  []func()
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		pgRepo := postgres.NewDocumentRepository(db)
		if err := pgRepo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		repo = pgRepo
		sequence = postgres.NewSequence(db)
		closers = append(closers, func() { _ = db.Close() })
	} else {
		slog.Warn("POSTGRES_DSN not set, using in-memory document store")
		repo = memstore.New()
		sequence = idgen.NewSequence(0)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	closers = append(closers, queue.Close)

	var ocrService ports.OCRService
	if cfg.OCRServiceURL != "" {
		ocrService = ocr.New(cfg.OCRServiceURL, cfg.OCRTimeout, storage, executor)
	}

	var graph ports.EntityGraph
	if cfg.Neo4jURI != "" {
		indexer, err := neo4jgraph.New(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			return nil, fmt.Errorf("init neo4j indexer: %w", err)
		}
		graph = indexer
		closers = append(closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = indexer.Close(closeCtx)
		})
	}

	ingestUC := usecase.NewIngestDocumentUseCase(
		repo, storage, queue, sequence, cfg.AllowedExtensions, cfg.MaxUploadBytes,
	)
	processUC := usecase.NewAnalyzeDocumentUseCase(
		repo, storage,
		content.NewExtractor(storage, ocrService),
		structured.New(),
		classifier.New(),
		entities.New(),
		language.New(),
		usecase.AnalyzeOptions{
			EntityGraph:  graph,
			Observer:     pipelineMetrics,
			StageTimeout: cfg.StageTimeout,
			PreviewChars: cfg.TextPreviewChars,
		},
	)
	readUC := usecase.NewReadDocumentUseCase(repo)

	return &App{
		Config:  cfg,
		Metrics: pipelineMetrics,

		Queue: queue,
		Repo:  repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ReadUC:    readUC,

		closeFn: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
