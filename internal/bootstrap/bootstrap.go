package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/onecore/docintake/internal/auth"
	"github.com/onecore/docintake/internal/config"
	"github.com/onecore/docintake/internal/core/analysis"
	"github.com/onecore/docintake/internal/core/ports"
	"github.com/onecore/docintake/internal/core/usecase"
	"github.com/onecore/docintake/internal/export"
	"github.com/onecore/docintake/internal/infrastructure/csvcheck"
	"github.com/onecore/docintake/internal/infrastructure/extractor"
	"github.com/onecore/docintake/internal/infrastructure/queue/nats"
	"github.com/onecore/docintake/internal/infrastructure/repository/postgres"
	"github.com/onecore/docintake/internal/infrastructure/resilience"
	"github.com/onecore/docintake/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Tokens *auth.Manager
	Queue  ports.MessageQueue
	Repo   ports.DocumentRepository

	IngestUC  ports.DocumentIngestor
	ReaderUC  ports.DocumentReader
	ProcessUC ports.DocumentProcessor
	CSVUC     ports.CSVIngestor
	EventsUC  ports.EventQueryService
	Exporter  *export.Service

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("init token manager: %w", err)
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	events := postgres.NewEventRepository(db)
	csvRepo := postgres.NewCSVRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)
	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	engine := analysis.New(analysis.Config{
		QuantityTolerance: cfg.QuantityTolerance,
		QuantityMax:       cfg.QuantityMax,
	})
	textExtractor := extractor.New(extractor.Config{
		TesseractCmd:  cfg.TesseractCmd,
		TesseractLang: cfg.TesseractLang,
	}, storage, storage, logger)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	readerUC := usecase.NewReadDocumentUseCase(repo)
	processUC := usecase.NewProcessDocumentUseCase(repo, events, textExtractor, engine)
	csvUC := usecase.NewUploadCSVUseCase(csvRepo, events, storage, csvcheck.New())
	eventsUC := usecase.NewQueryEventsUseCase(events)
	exporter := export.NewService(eventsUC, logger)

	return &App{
		Config: cfg,

		Tokens: tokens,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ReaderUC:  readerUC,
		ProcessUC: processUC,
		CSVUC:     csvUC,
		EventsUC:  eventsUC,
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
