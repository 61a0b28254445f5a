package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/regtechlab/docrag/internal/config"
	"github.com/regtechlab/docrag/internal/core/ports"
	"github.com/regtechlab/docrag/internal/core/usecase"
	"github.com/regtechlab/docrag/internal/infrastructure/chunking"
	"github.com/regtechlab/docrag/internal/infrastructure/extractor"
	"github.com/regtechlab/docrag/internal/infrastructure/extractor/pdftext"
	"github.com/regtechlab/docrag/internal/infrastructure/extractor/plaintext"
	"github.com/regtechlab/docrag/internal/infrastructure/llm/gemini"
	"github.com/regtechlab/docrag/internal/infrastructure/queue/nats"
	"github.com/regtechlab/docrag/internal/infrastructure/repository/postgres"
	"github.com/regtechlab/docrag/internal/infrastructure/rerank/crossencoder"
	"github.com/regtechlab/docrag/internal/infrastructure/resilience"
	"github.com/regtechlab/docrag/internal/infrastructure/storage/localfs"
	"github.com/regtechlab/docrag/internal/infrastructure/vector/qdrant"
	"github.com/regtechlab/docrag/internal/observability/logging"
)

type App struct {
	Config config.Config
	Log    *slog.Logger

	Queue      ports.MessageQueue
	Repo       ports.DocumentRepository
	IngestUC   ports.DocumentIngestor
	ProcessUC  ports.DocumentProcessor
	AutofillUC ports.AutofillService
	BackfillUC ports.VectorBackfiller

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger, pipelineMetrics usecase.PipelineMetrics) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logging.WithComponent(log, "resilience"))
	geminiClient, err := gemini.New(gemini.Options{
		BaseURL:           cfg.GeminiBaseURL,
		EmbedModel:        cfg.GeminiEmbedModel,
		GenerateModel:     cfg.GeminiGenModel,
		Dimension:         cfg.GeminiDimension,
		APIKeys:           cfg.GeminiAPIKeys,
		RequestsPerSecond: cfg.GeminiRPS,
	}, executor)
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}
	embedder := gemini.NewEmbedder(geminiClient)
	generator := gemini.NewGenerator(geminiClient)

	// The index must reject anything the embedder would not produce, so its
	// dimension comes from the embedder rather than a second config read.
	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection, embedder.Dimension())
	reranker := crossencoder.New(cfg.RerankerURL, cfg.RerankerModel, 30*time.Second)

	chunker, err := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("init chunker: %w", err)
	}

	textExtractor := extractor.NewDispatcher(plaintext.NewExtractor(storage)).
		Register("application/pdf", pdftext.NewExtractor(storage))

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, textExtractor, chunker, embedder, vectorDB)
	autofillUC := usecase.NewAutofillUseCase(embedder, vectorDB, reranker, generator, usecase.AutofillConfig{
		RecallK:       cfg.RAGRecallK,
		TopK:          cfg.RAGTopK,
		RRFK:          cfg.RAGFusionRRFK,
		HybridEnabled: cfg.RAGHybridEnabled,
		Temperature:   cfg.RAGTemperature,
		MaxTokens:     cfg.RAGMaxTokens,
		NoInfoPhrases: cfg.NoInfoPhrases,
	}, logging.WithComponent(log, "pipeline"), pipelineMetrics)
	backfillUC := usecase.NewVectorBackfillUseCase(embedder, vectorDB, cfg.BackfillPageSize, logging.WithComponent(log, "backfill"))

	return &App{
		Config: cfg,
		Log:    log,
		Queue:  queue,
		Repo:   repo,

		IngestUC:   ingestUC,
		ProcessUC:  processUC,
		AutofillUC: autofillUC,
		BackfillUC: backfillUC,

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
