package bootstrap

import (
	"context"
	"fmt"

	"github.com/daxmodi1/ShikshaMitra/internal/config"
	"github.com/daxmodi1/ShikshaMitra/internal/core/ports"
	"github.com/daxmodi1/ShikshaMitra/internal/core/usecase"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/chunking"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/extractor/pdftext"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/lexical"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/llm/groq"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/memory"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/queue/nats"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/repository/postgres"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/resilience"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/storage/localfs"
	"github.com/daxmodi1/ShikshaMitra/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	Exchanges ports.ExchangeStore

	Assistant ports.AssistantService
	Ingestor  ports.DocumentIngestor
	Processor *usecase.ProcessDocumentUseCase
	Refresher *usecase.IndexRefresher

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	exchanges := postgres.NewExchangeRepository(db)
	teachers := postgres.NewTeacherRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSIngestSubject, cfg.NATSIndexSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	groqClient := groq.New(groq.Options{
		BaseURL:      cfg.GroqBaseURL,
		APIKey:       cfg.GroqAPIKey,
		GenModel:     cfg.GroqGenModel,
		EmbedModel:   cfg.GroqEmbedModel,
		WhisperModel: cfg.GroqWhisperModel,
		Executor:     executor,
	})
	generator := groq.NewGenerator(groqClient)
	embedder := groq.NewEmbedder(groqClient)
	transcriber := groq.NewTranscriber(groqClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	lexicalIndex := lexical.NewIndex()
	sessions := memory.NewStore(cfg.SessionCapacity)
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := pdftext.NewExtractor(storage)

	retriever := usecase.NewHybridRetriever(lexicalIndex, embedder, vectorDB)
	retriever.SetLimits(cfg.RetrievalLexicalK, cfg.RetrievalSemanticK)

	assistant := usecase.NewAssistantUseCase(retriever, generator, transcriber, sessions, exchanges, teachers)
	ingestor := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processor := usecase.NewProcessDocumentUseCase(repo, extractor, chunker, embedder, vectorDB, queue)
	refresher := usecase.NewIndexRefresher(lexicalIndex, vectorDB)

	return &App{
		Config: cfg,

		Queue:     queue,
		Repo:      repo,
		Exchanges: exchanges,

		Assistant: assistant,
		Ingestor:  ingestor,
		Processor: processor,
		Refresher: refresher,

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
