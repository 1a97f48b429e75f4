package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agentkb/answer-engine/internal/config"
	"github.com/agentkb/answer-engine/internal/core/ports"
	"github.com/agentkb/answer-engine/internal/core/usecase"
	"github.com/agentkb/answer-engine/internal/infrastructure/audit"
	"github.com/agentkb/answer-engine/internal/infrastructure/cache"
	"github.com/agentkb/answer-engine/internal/infrastructure/llm/ollama"
	"github.com/agentkb/answer-engine/internal/infrastructure/querylang"
	"github.com/agentkb/answer-engine/internal/infrastructure/queue/nats"
	"github.com/agentkb/answer-engine/internal/infrastructure/repository/postgres"
	"github.com/agentkb/answer-engine/internal/infrastructure/rerank/tei"
	"github.com/agentkb/answer-engine/internal/infrastructure/resilience"
	"github.com/agentkb/answer-engine/internal/infrastructure/vector/qdrant"
	"github.com/agentkb/answer-engine/internal/observability/metrics"
)

type App struct {
	Config config.Config

	Queue      *nats.Queue
	AuditStore ports.AuditStore
	Retriever  ports.AnswerRetriever
	APIMetrics *metrics.APIMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	tenants := postgres.NewTenantRepository(db)
	if err := tenants.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure tenant schema: %w", err)
	}
	auditStore := postgres.NewAuditRepository(db)
	if err := auditStore.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure audit schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSAuditSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init audit queue: %w", err)
	}

	dispatcher := audit.NewDispatcher(queue, cfg.AuditQueueSize, logger)
	dispatcher.Start()

	embedder := ollama.New(cfg.OllamaURL, cfg.OllamaEmbedModel, executor)
	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantPairsCollection, cfg.QdrantChunksCollection, executor)

	var rerankScorer ports.RerankScorer
	if cfg.RerankURL != "" {
		rerankScorer = tei.New(cfg.RerankURL, executor)
	}

	expander, err := querylang.NewExpanderFromFile(cfg.CorrectionsPath)
	if err != nil {
		return nil, fmt.Errorf("init query expander: %w", err)
	}
	classifier := querylang.NewClassifier()

	apiMetrics := metrics.NewAPIMetrics("answer-engine-api")
	resultCache := apiMetrics.InstrumentCache(cache.New(cfg.CacheTTL, cfg.CacheMaxEntries))

	matcher := usecase.NewCuratedMatcher(embedder, vectorDB, logger)
	hybrid := usecase.NewHybridSearcher(embedder, vectorDB, expander, logger)
	reranker := usecase.NewReranker(rerankScorer, logger)
	retriever := usecase.NewRetrieveUseCase(resultCache, matcher, hybrid, reranker, classifier, tenants, dispatcher, logger)

	return &App{
		Config: cfg,

		Queue:      queue,
		AuditStore: auditStore,
		Retriever:  retriever,
		APIMetrics: apiMetrics,

		closeFn: func() {
			dispatcher.Stop()
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
