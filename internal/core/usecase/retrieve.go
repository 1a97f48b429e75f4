package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/agentkb/answer-engine/internal/core/domain"
	"github.com/agentkb/answer-engine/internal/core/ports"
)

// DefaultFallbackMessage is returned when a tenant has no custom fallback
// configured or the lookup fails.
const DefaultFallbackMessage = "I don't have that information in my knowledge base."

const defaultMinConfidence = 25

// RetrieveUseCase sequences the retrieval tiers: cache, curated pairs,
// hybrid search, rerank, confidence calibration, extraction or fallback.
// Retrieve never returns an error; every terminal branch produces a
// well-formed result, writes one cache entry and dispatches one audit
// entry without blocking the response.
type RetrieveUseCase struct {
	cache      ports.ResultCache
	matcher    *CuratedMatcher
	hybrid     *HybridSearcher
	reranker   *Reranker
	classifier ports.QueryClassifier
	settings   ports.TenantSettings
	audit      ports.AuditSink
	logger     *slog.Logger

	minConfidence int
	group         singleflight.Group
}

func NewRetrieveUseCase(
	cache ports.ResultCache,
	matcher *CuratedMatcher,
	hybrid *HybridSearcher,
	reranker *Reranker,
	classifier ports.QueryClassifier,
	settings ports.TenantSettings,
	audit ports.AuditSink,
	logger *slog.Logger,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		cache:         cache,
		matcher:       matcher,
		hybrid:        hybrid,
		reranker:      reranker,
		classifier:    classifier,
		settings:      settings,
		audit:         audit,
		logger:        logger,
		minConfidence: defaultMinConfidence,
	}
}

func (uc *RetrieveUseCase) Retrieve(ctx context.Context, tenantID, question string) domain.RetrievalResult {
	key := cacheKey(tenantID, question)
	if result, ok := uc.cache.Get(key); ok {
		return result
	}

	// Identical concurrent misses share one computation per key.
	value, _, _ := uc.group.Do(key, func() (any, error) {
		return uc.compute(ctx, tenantID, question, key), nil
	})
	result, ok := value.(domain.RetrievalResult)
	if !ok {
		return uc.errorResult()
	}
	return result
}

func (uc *RetrieveUseCase) compute(ctx context.Context, tenantID, question, key string) (result domain.RetrievalResult) {
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("retrieve_panic", "tenant_id", tenantID, "panic", r)
			result = uc.errorResult()
			uc.finish(ctx, tenantID, question, key, result)
		}
	}()

	result = uc.retrieveTiers(ctx, tenantID, question)
	uc.finish(ctx, tenantID, question, key, result)
	return result
}

func (uc *RetrieveUseCase) retrieveTiers(ctx context.Context, tenantID, question string) domain.RetrievalResult {
	if match := uc.matcher.Match(ctx, tenantID, question); match.Found {
		return domain.RetrievalResult{
			Success:           true,
			Answer:            match.Answer,
			ConfidencePercent: match.Confidence,
			Similarity:        match.Similarity,
			MatchedQuestion:   match.Question,
			Source:            match.Source,
		}
	}

	candidates := uc.hybrid.Search(ctx, tenantID, question)
	if len(candidates) == 0 {
		return domain.RetrievalResult{
			Success: false,
			Answer:  uc.fallbackMessage(ctx, tenantID),
			Source:  domain.SourceFallback,
		}
	}

	candidates = uc.reranker.Rerank(ctx, question, candidates)

	top := candidates[0]
	confidence := calibrateConfidence(top, candidates)
	if confidence < uc.minConfidence {
		return domain.RetrievalResult{
			Success:    false,
			Answer:     uc.fallbackMessage(ctx, tenantID),
			Similarity: top.SemanticScore,
			Source:     domain.SourceFallback,
		}
	}

	classification := uc.classifier.Classify(question)
	answer := extractAnswer(question, top.Text, top.SemanticScore, classification.PreciseExtraction)
	return domain.RetrievalResult{
		Success:           true,
		Answer:            answer,
		ConfidencePercent: confidence,
		Similarity:        top.SemanticScore,
		SourceRef:         top.SourceRef,
		Source:            domain.SourceVector,
	}
}

// finish writes the cache entry and dispatches the audit record. Audit
// failures are logged and swallowed; they never affect the result.
func (uc *RetrieveUseCase) finish(ctx context.Context, tenantID, question, key string, result domain.RetrievalResult) {
	uc.cache.Set(key, result)

	entry := domain.AuditEntry{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Question:   question,
		Answer:     result.Answer,
		Confidence: result.ConfidencePercent,
		Success:    result.Success,
		Source:     result.Source,
		AskedAt:    time.Now().UTC(),
	}
	if err := uc.audit.PublishQueryAudited(ctx, entry); err != nil {
		uc.logger.Warn("audit_publish_failed", "tenant_id", tenantID, "error", err)
	}
}

func (uc *RetrieveUseCase) fallbackMessage(ctx context.Context, tenantID string) string {
	message, err := uc.settings.FallbackMessage(ctx, tenantID)
	if err != nil || strings.TrimSpace(message) == "" {
		return DefaultFallbackMessage
	}
	return message
}

func (uc *RetrieveUseCase) errorResult() domain.RetrievalResult {
	return domain.RetrievalResult{
		Success: false,
		Answer:  DefaultFallbackMessage,
		Source:  domain.SourceError,
	}
}

func cacheKey(tenantID, question string) string {
	return tenantID + "|" + strings.ToLower(strings.TrimSpace(question))
}
