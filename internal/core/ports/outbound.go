package ports

import (
	"context"

	"github.com/agentkb/answer-engine/internal/core/domain"
)

// Embedder builds a query vector for a piece of text. Deterministic for
// identical input within a model version.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// PairSearcher finds curated question/answer records for a tenant above a
// similarity floor, ordered by priority descending then similarity
// descending. Only records of a ready knowledge set are returned.
type PairSearcher interface {
	MatchPairs(ctx context.Context, tenantID string, queryVector []float32, minSimilarity float64, maxResults int) ([]domain.CuratedCandidate, error)
}

// ChunkSearcher finds document chunks for a tenant above a similarity
// floor, ordered by similarity descending. Only chunks of a ready
// knowledge set are returned.
type ChunkSearcher interface {
	MatchChunks(ctx context.Context, tenantID string, queryVector []float32, minSimilarity float64, maxResults int) ([]domain.ChunkCandidate, error)
}

// RerankScorer scores the relevance of a chunk excerpt to a question
// with a cross-encoder style model.
type RerankScorer interface {
	Relevance(ctx context.Context, question, excerpt string) (float64, error)
}

// QueryClassifier assigns a coarse intent to a question. Pattern-based by
// default, swappable for testing and localization.
type QueryClassifier interface {
	Classify(text string) domain.Classification
}

// QueryExpander produces alternate phrasings of a question: the original,
// a transcription-corrected variant and topical expansions, deduplicated.
type QueryExpander interface {
	Expand(text string) []string
}

// TenantSettings reads per-tenant configuration. FallbackMessage returns
// domain.ErrTenantNotFound when no custom message is configured.
type TenantSettings interface {
	FallbackMessage(ctx context.Context, tenantID string) (string, error)
}

// AuditSink receives one entry per answered query. Delivery is
// best-effort; the response path never waits on it.
type AuditSink interface {
	PublishQueryAudited(ctx context.Context, entry domain.AuditEntry) error
}

// AuditStore persists audit entries on the consumer side.
type AuditStore interface {
	Insert(ctx context.Context, entry domain.AuditEntry) error
}

// ResultCache memoizes final retrieval results per tenant and normalized
// question. Implementations must be safe for concurrent use, expire
// entries after a fixed TTL and bound their size, evicting the oldest
// entry first.
type ResultCache interface {
	Get(key string) (domain.RetrievalResult, bool)
	Set(key string, result domain.RetrievalResult)
	Len() int
}
