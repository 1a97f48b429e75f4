package usecase

import (
	"context"
	"log/slog"

	"github.com/agentkb/answer-engine/internal/core/domain"
	"github.com/agentkb/answer-engine/internal/core/ports"
)

const (
	defaultPairMinSimilarity   = 0.70
	defaultPairExactSimilarity = 0.90
	defaultPairMaxResults      = 3

	confidenceExact    = 95
	confidenceSemantic = 75
)

// CuratedMatcher checks a tenant's hand-curated question/answer pairs via
// embedding similarity before the engine falls back to full-text search.
type CuratedMatcher struct {
	embedder ports.Embedder
	pairs    ports.PairSearcher
	logger   *slog.Logger

	minSimilarity   float64
	exactSimilarity float64
	maxResults      int
}

func NewCuratedMatcher(embedder ports.Embedder, pairs ports.PairSearcher, logger *slog.Logger) *CuratedMatcher {
	return &CuratedMatcher{
		embedder:        embedder,
		pairs:           pairs,
		logger:          logger,
		minSimilarity:   defaultPairMinSimilarity,
		exactSimilarity: defaultPairExactSimilarity,
		maxResults:      defaultPairMaxResults,
	}
}

// Match embeds the raw question once and takes the single best candidate
// the backend returns. Backend errors and similarities below the floor
// both report not-found; nothing propagates to the caller.
func (m *CuratedMatcher) Match(ctx context.Context, tenantID, question string) domain.CuratedMatch {
	notFound := domain.CuratedMatch{Found: false}

	vector, err := m.embedder.EmbedQuery(ctx, question)
	if err != nil {
		m.logger.Warn("curated_embed_failed", "tenant_id", tenantID, "error", err)
		return notFound
	}

	candidates, err := m.pairs.MatchPairs(ctx, tenantID, vector, m.minSimilarity, m.maxResults)
	if err != nil {
		m.logger.Warn("curated_search_failed", "tenant_id", tenantID, "error", err)
		return notFound
	}
	if len(candidates) == 0 {
		return notFound
	}

	// The store orders by priority then similarity and enforces the floor,
	// but a record below it is still treated as not-found.
	best := candidates[0]
	if best.Similarity < m.minSimilarity {
		return notFound
	}

	match := domain.CuratedMatch{
		Found:      true,
		Answer:     best.Answer,
		Question:   best.Question,
		Similarity: best.Similarity,
	}
	if best.Similarity >= m.exactSimilarity {
		match.Confidence = confidenceExact
		match.Source = domain.SourceQAExact
	} else {
		match.Confidence = confidenceSemantic
		match.Source = domain.SourceQASemantic
	}
	return match
}
