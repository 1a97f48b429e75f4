package usecase

import (
	"context"
	"log/slog"
	"sort"

	"github.com/agentkb/answer-engine/internal/core/domain"
	"github.com/agentkb/answer-engine/internal/core/ports"
)

const rerankExcerptLimit = 512

// Reranker reorders hybrid candidates by a cross-encoder relevance
// signal. The pass is best-effort: on any scorer failure the input order
// is returned unchanged, with no scores attached.
type Reranker struct {
	scorer ports.RerankScorer
	logger *slog.Logger
}

func NewReranker(scorer ports.RerankScorer, logger *slog.Logger) *Reranker {
	return &Reranker{scorer: scorer, logger: logger}
}

func (r *Reranker) Rerank(ctx context.Context, question string, candidates []domain.ScoredCandidate) []domain.ScoredCandidate {
	if r == nil || r.scorer == nil || len(candidates) == 0 {
		return candidates
	}

	scored := make([]domain.ScoredCandidate, len(candidates))
	copy(scored, candidates)

	for i := range scored {
		score, err := r.scorer.Relevance(ctx, question, truncate(scored[i].Text, rerankExcerptLimit))
		if err != nil {
			r.logger.Warn("rerank_failed", "error", err)
			return candidates
		}
		scored[i].RerankScore = score
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].RerankScore != scored[j].RerankScore {
			return scored[i].RerankScore > scored[j].RerankScore
		}
		if scored[i].HybridScore != scored[j].HybridScore {
			return scored[i].HybridScore > scored[j].HybridScore
		}
		return scored[i].ID < scored[j].ID
	})
	return scored
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
