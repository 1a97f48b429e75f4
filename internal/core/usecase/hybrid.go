package usecase

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/agentkb/answer-engine/internal/core/domain"
	"github.com/agentkb/answer-engine/internal/core/ports"
)

const (
	defaultChunkMinSimilarity = 0.20
	defaultChunkCandidates    = 8
	defaultMaxCandidates      = 5

	semanticWeight = 0.7
	keywordWeight  = 0.3
)

// HybridSearcher fuses semantic similarity with lexical keyword overlap
// over document chunks, querying the vector backend once per query
// variant and deduplicating by chunk identity.
type HybridSearcher struct {
	embedder ports.Embedder
	chunks   ports.ChunkSearcher
	expander ports.QueryExpander
	logger   *slog.Logger

	minSimilarity  float64
	candidateCount int
	maxCandidates  int
}

func NewHybridSearcher(embedder ports.Embedder, chunks ports.ChunkSearcher, expander ports.QueryExpander, logger *slog.Logger) *HybridSearcher {
	return &HybridSearcher{
		embedder:       embedder,
		chunks:         chunks,
		expander:       expander,
		logger:         logger,
		minSimilarity:  defaultChunkMinSimilarity,
		candidateCount: defaultChunkCandidates,
		maxCandidates:  defaultMaxCandidates,
	}
}

// Search returns at most maxCandidates scored chunks sorted by hybrid
// score. A variant that fails to embed or search is skipped; upstream
// errors never propagate.
func (s *HybridSearcher) Search(ctx context.Context, tenantID, question string) []domain.ScoredCandidate {
	variants := s.expander.Expand(question)
	if len(variants) == 0 {
		variants = []string{question}
	}

	merged := make([]domain.ScoredCandidate, 0, s.maxCandidates*2)
	seen := make(map[string]struct{}, s.maxCandidates*2)

	for _, variant := range variants {
		vector, err := s.embedder.EmbedQuery(ctx, variant)
		if err != nil {
			s.logger.Warn("hybrid_embed_failed", "tenant_id", tenantID, "error", err)
			continue
		}

		chunks, err := s.chunks.MatchChunks(ctx, tenantID, vector, s.minSimilarity, s.candidateCount)
		if err != nil {
			s.logger.Warn("hybrid_search_failed", "tenant_id", tenantID, "error", err)
			continue
		}

		queryTokens := contentTokens(variant)
		for _, chunk := range chunks {
			if _, ok := seen[chunk.ID]; ok {
				continue
			}
			seen[chunk.ID] = struct{}{}

			kw := keywordScore(queryTokens, chunk.Text)
			merged = append(merged, domain.ScoredCandidate{
				ID:            chunk.ID,
				Text:          chunk.Text,
				SourceRef:     chunk.SourceRef,
				SemanticScore: chunk.Similarity,
				KeywordScore:  kw,
				HybridScore:   hybridScore(chunk.Similarity, kw),
				RerankScore:   -1,
				Priority:      chunk.Priority,
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].HybridScore != merged[j].HybridScore {
			return merged[i].HybridScore > merged[j].HybridScore
		}
		return merged[i].ID < merged[j].ID
	})

	if len(merged) > s.maxCandidates {
		merged = merged[:s.maxCandidates]
	}
	return merged
}

func hybridScore(semantic, keyword float64) float64 {
	return semanticWeight*semantic + keywordWeight*keyword
}

// keywordScore counts whole-word occurrences of every query token inside
// the chunk text, weights each matching token by ln(1+occurrences)*2 and
// normalizes the sum into [0,1].
func keywordScore(queryTokens []string, chunkText string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	words := splitAlphaNumLower(chunkText)
	if len(words) == 0 {
		return 0
	}

	total := 0.0
	counted := make(map[string]struct{}, len(queryTokens))
	for _, token := range queryTokens {
		if _, ok := counted[token]; ok {
			continue
		}
		counted[token] = struct{}{}

		occurrences := wholeWordCount(words, token)
		if occurrences == 0 {
			continue
		}
		total += math.Log(1+float64(occurrences)) * 2
	}

	normalized := total / 20
	if normalized > 1 {
		return 1
	}
	if normalized < 0 {
		return 0
	}
	return normalized
}
