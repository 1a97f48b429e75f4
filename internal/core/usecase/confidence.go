package usecase

import "github.com/agentkb/answer-engine/internal/core/domain"

// calibrateConfidence folds every available signal for the top candidate
// into one integer in [0,100]. Monotonically increasing in hybrid score
// and in agreement among the leading candidates.
func calibrateConfidence(top domain.ScoredCandidate, all []domain.ScoredCandidate) int {
	score := top.HybridScore * 60

	switch {
	case top.SemanticScore > 0.75:
		score += 25
	case top.SemanticScore > 0.60:
		score += 15
	case top.SemanticScore > 0.40:
		score += 5
	}

	switch {
	case top.KeywordScore > 0.70:
		score += 15
	case top.KeywordScore > 0.40:
		score += 8
	}

	if top.HasRerankScore() {
		switch {
		case top.RerankScore > 0.80:
			score += 15
		case top.RerankScore > 0.60:
			score += 8
		}
	}

	if top.Priority >= 100 {
		score += 10
	}

	if len(all) >= 2 {
		gap := top.HybridScore - all[1].HybridScore
		switch {
		case gap < 0.05:
			score -= 15
		case gap < 0.10:
			score -= 5
		case gap > 0.30:
			score += 10
		}
	}

	if len(all) >= 3 {
		avg := (all[0].HybridScore + all[1].HybridScore + all[2].HybridScore) / 3
		if top.HybridScore >= avg+0.15 {
			score += 10
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}
