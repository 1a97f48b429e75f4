package ports

import (
	"context"

	"github.com/agentkb/answer-engine/internal/core/domain"
)

// AnswerRetriever is the inbound contract for tiered answer retrieval.
// Implementations never return an error: every failure mode is folded
// into the RetrievalResult.
type AnswerRetriever interface {
	Retrieve(ctx context.Context, tenantID, question string) domain.RetrievalResult
}
