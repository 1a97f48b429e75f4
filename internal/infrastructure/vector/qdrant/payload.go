package qdrant

import (
	"fmt"
	"sort"

	"github.com/agentkb/answer-engine/internal/core/domain"
)

func payloadString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func payloadInt(payload map[string]any, key string) int {
	v, ok := payload[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func payloadStrings(payload map[string]any, key string) []string {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Priority is a hard tie-break ahead of similarity for curated pairs.
func sortPairsByPriority(pairs []domain.CuratedCandidate) {
	sort.SliceStable(pairs, func(i, j int) bool {
		if pairs[i].Priority != pairs[j].Priority {
			return pairs[i].Priority > pairs[j].Priority
		}
		return pairs[i].Similarity > pairs[j].Similarity
	})
}
