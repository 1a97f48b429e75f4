package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/agentkb/answer-engine/internal/core/domain"
)

func qdrantServer(t *testing.T, wantPath string, hits []map[string]any, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if wantPath != "" && r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"result": hits})
	}))
}

func TestMatchChunksScopesFilterToTenantAndReadySets(t *testing.T) {
	var captured map[string]any
	server := qdrantServer(t, "/collections/document_chunks/points/search", []map[string]any{
		{
			"id":    "chunk-1",
			"score": 0.83,
			"payload": map[string]any{
				"text":       "we open at nine",
				"source_ref": "https://example.com/hours",
				"priority":   float64(10),
			},
		},
	}, &captured)
	defer server.Close()

	client := New(server.URL, "curated_pairs", "document_chunks", nil)
	got, err := client.MatchChunks(context.Background(), "tenant-1", []float32{0.1, 0.2}, 0.20, 8)
	if err != nil {
		t.Fatalf("MatchChunks: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d chunks, want 1", len(got))
	}
	want := domain.ChunkCandidate{
		ID:         "chunk-1",
		Text:       "we open at nine",
		SourceRef:  "https://example.com/hours",
		Similarity: 0.83,
		Priority:   10,
	}
	if got[0] != want {
		t.Fatalf("chunk = %+v, want %+v", got[0], want)
	}

	if captured["limit"] != float64(8) {
		t.Fatalf("limit = %v", captured["limit"])
	}
	if captured["score_threshold"] != 0.20 {
		t.Fatalf("score_threshold = %v", captured["score_threshold"])
	}
	filter, _ := captured["filter"].(map[string]any)
	must, _ := filter["must"].([]any)
	if len(must) != 2 {
		t.Fatalf("filter must = %v", must)
	}
	conditions := map[string]string{}
	for _, raw := range must {
		cond := raw.(map[string]any)
		match := cond["match"].(map[string]any)
		conditions[cond["key"].(string)] = match["value"].(string)
	}
	if conditions["tenant_id"] != "tenant-1" {
		t.Fatalf("tenant filter = %q", conditions["tenant_id"])
	}
	if conditions["kb_status"] != "ready" {
		t.Fatalf("kb_status filter = %q", conditions["kb_status"])
	}
}

func TestMatchPairsOrdersByPriorityThenSimilarity(t *testing.T) {
	server := qdrantServer(t, "/collections/curated_pairs/points/search", []map[string]any{
		{"id": "qa-1", "score": 0.95, "payload": map[string]any{"question": "q1", "answer": "a1"}},
		{"id": "qa-2", "score": 0.80, "payload": map[string]any{"question": "q2", "answer": "a2", "priority": float64(50)}},
		{"id": "qa-3", "score": 0.90, "payload": map[string]any{"question": "q3", "answer": "a3", "priority": float64(50)}},
	}, nil)
	defer server.Close()

	client := New(server.URL, "curated_pairs", "document_chunks", nil)
	got, err := client.MatchPairs(context.Background(), "tenant-1", []float32{0.1}, 0.70, 3)
	if err != nil {
		t.Fatalf("MatchPairs: %v", err)
	}

	wantOrder := []string{"qa-3", "qa-2", "qa-1"}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d pairs, want %d", len(got), len(wantOrder))
	}
	for i, id := range wantOrder {
		if got[i].ID != id {
			t.Fatalf("pair %d = %s, want %s", i, got[i].ID, id)
		}
	}
}

func TestMatchPairsDecodesPayload(t *testing.T) {
	server := qdrantServer(t, "", []map[string]any{
		{
			"id":    float64(42),
			"score": 0.91,
			"payload": map[string]any{
				"question": "what are your hours",
				"answer":   "nine to five",
				"priority": float64(7),
				"keywords": []any{"hours", "opening"},
			},
		},
	}, nil)
	defer server.Close()

	client := New(server.URL, "curated_pairs", "document_chunks", nil)
	got, err := client.MatchPairs(context.Background(), "tenant-1", []float32{0.1}, 0.70, 3)
	if err != nil {
		t.Fatalf("MatchPairs: %v", err)
	}

	pair := got[0]
	if pair.ID != "42" {
		t.Fatalf("numeric id must render as string, got %q", pair.ID)
	}
	if pair.Question != "what are your hours" || pair.Answer != "nine to five" {
		t.Fatalf("payload not decoded: %+v", pair)
	}
	if pair.Priority != 7 {
		t.Fatalf("Priority = %d", pair.Priority)
	}
	if len(pair.Keywords) != 2 || pair.Keywords[0] != "hours" {
		t.Fatalf("Keywords = %v", pair.Keywords)
	}
}

func TestSearchSurfacesStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "collection not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := New(server.URL, "curated_pairs", "document_chunks", nil)
	if _, err := client.MatchChunks(context.Background(), "tenant-1", []float32{0.1}, 0.20, 8); err == nil {
		t.Fatal("expected error")
	}
}

func TestClassifyQdrantError(t *testing.T) {
	if got := classifyQdrantError(context.Canceled); got.Retryable || got.RecordFailure {
		t.Fatalf("context cancellation must not retry or trip the breaker: %+v", got)
	}
	if got := classifyQdrantError(context.DeadlineExceeded); got.Retryable {
		t.Fatalf("deadline exceeded must not retry: %+v", got)
	}
}

func TestSortPairsByPriorityIsStable(t *testing.T) {
	pairs := []domain.CuratedCandidate{
		{ID: "a", Priority: 1, Similarity: 0.8},
		{ID: "b", Priority: 1, Similarity: 0.8},
		{ID: "c", Priority: 2, Similarity: 0.7},
	}
	sortPairsByPriority(pairs)
	if pairs[0].ID != "c" || pairs[1].ID != "a" || pairs[2].ID != "b" {
		t.Fatalf("unexpected order: %v %v %v", pairs[0].ID, pairs[1].ID, pairs[2].ID)
	}
}
