// Package qdrant implements the curated-pair and chunk search ports
// against Qdrant's HTTP API. Every query is scoped to one tenant and to
// knowledge sets in the ready state.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentkb/answer-engine/internal/core/domain"
	"github.com/agentkb/answer-engine/internal/infrastructure/resilience"
)

const knowledgeSetReady = "ready"

type Client struct {
	baseURL          string
	pairsCollection  string
	chunksCollection string
	httpClient       *http.Client
	executor         *resilience.Executor
}

func New(baseURL, pairsCollection, chunksCollection string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		pairsCollection:  pairsCollection,
		chunksCollection: chunksCollection,
		httpClient:       &http.Client{Timeout: 30 * time.Second},
		executor:         executor,
	}
}

type searchHit struct {
	ID      any            `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// MatchPairs returns curated question/answer records above minSimilarity,
// reordered by priority descending then similarity descending.
func (c *Client) MatchPairs(ctx context.Context, tenantID string, queryVector []float32, minSimilarity float64, maxResults int) ([]domain.CuratedCandidate, error) {
	hits, err := c.search(ctx, c.pairsCollection, tenantID, queryVector, minSimilarity, maxResults)
	if err != nil {
		return nil, err
	}

	out := make([]domain.CuratedCandidate, 0, len(hits))
	for _, hit := range hits {
		out = append(out, domain.CuratedCandidate{
			ID:         fmt.Sprintf("%v", hit.ID),
			Question:   payloadString(hit.Payload, "question"),
			Answer:     payloadString(hit.Payload, "answer"),
			Similarity: hit.Score,
			Priority:   payloadInt(hit.Payload, "priority"),
			Keywords:   payloadStrings(hit.Payload, "keywords"),
		})
	}
	sortPairsByPriority(out)
	return out, nil
}

// MatchChunks returns document chunks above minSimilarity ordered by
// similarity descending, as Qdrant returns them.
func (c *Client) MatchChunks(ctx context.Context, tenantID string, queryVector []float32, minSimilarity float64, maxResults int) ([]domain.ChunkCandidate, error) {
	hits, err := c.search(ctx, c.chunksCollection, tenantID, queryVector, minSimilarity, maxResults)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ChunkCandidate, 0, len(hits))
	for _, hit := range hits {
		out = append(out, domain.ChunkCandidate{
			ID:         fmt.Sprintf("%v", hit.ID),
			Text:       payloadString(hit.Payload, "text"),
			SourceRef:  payloadString(hit.Payload, "source_ref"),
			Similarity: hit.Score,
			Priority:   payloadInt(hit.Payload, "priority"),
		})
	}
	return out, nil
}

func (c *Client) search(ctx context.Context, collection, tenantID string, queryVector []float32, minSimilarity float64, maxResults int) ([]searchHit, error) {
	reqBody := map[string]any{
		"vector":          queryVector,
		"limit":           maxResults,
		"score_threshold": minSimilarity,
		"with_payload":    true,
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "tenant_id", "match": map[string]any{"value": tenantID}},
				{"key": "kb_status", "match": map[string]any{"value": knowledgeSetReady}},
			},
		},
	}

	var searchResp struct {
		Result []searchHit `json:"result"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, fmt.Sprintf("/collections/%s/points/search", collection), reqBody, &searchResp)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "qdrant.search."+collection, call, classifyQdrantError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return searchResp.Result, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal search body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("qdrant search status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant search status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode search response: %w", err)
	}
	return nil
}

func classifyQdrantError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	}
	return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
}
