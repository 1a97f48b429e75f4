// Package tei implements the rerank scorer port against a
// text-embeddings-inference style /rerank HTTP endpoint backed by a
// cross-encoder model.
package tei

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentkb/answer-engine/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
	}
}

// Relevance scores one (question, excerpt) pair. Higher is more relevant.
func (c *Client) Relevance(ctx context.Context, question, excerpt string) (float64, error) {
	reqBody := map[string]any{
		"query": question,
		"texts": []string{excerpt},
	}

	var ranks []struct {
		Index int     `json:"index"`
		Score float64 `json:"score"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/rerank", reqBody, &ranks)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "tei.rerank", call, nil)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return 0, err
	}
	if len(ranks) == 0 {
		return 0, fmt.Errorf("empty rerank result")
	}
	return ranks[0].Score, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("rerank status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("rerank status: %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode rerank response: %w", err)
	}
	return nil
}
