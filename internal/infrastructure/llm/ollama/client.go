// Package ollama implements the embedding port against an Ollama server.
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/agentkb/answer-engine/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	embedModel string
	httpClient *http.Client
	executor   *resilience.Executor
}

func New(baseURL, embedModel string, executor *resilience.Executor) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedModel: embedModel,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		executor:   executor,
	}
}

// EmbedQuery returns the embedding vector for one piece of text.
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	request := map[string]any{
		"model": c.embedModel,
		"input": []string{text},
	}

	var response struct {
		Embeddings [][]float32 `json:"embeddings"`
	}

	call := func(callCtx context.Context) error {
		return c.postJSON(callCtx, "/api/embed", request, &response, "embed")
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, "ollama.embed", call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed", err)
	}
	if len(response.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	return response.Embeddings[0], nil
}
