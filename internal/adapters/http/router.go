// Package httpadapter exposes the engine's single retrieval operation
// over HTTP. Transport is a thin shell: validation, metrics and
// middleware only; all retrieval semantics live in the use case.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/agentkb/answer-engine/internal/core/ports"
	"github.com/agentkb/answer-engine/internal/observability/metrics"
)

type Router struct {
	retriever ports.AnswerRetriever
	metrics   *metrics.APIMetrics
	limiter   *rateLimiter
	service   string
}

func NewRouter(retriever ports.AnswerRetriever, apiMetrics *metrics.APIMetrics, rps, burst int) *Router {
	return &Router{
		retriever: retriever,
		metrics:   apiMetrics,
		limiter:   newRateLimiter(rps, burst),
		service:   "answer-engine-api",
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/query", rt.query)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = rt.limiter.middleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) query(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		TenantID string `json:"tenant_id"`
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.TenantID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tenant_id is required"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	result := rt.retriever.Retrieve(r.Context(), req.TenantID, req.Question)
	if rt.metrics != nil {
		rt.metrics.ObserveQuery(rt.service, result, time.Since(start))
	}

	writeJSON(w, http.StatusOK, result)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
