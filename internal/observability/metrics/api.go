package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentkb/answer-engine/internal/core/domain"
	"github.com/agentkb/answer-engine/internal/core/ports"
)

// APIMetrics tracks the retrieval surface: totals per tier, latency,
// cache effectiveness and the calibrated confidence distribution.
type APIMetrics struct {
	registry *prometheus.Registry

	queryTotal    *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	cacheHits     prometheus.Counter
	confidence    prometheus.Histogram
}

func NewAPIMetrics(service string) *APIMetrics {
	registry := prometheus.NewRegistry()

	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "answer_engine",
			Subsystem: "api",
			Name:      "query_total",
			Help:      "Total retrieval queries by result source.",
		},
		[]string{"service", "source"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "answer_engine",
			Subsystem: "api",
			Name:      "query_duration_seconds",
			Help:      "Retrieval duration in seconds by result source.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "source"},
	)
	cacheHits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "answer_engine",
			Subsystem: "api",
			Name:      "query_cache_hits_total",
			Help:      "Retrieval queries answered from the result cache.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	confidence := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "answer_engine",
			Subsystem: "api",
			Name:      "query_confidence_percent",
			Help:      "Calibrated confidence of returned answers.",
			Buckets:   []float64{0, 10, 25, 40, 55, 70, 85, 95, 100},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(queryTotal, queryDuration, cacheHits, confidence)

	return &APIMetrics{
		registry:      registry,
		queryTotal:    queryTotal,
		queryDuration: queryDuration,
		cacheHits:     cacheHits,
		confidence:    confidence,
	}
}

func (m *APIMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *APIMetrics) ObserveQuery(service string, result domain.RetrievalResult, duration time.Duration) {
	source := string(result.Source)
	m.queryTotal.WithLabelValues(service, source).Inc()
	m.queryDuration.WithLabelValues(service, source).Observe(duration.Seconds())
	m.confidence.Observe(float64(result.ConfidencePercent))
}

func (m *APIMetrics) ObserveCacheHit() {
	m.cacheHits.Inc()
}

// InstrumentCache decorates a result cache so hits are counted without
// the retrieval pipeline knowing about metrics.
func (m *APIMetrics) InstrumentCache(inner ports.ResultCache) ports.ResultCache {
	return &instrumentedCache{inner: inner, metrics: m}
}

type instrumentedCache struct {
	inner   ports.ResultCache
	metrics *APIMetrics
}

func (c *instrumentedCache) Get(key string) (domain.RetrievalResult, bool) {
	result, ok := c.inner.Get(key)
	if ok {
		c.metrics.ObserveCacheHit()
	}
	return result, ok
}

func (c *instrumentedCache) Set(key string, result domain.RetrievalResult) {
	c.inner.Set(key, result)
}

func (c *instrumentedCache) Len() int {
	return c.inner.Len()
}
