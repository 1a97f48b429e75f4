package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics tracks the audit consumer.
type WorkerMetrics struct {
	registry *prometheus.Registry

	auditTotal    *prometheus.CounterVec
	auditDuration *prometheus.HistogramVec
	auditLag      *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	auditTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "answer_engine",
			Subsystem: "worker",
			Name:      "audit_write_total",
			Help:      "Total persisted audit entries by status.",
		},
		[]string{"service", "status"},
	)
	auditDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "answer_engine",
			Subsystem: "worker",
			Name:      "audit_write_duration_seconds",
			Help:      "Audit persistence duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	auditLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "answer_engine",
			Subsystem: "worker",
			Name:      "audit_lag_seconds",
			Help:      "Delay between query time and audit persistence.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"service"},
	)

	registry.MustRegister(auditTotal, auditDuration, auditLag)

	return &WorkerMetrics{
		registry:      registry,
		auditTotal:    auditTotal,
		auditDuration: auditDuration,
		auditLag:      auditLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) FinishAuditWrite(service string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.auditTotal.WithLabelValues(service, status).Inc()
	m.auditDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveAuditLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.auditLag.WithLabelValues(service).Observe(lag.Seconds())
}
