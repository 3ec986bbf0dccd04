// Package metrics holds the Prometheus collectors of the inventory core.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventory"

// Outcome labels
const (
	OutcomeApplied      = "applied"
	OutcomeSkipped      = "skipped"
	OutcomeFailed       = "failed"
	OutcomeOK           = "ok"
	OutcomeUnavailable  = "unavailable"
	OutcomeInsufficient = "insufficient_data"
)

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	registry *prometheus.Registry

	ReconcileOperations *prometheus.CounterVec
	ReconcileIDRetries  prometheus.Counter
	Forecasts           *prometheus.CounterVec
	SummarizerRequests  *prometheus.CounterVec
	SummarizerDuration  prometheus.Histogram
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		ReconcileOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_operations_total",
			Help:      "Store operations issued by reconciliation, by kind and outcome.",
		}, []string{"op", "outcome"}),
		ReconcileIDRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_id_collisions_total",
			Help:      "Inserts retried because another writer took the allocated id.",
		}),
		Forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_total",
			Help:      "Forecast requests by outcome.",
		}, []string{"outcome"}),
		SummarizerRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summarizer_requests_total",
			Help:      "Narrative summarizer calls by outcome.",
		}, []string{"outcome"}),
		SummarizerDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summarizer_request_duration_seconds",
			Help:      "Latency of narrative summarizer calls.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.ReconcileOperations,
		m.ReconcileIDRetries,
		m.Forecasts,
		m.SummarizerRequests,
		m.SummarizerDuration,
	)
	return m
}

func (m *Metrics) ObserveReconcile(op, outcome string) {
	if m == nil {
		return
	}
	m.ReconcileOperations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ObserveIDCollision() {
	if m == nil {
		return
	}
	m.ReconcileIDRetries.Inc()
}

func (m *Metrics) ObserveForecast(outcome string) {
	if m == nil {
		return
	}
	m.Forecasts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSummarizer(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.SummarizerRequests.WithLabelValues(outcome).Inc()
	m.SummarizerDuration.Observe(seconds)
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
