package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveReconcile("add", OutcomeApplied)
		m.ObserveIDCollision()
		m.ObserveForecast(OutcomeOK)
		m.ObserveSummarizer(OutcomeUnavailable, 0.1)
	})
}

func TestMetrics_Counts(t *testing.T) {
	m := New()
	m.ObserveReconcile("add", OutcomeApplied)
	m.ObserveReconcile("add", OutcomeApplied)
	m.ObserveReconcile("edit", OutcomeSkipped)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReconcileOperations.WithLabelValues("add", OutcomeApplied)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileOperations.WithLabelValues("edit", OutcomeSkipped)))
}
