// Package forecast fits an additive-trend exponential smoothing model (Holt's
// linear method, no seasonal component) to monthly sales and projects it forward.
package forecast

import (
	"fmt"
	"math"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
)

// Model holds fitted smoothing parameters and the final level and trend states.
type Model struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Level float64 `json:"level"`
	Trend float64 `json:"trend"`
	SSE   float64 `json:"sse"`
}

// grid refinement: each pass searches ±span around the best point with the given step
var searchPasses = []struct{ span, step float64 }{
	{span: 1, step: 0.05},
	{span: 0.05, step: 0.01},
	{span: 0.01, step: 0.001},
}

// Fit estimates alpha and beta (0 <= beta <= alpha <= 1) by minimising the
// one-step-ahead squared error. The initial level is the first observation and
// the initial trend the first difference.
func Fit(values []float64) (Model, error) {
	if len(values) < 2 {
		return Model{}, domain.ErrInsufficientData
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Model{}, fmt.Errorf("%w: quantities must be finite", domain.ErrInvalidSeries)
		}
	}

	best := Model{SSE: math.Inf(1)}
	centerA, centerB := 0.5, 0.5
	for _, pass := range searchPasses {
		for a := clamp01(centerA - pass.span); a <= clamp01(centerA+pass.span)+1e-9; a += pass.step {
			for b := clamp01(centerB - pass.span); b <= clamp01(centerB+pass.span)+1e-9; b += pass.step {
				alpha, beta := clamp01(a), clamp01(b)
				if beta > alpha {
					continue
				}
				m := run(values, alpha, beta)
				if m.SSE < best.SSE {
					best = m
				}
			}
		}
		centerA, centerB = best.Alpha, best.Beta
	}
	return best, nil
}

// run filters the series with fixed parameters.
func run(values []float64, alpha, beta float64) Model {
	level := values[0]
	trend := values[1] - values[0]
	sse := 0.0

	for t := 1; t < len(values); t++ {
		predicted := level + trend
		residual := values[t] - predicted
		sse += residual * residual

		nextLevel := alpha*values[t] + (1-alpha)*(level+trend)
		trend = beta*(nextLevel-level) + (1-beta)*trend
		level = nextLevel
	}

	return Model{Alpha: alpha, Beta: beta, Level: level, Trend: trend, SSE: sse}
}

// Predict returns h point forecasts, clamped at zero.
func (m Model) Predict(h int) []float64 {
	out := make([]float64, h)
	for i := 1; i <= h; i++ {
		out[i-1] = math.Max(0, m.Level+float64(i)*m.Trend)
	}
	return out
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
