package forecast

import (
	"time"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
)

// DefaultHorizon is the number of months forecast when none is requested.
const DefaultHorizon = 6

// Result carries the fitted model together with both series.
type Result struct {
	Historical domain.Series `json:"historical"`
	Forecast   domain.Series `json:"forecast"`
	Model      Model         `json:"model"`
}

// Engine is pure: the same history always yields the same forecast.
type Engine struct {
	horizon int
}

func NewEngine(horizon int) *Engine {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &Engine{horizon: horizon}
}

// Horizon returns the default number of forecast periods.
func (e *Engine) Horizon() int {
	return e.horizon
}

// Forecast fits the history and continues it for horizon months after its last
// period. A non-positive horizon uses the engine default. The history must have
// increasing monthly periods.
func (e *Engine) Forecast(history domain.Series, horizon int) (*Result, error) {
	if horizon <= 0 {
		horizon = e.horizon
	}

	model, err := Fit(history.Values())
	if err != nil {
		return nil, err
	}
	if err := history.CheckPeriods(); err != nil {
		return nil, err
	}

	last, _ := history.Last()
	values := model.Predict(horizon)
	periods := make([]time.Time, horizon)
	period := last.Period
	for i := range periods {
		period = domain.NextMonthEnd(period)
		periods[i] = period
	}

	return &Result{
		Historical: history,
		Forecast:   domain.NewSeries(periods, values),
		Model:      model,
	}, nil
}
