package domain

import (
	"fmt"
	"time"
)

// Point is one calendar period of a sales series.
type Point struct {
	Period   time.Time `json:"period"`
	Quantity float64   `json:"quantity"`
}

// Series is an ordered monthly sequence of points.
type Series []Point

// Values strips the periods.
func (s Series) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Quantity
	}
	return values
}

// Last returns the final point of the series.
func (s Series) Last() (Point, bool) {
	if len(s) == 0 {
		return Point{}, false
	}
	return s[len(s)-1], true
}

// CheckPeriods requires every point to carry a period in a later calendar month
// than the point before it.
func (s Series) CheckPeriods() error {
	var prev time.Time
	for i, p := range s {
		if p.Period.IsZero() {
			return fmt.Errorf("%w: point %d has no period", ErrInvalidSeries, i)
		}
		if i > 0 && !MonthEnd(p.Period).After(MonthEnd(prev)) {
			return fmt.Errorf("%w: point %d (%s) does not follow %s", ErrInvalidSeries, i,
				p.Period.Format("2006-01"), prev.Format("2006-01"))
		}
		prev = p.Period
	}
	return nil
}

// MonthEnd returns the last day of t's month at midnight UTC.
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// NextMonthEnd returns the month-end that follows t's month.
func NextMonthEnd(t time.Time) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return MonthEnd(first.AddDate(0, 1, 0))
}

// MonthlyPeriods returns n consecutive month-ends starting with start's month.
func MonthlyPeriods(start time.Time, n int) []time.Time {
	periods := make([]time.Time, 0, n)
	current := MonthEnd(start)
	for i := 0; i < n; i++ {
		periods = append(periods, current)
		current = NextMonthEnd(current)
	}
	return periods
}

// NewSeries zips periods and values; the shorter input bounds the result.
func NewSeries(periods []time.Time, values []float64) Series {
	n := len(periods)
	if len(values) < n {
		n = len(values)
	}
	series := make(Series, n)
	for i := 0; i < n; i++ {
		series[i] = Point{Period: periods[i], Quantity: values[i]}
	}
	return series
}
