package forecast

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
)

// HistorySource provides the historical monthly sales of an item.
type HistorySource interface {
	History(ctx context.Context, item domain.InventoryItem) (domain.Series, error)
}

var (
	seasonalEffects = []float64{0.9, 0.8, 1.0, 1.2, 1.5, 1.8, 2.0, 1.5, 1.2, 1.0, 0.8, 0.7}
	promotions      = []float64{0, 0, 0, 20, 0, 0, 30, 0, 0, 10, 0, 0}
)

const (
	syntheticMeanSales = 30
	syntheticStdDev    = 10
	syntheticTrendTop  = 10
)

// SyntheticHistory simulates monthly sales: normal noise around a mean plus a
// linear trend and promotion spikes, scaled by a seasonal profile and clipped at zero.
type SyntheticHistory struct {
	start  time.Time
	months int
	seed   int64
}

// NewSyntheticHistory builds a generator. With a zero seed every call draws
// fresh randomness; otherwise an item always gets the same history.
func NewSyntheticHistory(start time.Time, months int, seed int64) *SyntheticHistory {
	if months <= 0 {
		months = 12
	}
	return &SyntheticHistory{start: start, months: months, seed: seed}
}

func (s *SyntheticHistory) History(ctx context.Context, item domain.InventoryItem) (domain.Series, error) {
	seed := s.seed + item.ID
	if s.seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	values := make([]float64, s.months)
	for i := range values {
		trend := 0.0
		if s.months > 1 {
			trend = float64(i) * syntheticTrendTop / float64(s.months-1)
		}
		noise := rng.NormFloat64()*syntheticStdDev + syntheticMeanSales
		v := (noise + trend + promotions[i%12]) * seasonalEffects[i%12]
		values[i] = math.Max(0, v)
	}

	return domain.NewSeries(domain.MonthlyPeriods(s.start, s.months), values), nil
}
