package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/metrics"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/summarizer"
)

const insufficientHistoryMessage = "not enough historical data to forecast"

// ForecastView is everything the forecast page of an item shows.
type ForecastView struct {
	Item       domain.InventoryItem `json:"item"`
	Historical domain.Series        `json:"historical"`
	Forecast   domain.Series        `json:"forecast"`
	Model      *forecast.Model      `json:"model,omitempty"`
	Analysis   summarizer.Analysis  `json:"analysis"`
	Message    string               `json:"message,omitempty"`
}

type ForecastService struct {
	store      repository.ItemStore
	history    forecast.HistorySource
	engine     *forecast.Engine
	summarizer summarizer.Summarizer
	cache      cache.ForecastCache
	metrics    *metrics.Metrics
}

func NewForecastService(
	store repository.ItemStore,
	history forecast.HistorySource,
	engine *forecast.Engine,
	summ summarizer.Summarizer,
	cacheImpl cache.ForecastCache,
	m *metrics.Metrics,
) *ForecastService {
	if summ == nil {
		summ = summarizer.NewNoop()
	}
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopForecastCache()
	}
	return &ForecastService{
		store:      store,
		history:    history,
		engine:     engine,
		summarizer: summ,
		cache:      cacheImpl,
		metrics:    m,
	}
}

// ForecastFor forecasts horizon months past the end of history. itemID only
// labels logs; the result depends on history alone.
func (s *ForecastService) ForecastFor(itemID int64, history domain.Series, horizon int) (*forecast.Result, error) {
	result, err := s.engine.Forecast(history, horizon)
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		s.metrics.ObserveForecast(metrics.OutcomeInsufficient)
		return nil, err
	case err != nil:
		s.metrics.ObserveForecast(metrics.OutcomeFailed)
		log.Warn().Err(err).Int64("item_id", itemID).Msg("forecast failed")
		return nil, err
	}

	s.metrics.ObserveForecast(metrics.OutcomeOK)
	return result, nil
}

// Summarize asks the summarizer for a narrative. It never fails; see Analysis.Available.
func (s *ForecastService) Summarize(ctx context.Context, itemName string, historical, forecasted domain.Series) summarizer.Analysis {
	return s.summarizer.Summarize(ctx, summarizer.Request{
		ItemName:   itemName,
		Historical: historical.Values(),
		Forecast:   forecasted.Values(),
	})
}

// View loads an item, its history and forecast, and the narrative analysis.
// Returns domain.ErrItemNotFound when the item does not exist.
func (s *ForecastService) View(ctx context.Context, itemID int64, horizon int) (*ForecastView, error) {
	if horizon <= 0 {
		horizon = s.engine.Horizon()
	}

	item, err := s.store.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	view := &ForecastView{
		Item:       *item,
		Historical: make(domain.Series, 0),
		Forecast:   make(domain.Series, 0),
	}

	result, err := s.cachedForecast(ctx, *item, horizon, view)
	if errors.Is(err, domain.ErrInsufficientData) {
		view.Message = insufficientHistoryMessage
		view.Analysis = summarizer.Unavailable(err)
		return view, nil
	}
	if err != nil {
		return nil, err
	}

	view.Historical = result.Historical
	view.Forecast = result.Forecast
	model := result.Model
	view.Model = &model
	view.Analysis = s.Summarize(ctx, item.ItemName, result.Historical, result.Forecast)
	return view, nil
}

// cachedForecast fills view.Historical as soon as the history is known so it
// survives a failed fit.
func (s *ForecastService) cachedForecast(ctx context.Context, item domain.InventoryItem, horizon int, view *ForecastView) (*forecast.Result, error) {
	if result, ok, err := s.cache.GetForecast(ctx, item.ID, horizon); err == nil && ok {
		return result, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get failed")
	}

	history, err := s.history.History(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("load history for item %d: %w", item.ID, err)
	}
	view.Historical = history

	result, err := s.ForecastFor(item.ID, history, horizon)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetForecast(ctx, item.ID, horizon, result); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set failed")
	}
	return result, nil
}
