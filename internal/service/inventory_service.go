package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/cache"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/reconcile"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository"
)

// InventoryService is stateless: callers own the snapshot they edit and pass it
// back with their delta.
type InventoryService struct {
	store     repository.ItemStore
	engine    *reconcile.Engine
	dashboard cache.DashboardCache
	forecasts cache.ForecastCache
}

func NewInventoryService(store repository.ItemStore, engine *reconcile.Engine, dashboard cache.DashboardCache, forecasts cache.ForecastCache) *InventoryService {
	if dashboard == nil {
		dashboard = cache.NewNoopDashboardCache()
	}
	if forecasts == nil {
		forecasts = cache.NewNoopForecastCache()
	}
	return &InventoryService{
		store:     store,
		engine:    engine,
		dashboard: dashboard,
		forecasts: forecasts,
	}
}

// GetSnapshot returns the current inventory ordered by id.
func (s *InventoryService) GetSnapshot(ctx context.Context) (domain.Snapshot, error) {
	items, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if items == nil {
		items = make([]domain.InventoryItem, 0)
	}
	return domain.Snapshot(items), nil
}

// ApplyDelta reconciles the store with the edits made against snapshot.
func (s *InventoryService) ApplyDelta(ctx context.Context, snapshot domain.Snapshot, delta domain.EditDelta) *reconcile.Report {
	report := s.engine.Apply(ctx, snapshot, delta)
	if report.Changed() {
		s.invalidate(ctx)
	}
	return report
}

// AddItem validates patch as a new record and stores it under the next free id.
func (s *InventoryService) AddItem(ctx context.Context, patch domain.ItemPatch) (*domain.InventoryItem, error) {
	item := patch.NewItem()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	id, err := s.engine.Insert(ctx, item)
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	item.ID = id
	s.invalidate(ctx)

	log.Info().Int64("id", id).Str("item_name", item.ItemName).Msg("item added")
	return &item, nil
}

// LowStock returns the items below their reorder point in snapshot order.
func (s *InventoryService) LowStock(ctx context.Context) ([]domain.InventoryItem, error) {
	snapshot, err := s.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snapshot.LowStock(), nil
}

func (s *InventoryService) Dashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	if summary, ok, err := s.dashboard.GetSummary(ctx); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("inventory: cache get dashboard failed")
	}

	snapshot, err := s.GetSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	summary := domain.SummarizeInventory(snapshot)

	if err := s.dashboard.SetSummary(ctx, &summary); err != nil {
		log.Warn().Err(err).Msg("inventory: cache set dashboard failed")
	}
	return &summary, nil
}

func (s *InventoryService) invalidate(ctx context.Context) {
	if err := s.dashboard.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("inventory: cache invalidate dashboard failed")
	}
	if err := s.forecasts.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("inventory: cache invalidate forecasts failed")
	}
}
