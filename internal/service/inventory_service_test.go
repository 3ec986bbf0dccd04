package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/reconcile"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository/memory"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// fakeDashboardCache keeps one summary in memory and counts invalidations.
type fakeDashboardCache struct {
	summary       *domain.DashboardSummary
	invalidations int
}

func (f *fakeDashboardCache) GetSummary(ctx context.Context) (*domain.DashboardSummary, bool, error) {
	return f.summary, f.summary != nil, nil
}

func (f *fakeDashboardCache) SetSummary(ctx context.Context, summary *domain.DashboardSummary) error {
	f.summary = summary
	return nil
}

func (f *fakeDashboardCache) InvalidateAll(ctx context.Context) error {
	f.invalidations++
	f.summary = nil
	return nil
}

type fakeForecastCache struct {
	results       map[int64]*forecast.Result
	invalidations int
}

func newFakeForecastCache() *fakeForecastCache {
	return &fakeForecastCache{results: map[int64]*forecast.Result{}}
}

func (f *fakeForecastCache) GetForecast(ctx context.Context, itemID int64, horizon int) (*forecast.Result, bool, error) {
	r, ok := f.results[itemID*100+int64(horizon)]
	return r, ok, nil
}

func (f *fakeForecastCache) SetForecast(ctx context.Context, itemID int64, horizon int, result *forecast.Result) error {
	f.results[itemID*100+int64(horizon)] = result
	return nil
}

func (f *fakeForecastCache) InvalidateAll(ctx context.Context) error {
	f.invalidations++
	f.results = map[int64]*forecast.Result{}
	return nil
}

func newInventoryFixture(t *testing.T) (*InventoryService, *memory.ItemStore, *fakeDashboardCache, *fakeForecastCache) {
	t.Helper()
	store := memory.NewItemStore()
	_, err := store.SeedIfEmpty(context.Background(), domain.ReferenceItems())
	require.NoError(t, err)

	dashboard := &fakeDashboardCache{}
	forecasts := newFakeForecastCache()
	svc := NewInventoryService(store, reconcile.NewEngine(store, nil), dashboard, forecasts)
	return svc, store, dashboard, forecasts
}

func TestInventoryService_GetSnapshot(t *testing.T) {
	svc, _, _, _ := newInventoryFixture(t)

	snapshot, err := svc.GetSnapshot(context.Background())

	require.NoError(t, err)
	require.Len(t, snapshot, len(domain.ReferenceItems()))
	for i := 1; i < len(snapshot); i++ {
		assert.Less(t, snapshot[i-1].ID, snapshot[i].ID)
	}
}

func TestInventoryService_GetSnapshotEmptyStore(t *testing.T) {
	store := memory.NewItemStore()
	svc := NewInventoryService(store, reconcile.NewEngine(store, nil), nil, nil)

	snapshot, err := svc.GetSnapshot(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, snapshot)
	assert.Empty(t, snapshot)
}

func TestInventoryService_ApplyDeltaInvalidatesCaches(t *testing.T) {
	ctx := context.Background()
	svc, store, dashboard, forecasts := newInventoryFixture(t)
	snapshot, err := svc.GetSnapshot(ctx)
	require.NoError(t, err)

	report := svc.ApplyDelta(ctx, snapshot, domain.EditDelta{
		Edited: map[int]domain.ItemPatch{0: {UnitsLeft: intPtr(3)}},
	})

	require.True(t, report.OK())
	assert.Equal(t, []int64{1}, report.Updated)
	assert.Equal(t, 1, dashboard.invalidations)
	assert.Equal(t, 1, forecasts.invalidations)

	item, err := store.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, item.UnitsLeft)
}

func TestInventoryService_ApplyDeltaNoChangeKeepsCaches(t *testing.T) {
	ctx := context.Background()
	svc, _, dashboard, forecasts := newInventoryFixture(t)

	// position 40 does not exist in the snapshot, so the edit is skipped
	report := svc.ApplyDelta(ctx, domain.Snapshot{}, domain.EditDelta{
		Edited: map[int]domain.ItemPatch{40: {UnitsLeft: intPtr(3)}},
	})

	assert.False(t, report.Changed())
	assert.Len(t, report.Skipped, 1)
	assert.Zero(t, dashboard.invalidations)
	assert.Zero(t, forecasts.invalidations)
}

func TestInventoryService_AddItem(t *testing.T) {
	ctx := context.Background()
	svc, store, dashboard, _ := newInventoryFixture(t)
	price := decimal.NewFromFloat(12.5)

	item, err := svc.AddItem(ctx, domain.ItemPatch{
		ItemName:  strPtr("Green Tea (500ml)"),
		Price:     &price,
		UnitsLeft: intPtr(40),
	})

	require.NoError(t, err)
	assert.Equal(t, int64(13), item.ID)
	assert.Equal(t, 1, dashboard.invalidations)

	stored, err := store.FindByID(ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, "Green Tea (500ml)", stored.ItemName)
	assert.True(t, price.Equal(stored.Price))
}

func TestInventoryService_AddItemRejectsInvalid(t *testing.T) {
	svc, store, dashboard, _ := newInventoryFixture(t)

	_, err := svc.AddItem(context.Background(), domain.ItemPatch{UnitsLeft: intPtr(4)})

	assert.ErrorIs(t, err, domain.ErrInvalidItem)
	assert.Zero(t, dashboard.invalidations)
	items, err := store.FindAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, len(domain.ReferenceItems()))
}

func TestInventoryService_LowStock(t *testing.T) {
	svc, _, _, _ := newInventoryFixture(t)

	low, err := svc.LowStock(context.Background())

	require.NoError(t, err)
	require.NotEmpty(t, low)
	for _, item := range low {
		assert.Less(t, item.UnitsLeft, item.ReorderPoint)
	}
	ids := make([]int64, len(low))
	for i, item := range low {
		ids[i] = item.ID
	}
	assert.Contains(t, ids, int64(2))
}

func TestInventoryService_DashboardIsCached(t *testing.T) {
	ctx := context.Background()
	svc, store, dashboard, _ := newInventoryFixture(t)

	first, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(domain.ReferenceItems()), first.TotalItems)
	require.NotNil(t, dashboard.summary)

	// a write that bypasses the service is not visible until invalidation
	require.NoError(t, store.Delete(ctx, 1))
	cached, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TotalItems, cached.TotalItems)

	require.NoError(t, dashboard.InvalidateAll(ctx))
	fresh, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.TotalItems-1, fresh.TotalItems)
}
