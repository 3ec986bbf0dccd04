package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository/memory"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func seededStore(t *testing.T) (*memory.ItemStore, domain.Snapshot) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewItemStore()
	_, err := store.SeedIfEmpty(ctx, domain.ReferenceItems())
	require.NoError(t, err)
	items, err := store.FindAll(ctx)
	require.NoError(t, err)
	return store, domain.Snapshot(items)
}

func allItems(t *testing.T, store repository.ItemStore) []domain.InventoryItem {
	t.Helper()
	items, err := store.FindAll(context.Background())
	require.NoError(t, err)
	return items
}

// recordingStore wraps a store and records the order of mutating calls.
type recordingStore struct {
	repository.ItemStore
	calls []string
}

func (r *recordingStore) Insert(ctx context.Context, item domain.InventoryItem) error {
	r.calls = append(r.calls, "insert")
	return r.ItemStore.Insert(ctx, item)
}

func (r *recordingStore) Update(ctx context.Context, id int64, patch domain.ItemPatch) error {
	r.calls = append(r.calls, "update")
	return r.ItemStore.Update(ctx, id, patch)
}

func (r *recordingStore) Delete(ctx context.Context, id int64) error {
	r.calls = append(r.calls, "delete")
	return r.ItemStore.Delete(ctx, id)
}

// racingStore simulates another session inserting the allocated id first.
type racingStore struct {
	repository.ItemStore
	steals int
}

func (r *racingStore) Insert(ctx context.Context, item domain.InventoryItem) error {
	if r.steals > 0 {
		r.steals--
		if err := r.ItemStore.Insert(ctx, domain.InventoryItem{ID: item.ID, ItemName: "from another session"}); err != nil {
			return err
		}
	}
	return r.ItemStore.Insert(ctx, item)
}

// failingStore fails updates for one id.
type failingStore struct {
	repository.ItemStore
	failID int64
}

func (f *failingStore) Update(ctx context.Context, id int64, patch domain.ItemPatch) error {
	if id == f.failID {
		return errors.New("write concern timeout")
	}
	return f.ItemStore.Update(ctx, id, patch)
}

func TestApply_AdditionsGetSequentialIDs(t *testing.T) {
	store, snapshot := seededStore(t)
	engine := NewEngine(store, nil)

	report := engine.Apply(context.Background(), snapshot, domain.EditDelta{
		Added: []domain.ItemPatch{
			{ItemName: strPtr("Green Tea")},
			{ItemName: strPtr("Iced Tea")},
			{ItemName: strPtr("Lemonade")},
		},
	})

	require.True(t, report.OK())
	assert.Equal(t, []int64{13, 14, 15}, report.Inserted)

	added, err := store.FindByID(context.Background(), 14)
	require.NoError(t, err)
	assert.Equal(t, "Iced Tea", added.ItemName)
	assert.True(t, added.Price.IsZero())
	assert.Equal(t, 0, added.UnitsLeft)
	assert.Equal(t, "", added.Description)
}

func TestApply_FirstAdditionIntoEmptyStoreGetsIDOne(t *testing.T) {
	store := memory.NewItemStore()
	engine := NewEngine(store, nil)

	report := engine.Apply(context.Background(), nil, domain.EditDelta{
		Added: []domain.ItemPatch{{ItemName: strPtr("Rice (5kg)")}},
	})

	assert.Equal(t, []int64{1}, report.Inserted)
}

func TestApply_EditOnUnpersistedOrMissingRowIsSkipped(t *testing.T) {
	store, snapshot := seededStore(t)
	engine := NewEngine(store, nil)
	before := allItems(t, store)

	stale := append(domain.Snapshot{}, snapshot...)
	stale = append(stale, domain.InventoryItem{ItemName: "not saved yet"})
	stale = append(stale, domain.InventoryItem{ID: 99, ItemName: "deleted elsewhere"})

	report := engine.Apply(context.Background(), stale, domain.EditDelta{
		Edited: map[int]domain.ItemPatch{
			12: {UnitsLeft: intPtr(1)},
			13: {UnitsLeft: intPtr(1)},
			40: {UnitsLeft: intPtr(1)},
		},
	})

	assert.True(t, report.OK())
	assert.Empty(t, report.Updated)
	assert.Len(t, report.Skipped, 3)
	assert.Equal(t, before, allItems(t, store))
}

func TestApply_EditMergesOverSnapshotRow(t *testing.T) {
	store, snapshot := seededStore(t)
	engine := NewEngine(store, nil)

	report := engine.Apply(context.Background(), snapshot, domain.EditDelta{
		Edited: map[int]domain.ItemPatch{1: {UnitsLeft: intPtr(40), ItemName: strPtr("Cola (300ml)")}},
	})

	require.True(t, report.OK())
	assert.Equal(t, []int64{2}, report.Updated)

	item, err := store.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Cola (300ml)", item.ItemName)
	assert.Equal(t, 40, item.UnitsLeft)
	assert.Equal(t, 120, item.UnitsSold)
	assert.True(t, decimal.NewFromInt(40).Equal(item.Price))
}

func TestApply_EditIsIdempotent(t *testing.T) {
	store, snapshot := seededStore(t)
	engine := NewEngine(store, nil)
	delta := domain.EditDelta{
		Edited: map[int]domain.ItemPatch{0: {UnitsLeft: intPtr(2), Description: strPtr("restock soon")}},
	}

	engine.Apply(context.Background(), snapshot, delta)
	once := allItems(t, store)
	engine.Apply(context.Background(), snapshot, delta)

	assert.Equal(t, once, allItems(t, store))
}

func TestApply_AdditionIsNotIdempotent(t *testing.T) {
	store, snapshot := seededStore(t)
	engine := NewEngine(store, nil)
	delta := domain.EditDelta{Added: []domain.ItemPatch{{ItemName: strPtr("Green Tea")}}}

	first := engine.Apply(context.Background(), snapshot, delta)
	second := engine.Apply(context.Background(), snapshot, delta)

	require.Len(t, first.Inserted, 1)
	require.Len(t, second.Inserted, 1)
	assert.NotEqual(t, first.Inserted[0], second.Inserted[0])
	assert.Len(t, allItems(t, store), 14)
}

func TestApply_DeleteThenAddUsesMaxPlusOne(t *testing.T) {
	store, snapshot := seededStore(t)
	engine := NewEngine(store, nil)

	report := engine.Apply(context.Background(), snapshot, domain.EditDelta{Deleted: []int{4}})
	require.Equal(t, []int64{5}, report.Deleted)

	items := allItems(t, store)
	assert.Len(t, items, 11)
	for _, item := range items {
		assert.NotEqual(t, int64(5), item.ID)
	}

	fresh := domain.Snapshot(items)
	report = engine.Apply(context.Background(), fresh, domain.EditDelta{
		Added: []domain.ItemPatch{{ItemName: strPtr("Sparkling Water")}},
	})
	assert.Equal(t, []int64{13}, report.Inserted)
}

func TestApply_DeleteOfUnknownRowsIsSkipped(t *testing.T) {
	store, snapshot := seededStore(t)
	engine := NewEngine(store, nil)
	require.NoError(t, store.Delete(context.Background(), 3))

	report := engine.Apply(context.Background(), snapshot, domain.EditDelta{Deleted: []int{2, 2, 50}})

	assert.True(t, report.OK())
	assert.Empty(t, report.Deleted)
	assert.Len(t, report.Skipped, 2)
	assert.Len(t, allItems(t, store), 11)
}

func TestApply_OrderIsEditsAddsDeletes(t *testing.T) {
	base, snapshot := seededStore(t)
	store := &recordingStore{ItemStore: base}
	engine := NewEngine(store, nil)

	engine.Apply(context.Background(), snapshot, domain.EditDelta{
		Deleted: []int{0},
		Added:   []domain.ItemPatch{{ItemName: strPtr("Green Tea")}},
		Edited:  map[int]domain.ItemPatch{1: {UnitsLeft: intPtr(3)}},
	})

	assert.Equal(t, []string{"update", "insert", "delete"}, store.calls)
}

func TestApply_FailuresDoNotAbortBatch(t *testing.T) {
	base, snapshot := seededStore(t)
	store := &failingStore{ItemStore: base, failID: 1}
	engine := NewEngine(store, nil)

	report := engine.Apply(context.Background(), snapshot, domain.EditDelta{
		Edited: map[int]domain.ItemPatch{
			0: {UnitsLeft: intPtr(1)},
			1: {UnitsLeft: intPtr(-3)},
			2: {UnitsLeft: intPtr(7)},
		},
		Added: []domain.ItemPatch{
			{UnitsLeft: intPtr(4)},
			{ItemName: strPtr("Green Tea")},
		},
		Deleted: []int{11},
	})

	assert.False(t, report.OK())
	require.Len(t, report.Failed, 3)
	assert.Equal(t, OpEdit, report.Failed[0].Op)
	assert.Equal(t, OpEdit, report.Failed[1].Op)
	assert.True(t, errors.Is(report.Failed[1], domain.ErrInvalidItem))
	assert.Equal(t, OpAdd, report.Failed[2].Op)
	assert.True(t, errors.Is(report.Failed[2], domain.ErrInvalidItem))

	assert.Equal(t, []int64{3}, report.Updated)
	assert.Equal(t, []int64{13}, report.Inserted)
	assert.Equal(t, []int64{12}, report.Deleted)
}

func TestInsert_RetriesOnIDCollision(t *testing.T) {
	base, _ := seededStore(t)
	store := &racingStore{ItemStore: base, steals: 2}
	engine := NewEngine(store, nil)

	id, err := engine.Insert(context.Background(), domain.InventoryItem{ItemName: "Green Tea"})

	require.NoError(t, err)
	assert.Equal(t, int64(15), id)

	ids := make(map[int64]bool)
	for _, item := range allItems(t, base) {
		assert.False(t, ids[item.ID], "duplicate id %d", item.ID)
		ids[item.ID] = true
	}
}

func TestInsert_GivesUpAfterMaxAttempts(t *testing.T) {
	base, _ := seededStore(t)
	store := &racingStore{ItemStore: base, steals: DefaultMaxInsertAttempts}
	engine := NewEngine(store, nil)

	_, err := engine.Insert(context.Background(), domain.InventoryItem{ItemName: "Green Tea"})

	assert.True(t, errors.Is(err, ErrIDAllocation))
}
