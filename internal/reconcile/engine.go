// Package reconcile applies edits made against an inventory snapshot to the item store.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/metrics"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository"
)

// DefaultMaxInsertAttempts bounds the allocate-and-insert loop.
const DefaultMaxInsertAttempts = 5

// ErrIDAllocation is returned when every insert attempt collided with another writer.
var ErrIDAllocation = errors.New("could not allocate a free item id")

type Op string

const (
	OpEdit   Op = "edit"
	OpAdd    Op = "add"
	OpDelete Op = "delete"
)

// Skip records an operation dropped because its row is not (or no longer) persisted.
type Skip struct {
	Op       Op     `json:"op"`
	Position int    `json:"position"`
	ID       int64  `json:"id,omitempty"`
	Reason   string `json:"reason"`
}

// OpError records a single failed operation. The rest of the batch still applies.
type OpError struct {
	Op       Op     `json:"op"`
	Position int    `json:"position"`
	ID       int64  `json:"id,omitempty"`
	Message  string `json:"error"`
	Err      error  `json:"-"`
}

func (e OpError) Error() string {
	return fmt.Sprintf("%s at position %d: %v", e.Op, e.Position, e.Err)
}

func (e OpError) Unwrap() error {
	return e.Err
}

// Report lists what a reconciliation did, per operation.
type Report struct {
	Updated  []int64   `json:"updated"`
	Inserted []int64   `json:"inserted"`
	Deleted  []int64   `json:"deleted"`
	Skipped  []Skip    `json:"skipped"`
	Failed   []OpError `json:"failed"`
}

// OK reports whether no operation failed.
func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

// Changed reports whether the store was mutated at all.
func (r *Report) Changed() bool {
	return len(r.Updated)+len(r.Inserted)+len(r.Deleted) > 0
}

type Engine struct {
	store       repository.ItemStore
	metrics     *metrics.Metrics
	maxAttempts int
}

func NewEngine(store repository.ItemStore, m *metrics.Metrics) *Engine {
	return &Engine{
		store:       store,
		metrics:     m,
		maxAttempts: DefaultMaxInsertAttempts,
	}
}

// Apply reconciles the store with delta, resolving row positions against snapshot.
// Edits run first, then additions, then deletions. Rows without an id, or whose id
// is gone from the store, are skipped. A failing operation never aborts the batch.
func (e *Engine) Apply(ctx context.Context, snapshot domain.Snapshot, delta domain.EditDelta) *Report {
	report := &Report{
		Updated:  make([]int64, 0),
		Inserted: make([]int64, 0),
		Deleted:  make([]int64, 0),
		Skipped:  make([]Skip, 0),
		Failed:   make([]OpError, 0),
	}

	for _, pos := range delta.EditedPositions() {
		e.applyEdit(ctx, report, snapshot, pos, delta.Edited[pos])
	}

	for pos, patch := range delta.Added {
		e.applyAdd(ctx, report, pos, patch)
	}

	for _, pos := range delta.DeletedPositions() {
		e.applyDelete(ctx, report, snapshot, pos)
	}

	log.Info().
		Int("updated", len(report.Updated)).
		Int("inserted", len(report.Inserted)).
		Int("deleted", len(report.Deleted)).
		Int("skipped", len(report.Skipped)).
		Int("failed", len(report.Failed)).
		Msg("reconciliation applied")

	return report
}

func (e *Engine) applyEdit(ctx context.Context, report *Report, snapshot domain.Snapshot, pos int, patch domain.ItemPatch) {
	id, ok := snapshot.IDAt(pos)
	if !ok {
		e.skip(report, Skip{Op: OpEdit, Position: pos, Reason: "row is not persisted"})
		return
	}

	if _, err := e.store.FindByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			e.skip(report, Skip{Op: OpEdit, Position: pos, ID: id, Reason: "item no longer in store"})
			return
		}
		e.fail(report, OpEdit, pos, id, err)
		return
	}

	merged := domain.PatchFromItem(snapshot[pos]).Overlay(patch)
	candidate := merged.ApplyTo(domain.InventoryItem{ID: id})
	if err := candidate.Validate(); err != nil {
		e.fail(report, OpEdit, pos, id, err)
		return
	}

	if err := e.store.Update(ctx, id, merged); err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			e.skip(report, Skip{Op: OpEdit, Position: pos, ID: id, Reason: "item no longer in store"})
			return
		}
		e.fail(report, OpEdit, pos, id, err)
		return
	}

	report.Updated = append(report.Updated, id)
	e.metrics.ObserveReconcile(string(OpEdit), metrics.OutcomeApplied)
}

func (e *Engine) applyAdd(ctx context.Context, report *Report, pos int, patch domain.ItemPatch) {
	item := patch.NewItem()
	if err := item.Validate(); err != nil {
		e.fail(report, OpAdd, pos, 0, err)
		return
	}

	id, err := e.Insert(ctx, item)
	if err != nil {
		e.fail(report, OpAdd, pos, 0, err)
		return
	}

	report.Inserted = append(report.Inserted, id)
	e.metrics.ObserveReconcile(string(OpAdd), metrics.OutcomeApplied)
}

func (e *Engine) applyDelete(ctx context.Context, report *Report, snapshot domain.Snapshot, pos int) {
	id, ok := snapshot.IDAt(pos)
	if !ok {
		e.skip(report, Skip{Op: OpDelete, Position: pos, Reason: "row is not persisted"})
		return
	}

	if err := e.store.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			e.skip(report, Skip{Op: OpDelete, Position: pos, ID: id, Reason: "item no longer in store"})
			return
		}
		e.fail(report, OpDelete, pos, id, err)
		return
	}

	report.Deleted = append(report.Deleted, id)
	e.metrics.ObserveReconcile(string(OpDelete), metrics.OutcomeApplied)
}

// Insert stores item under the next free id and returns that id. The id is read
// from the store right before each attempt; a duplicate key means another writer
// won the id, so it is recomputed and the insert retried.
func (e *Engine) Insert(ctx context.Context, item domain.InventoryItem) (int64, error) {
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		max, ok, err := e.store.MaxID(ctx)
		if err != nil {
			return 0, err
		}

		item.ID = 1
		if ok {
			item.ID = max + 1
		}

		err = e.store.Insert(ctx, item)
		if err == nil {
			return item.ID, nil
		}
		if !errors.Is(err, domain.ErrDuplicateKey) {
			return 0, err
		}

		e.metrics.ObserveIDCollision()
		log.Warn().Int64("id", item.ID).Int("attempt", attempt).Msg("item id taken by another writer, retrying")
	}
	return 0, ErrIDAllocation
}

func (e *Engine) skip(report *Report, s Skip) {
	report.Skipped = append(report.Skipped, s)
	e.metrics.ObserveReconcile(string(s.Op), metrics.OutcomeSkipped)
	log.Warn().
		Str("op", string(s.Op)).
		Int("position", s.Position).
		Int64("id", s.ID).
		Str("reason", s.Reason).
		Msg("reconciliation skipped row")
}

func (e *Engine) fail(report *Report, op Op, pos int, id int64, err error) {
	report.Failed = append(report.Failed, OpError{Op: op, Position: pos, ID: id, Message: err.Error(), Err: err})
	e.metrics.ObserveReconcile(string(op), metrics.OutcomeFailed)
	log.Warn().
		Err(err).
		Str("op", string(op)).
		Int("position", pos).
		Int64("id", id).
		Msg("reconciliation operation failed")
}
