// backend-go/internal/repository/item_repository.go
package repository

import (
	"context"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
)

// ItemStore is the persisted inventory collection, keyed by the logical item id.
// Implementations never expose store-internal identifiers.
type ItemStore interface {
	// FindAll returns every live record ordered by id.
	FindAll(ctx context.Context) ([]domain.InventoryItem, error)
	// FindByID returns domain.ErrItemNotFound when absent.
	FindByID(ctx context.Context, id int64) (*domain.InventoryItem, error)
	// Insert returns domain.ErrDuplicateKey when the id is taken.
	Insert(ctx context.Context, item domain.InventoryItem) error
	// Update merges the patch into the stored record. Returns domain.ErrItemNotFound when absent.
	Update(ctx context.Context, id int64, patch domain.ItemPatch) error
	// Delete returns domain.ErrItemNotFound when absent.
	Delete(ctx context.Context, id int64) error
	// MaxID reports false when the store is empty.
	MaxID(ctx context.Context) (int64, bool, error)
	// SeedIfEmpty inserts items only into an empty store and reports whether it did.
	SeedIfEmpty(ctx context.Context, items []domain.InventoryItem) (bool, error)
}
