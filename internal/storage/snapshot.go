package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
)

const snapshotContentType = "application/json"

// SnapshotArchive stores inventory snapshots as JSON objects.
type SnapshotArchive struct {
	store ObjectStorage
}

func NewSnapshotArchive(store ObjectStorage) *SnapshotArchive {
	return &SnapshotArchive{store: store}
}

// Save uploads items under key.
func (a *SnapshotArchive) Save(ctx context.Context, key string, items []domain.InventoryItem) error {
	var buf bytes.Buffer
	if err := domain.EncodeItems(&buf, items); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return a.store.PutObject(ctx, key, buf.Bytes(), snapshotContentType)
}

// Load downloads and validates the snapshot stored under key. Unknown fields
// are rejected the same way request bodies are, and rows must carry distinct
// positive ids so the snapshot can seed a store.
func (a *SnapshotArchive) Load(ctx context.Context, key string) ([]domain.InventoryItem, error) {
	data, err := a.store.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}

	var items []domain.InventoryItem
	if err := domain.DecodeStrict(bytes.NewReader(data), &items); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	if err := domain.ValidateSeed(items); err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", key, err)
	}
	return items, nil
}

// List returns the keys of archived snapshots under prefix.
func (a *SnapshotArchive) List(ctx context.Context, prefix string) ([]ObjectInfo, error) {
	return a.store.ListObjects(ctx, prefix)
}
