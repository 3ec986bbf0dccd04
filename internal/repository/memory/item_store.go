// Package memory keeps the inventory collection in process memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository"
)

type ItemStore struct {
	mu    sync.RWMutex
	items map[int64]domain.InventoryItem
}

var _ repository.ItemStore = (*ItemStore)(nil)

func NewItemStore() *ItemStore {
	return &ItemStore{items: make(map[int64]domain.InventoryItem)}
}

func (s *ItemStore) FindAll(ctx context.Context) ([]domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.InventoryItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *ItemStore) FindByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return &item, nil
}

func (s *ItemStore) Insert(ctx context.Context, item domain.InventoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; ok {
		return domain.ErrDuplicateKey
	}
	s.items[item.ID] = item
	return nil
}

func (s *ItemStore) Update(ctx context.Context, id int64, patch domain.ItemPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	s.items[id] = patch.ApplyTo(item)
	return nil
}

func (s *ItemStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return domain.ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}

func (s *ItemStore) MaxID(ctx context.Context) (int64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.items) == 0 {
		return 0, false, nil
	}
	var max int64
	for id := range s.items {
		if id > max {
			max = id
		}
	}
	return max, true, nil
}

func (s *ItemStore) SeedIfEmpty(ctx context.Context, items []domain.InventoryItem) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) > 0 || len(items) == 0 {
		return false, nil
	}
	if err := domain.ValidateSeed(items); err != nil {
		return false, err
	}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return true, nil
}
