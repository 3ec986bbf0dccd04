package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ReferenceItems returns the catalog a fresh store is seeded with.
func ReferenceItems() []InventoryItem {
	item := func(id int64, name string, price, cost float64, sold, left, reorder int, desc string) InventoryItem {
		return InventoryItem{
			ID:           id,
			ItemName:     name,
			Price:        decimal.NewFromFloat(price),
			CostPrice:    decimal.NewFromFloat(cost),
			UnitsSold:    sold,
			UnitsLeft:    left,
			ReorderPoint: reorder,
			Description:  desc,
		}
	}

	return []InventoryItem{
		item(1, "Bottled Water (1L)", 25.00, 10.00, 150, 25, 20, "Hydrating bottled water"),
		item(2, "Soft Drink (300ml)", 40.00, 15.00, 120, 5, 10, "Chilled carbonated soft drink"),
		item(3, "Energy Drink (250ml)", 60.00, 25.00, 30, 15, 5, "High-caffeine energy drink"),
		item(4, "Fresh Coffee (hot, large)", 80.00, 30.00, 50, 20, 5, "Freshly brewed hot coffee"),
		item(5, "Fruit Juice (200ml)", 50.00, 18.00, 40, 12, 5, "Refreshing fruit juice blend"),
		item(6, "Biscuits (Pack of 10)", 35.00, 12.00, 85, 30, 15, "Pack of delicious biscuits"),
		item(7, "Chips (50g)", 30.00, 10.00, 75, 20, 10, "Crunchy potato chips"),
		item(8, "Instant Noodles (Single Pack)", 20.00, 7.00, 100, 50, 20, "Quick-cooking instant noodles"),
		item(9, "Chocolate Bar (50g)", 40.00, 15.00, 60, 25, 8, "Delicious chocolate bar"),
		item(10, "Coconut Water (500ml)", 60.00, 20.00, 35, 10, 5, "Natural coconut water"),
		item(11, "Pulses (1kg)", 120.00, 80.00, 20, 18, 5, "Various types of pulses"),
		item(12, "Rice (1kg)", 80.00, 45.00, 15, 12, 5, "Premium quality rice"),
	}
}

// ValidateSeed checks a batch destined for an empty store. Every row must pass
// Validate and carry a positive id no other row in the batch uses.
func ValidateSeed(items []InventoryItem) error {
	seen := make(map[int64]int, len(items))
	for i, item := range items {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		if !item.HasID() {
			return fmt.Errorf("row %d: %w: id must be positive, got %d", i, ErrInvalidItem, item.ID)
		}
		if first, ok := seen[item.ID]; ok {
			return fmt.Errorf("row %d: %w: id %d already used by row %d", i, ErrDuplicateKey, item.ID, first)
		}
		seen[item.ID] = i
	}
	return nil
}
