// backend-go/internal/domain/models.go
package domain

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// InventoryItem is a single product row of the inventory table.
// ID 0 means the row has not been persisted yet; stored ids start at 1.
type InventoryItem struct {
	ID           int64           `json:"id" db:"id" validate:"gte=0"`
	ItemName     string          `json:"item_name" db:"item_name" validate:"required"`
	Price        decimal.Decimal `json:"price" db:"price" validate:"gte=0"`
	CostPrice    decimal.Decimal `json:"cost_price" db:"cost_price" validate:"gte=0"`
	UnitsSold    int             `json:"units_sold" db:"units_sold" validate:"gte=0"`
	UnitsLeft    int             `json:"units_left" db:"units_left" validate:"gte=0"`
	ReorderPoint int             `json:"reorder_point" db:"reorder_point" validate:"gte=0"`
	Description  string          `json:"description" db:"description"`
}

// HasID reports whether the row carries a store identifier.
func (i InventoryItem) HasID() bool {
	return i.ID > 0
}

// IsLowStock reports whether units left dropped below the reorder point.
func (i InventoryItem) IsLowStock() bool {
	return i.UnitsLeft < i.ReorderPoint
}

// Validate checks the record against the inventory schema.
func (i InventoryItem) Validate() error {
	if err := validate.Struct(i); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s failed %s", ErrInvalidItem, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return nil
}

// ItemPatch is a partial update of an InventoryItem. Nil fields are left untouched.
// The id is not patchable.
type ItemPatch struct {
	ItemName     *string          `json:"item_name,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	CostPrice    *decimal.Decimal `json:"cost_price,omitempty"`
	UnitsSold    *int             `json:"units_sold,omitempty"`
	UnitsLeft    *int             `json:"units_left,omitempty"`
	ReorderPoint *int             `json:"reorder_point,omitempty"`
	Description  *string          `json:"description,omitempty"`
}

// PatchFromItem returns a patch that sets every field of item.
func PatchFromItem(item InventoryItem) ItemPatch {
	name := item.ItemName
	price := item.Price
	cost := item.CostPrice
	sold := item.UnitsSold
	left := item.UnitsLeft
	reorder := item.ReorderPoint
	desc := item.Description
	return ItemPatch{
		ItemName:     &name,
		Price:        &price,
		CostPrice:    &cost,
		UnitsSold:    &sold,
		UnitsLeft:    &left,
		ReorderPoint: &reorder,
		Description:  &desc,
	}
}

// Overlay returns p with every field set in other replacing p's value.
func (p ItemPatch) Overlay(other ItemPatch) ItemPatch {
	out := p
	if other.ItemName != nil {
		out.ItemName = other.ItemName
	}
	if other.Price != nil {
		out.Price = other.Price
	}
	if other.CostPrice != nil {
		out.CostPrice = other.CostPrice
	}
	if other.UnitsSold != nil {
		out.UnitsSold = other.UnitsSold
	}
	if other.UnitsLeft != nil {
		out.UnitsLeft = other.UnitsLeft
	}
	if other.ReorderPoint != nil {
		out.ReorderPoint = other.ReorderPoint
	}
	if other.Description != nil {
		out.Description = other.Description
	}
	return out
}

// ApplyTo merges the patch into item and returns the result.
func (p ItemPatch) ApplyTo(item InventoryItem) InventoryItem {
	if p.ItemName != nil {
		item.ItemName = *p.ItemName
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.CostPrice != nil {
		item.CostPrice = *p.CostPrice
	}
	if p.UnitsSold != nil {
		item.UnitsSold = *p.UnitsSold
	}
	if p.UnitsLeft != nil {
		item.UnitsLeft = *p.UnitsLeft
	}
	if p.ReorderPoint != nil {
		item.ReorderPoint = *p.ReorderPoint
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	return item
}

// NewItem builds an unpersisted record from the patch; unset fields stay zero.
func (p ItemPatch) NewItem() InventoryItem {
	return p.ApplyTo(InventoryItem{})
}

// IsEmpty reports whether the patch sets no field.
func (p ItemPatch) IsEmpty() bool {
	return len(p.Fields()) == 0
}

// Fields lists the column names set by the patch.
func (p ItemPatch) Fields() []string {
	var fields []string
	if p.ItemName != nil {
		fields = append(fields, "item_name")
	}
	if p.Price != nil {
		fields = append(fields, "price")
	}
	if p.CostPrice != nil {
		fields = append(fields, "cost_price")
	}
	if p.UnitsSold != nil {
		fields = append(fields, "units_sold")
	}
	if p.UnitsLeft != nil {
		fields = append(fields, "units_left")
	}
	if p.ReorderPoint != nil {
		fields = append(fields, "reorder_point")
	}
	if p.Description != nil {
		fields = append(fields, "description")
	}
	return fields
}

// Snapshot is a point-in-time copy of the inventory table. Positions index rows.
type Snapshot []InventoryItem

// IDAt returns the store id of the row at pos. It reports false when the
// position is out of range or the row was never persisted.
func (s Snapshot) IDAt(pos int) (int64, bool) {
	if pos < 0 || pos >= len(s) {
		return 0, false
	}
	if !s[pos].HasID() {
		return 0, false
	}
	return s[pos].ID, true
}

// LowStock returns the rows flagged as low stock, in snapshot order.
func (s Snapshot) LowStock() []InventoryItem {
	low := make([]InventoryItem, 0)
	for _, item := range s {
		if item.IsLowStock() {
			low = append(low, item)
		}
	}
	return low
}

// EditDelta describes pending changes made against a Snapshot.
type EditDelta struct {
	Edited  map[int]ItemPatch `json:"edited"`
	Added   []ItemPatch       `json:"added"`
	Deleted []int             `json:"deleted"`
}

// EditedPositions returns the edited row positions in ascending order.
func (d EditDelta) EditedPositions() []int {
	positions := make([]int, 0, len(d.Edited))
	for pos := range d.Edited {
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}

// DeletedPositions returns the deleted row positions, ascending and without duplicates.
func (d EditDelta) DeletedPositions() []int {
	seen := make(map[int]struct{}, len(d.Deleted))
	positions := make([]int, 0, len(d.Deleted))
	for _, pos := range d.Deleted {
		if _, ok := seen[pos]; ok {
			continue
		}
		seen[pos] = struct{}{}
		positions = append(positions, pos)
	}
	sort.Ints(positions)
	return positions
}

// IsEmpty reports whether the delta carries no change at all.
func (d EditDelta) IsEmpty() bool {
	return len(d.Edited) == 0 && len(d.Added) == 0 && len(d.Deleted) == 0
}
