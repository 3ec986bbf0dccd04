package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository"
)

const uniqueViolation = "23505"

const itemColumns = "id, item_name, price, cost_price, units_sold, units_left, reorder_point, description"

// Schema creates the inventory table. The primary key makes concurrent id
// allocation fail with a unique violation rather than duplicate rows.
const Schema = `
CREATE TABLE IF NOT EXISTS inventory_items (
	id            BIGINT PRIMARY KEY,
	item_name     TEXT NOT NULL,
	price         NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (price >= 0),
	cost_price    NUMERIC(12, 2) NOT NULL DEFAULT 0 CHECK (cost_price >= 0),
	units_sold    INTEGER NOT NULL DEFAULT 0 CHECK (units_sold >= 0),
	units_left    INTEGER NOT NULL DEFAULT 0 CHECK (units_left >= 0),
	reorder_point INTEGER NOT NULL DEFAULT 0 CHECK (reorder_point >= 0),
	description   TEXT NOT NULL DEFAULT ''
)`

type ItemRepository struct {
	db *DB
}

var _ repository.ItemStore = (*ItemRepository)(nil)

func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Migrate applies the schema through any database/sql handle.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (r *ItemRepository) FindAll(ctx context.Context) ([]domain.InventoryItem, error) {
	items := make([]domain.InventoryItem, 0)
	query := "SELECT " + itemColumns + " FROM inventory_items ORDER BY id"
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	return items, nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id int64) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	query := "SELECT " + itemColumns + " FROM inventory_items WHERE id = $1"
	err := r.db.GetContext(ctx, &item, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item %d: %w", id, err)
	}
	return &item, nil
}

func (r *ItemRepository) Insert(ctx context.Context, item domain.InventoryItem) error {
	if err := insertItem(ctx, r.db.ExecContext, item); err != nil {
		return err
	}
	return nil
}

type execFunc func(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

func insertItem(ctx context.Context, exec execFunc, item domain.InventoryItem) error {
	query := `INSERT INTO inventory_items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := exec(ctx, query,
		item.ID, item.ItemName, item.Price, item.CostPrice,
		item.UnitsSold, item.UnitsLeft, item.ReorderPoint, item.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateKey
		}
		return fmt.Errorf("failed to insert item %d: %w", item.ID, err)
	}
	return nil
}

func (r *ItemRepository) Update(ctx context.Context, id int64, patch domain.ItemPatch) error {
	assignments, args := buildUpdate(patch)
	if len(assignments) == 0 {
		_, err := r.FindByID(ctx, id)
		return err
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE inventory_items SET %s WHERE id = $%d",
		strings.Join(assignments, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update item %d: %w", id, err)
	}
	return requireAffected(result)
}

// buildUpdate turns the set fields of a patch into SET assignments with positional args.
func buildUpdate(patch domain.ItemPatch) ([]string, []interface{}) {
	var (
		assignments []string
		args        []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.ItemName != nil {
		add("item_name", *patch.ItemName)
	}
	if patch.Price != nil {
		add("price", *patch.Price)
	}
	if patch.CostPrice != nil {
		add("cost_price", *patch.CostPrice)
	}
	if patch.UnitsSold != nil {
		add("units_sold", *patch.UnitsSold)
	}
	if patch.UnitsLeft != nil {
		add("units_left", *patch.UnitsLeft)
	}
	if patch.ReorderPoint != nil {
		add("reorder_point", *patch.ReorderPoint)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	return assignments, args
}

func (r *ItemRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM inventory_items WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete item %d: %w", id, err)
	}
	return requireAffected(result)
}

func (r *ItemRepository) MaxID(ctx context.Context) (int64, bool, error) {
	var max sql.NullInt64
	if err := r.db.GetContext(ctx, &max, "SELECT MAX(id) FROM inventory_items"); err != nil {
		return 0, false, fmt.Errorf("failed to read max id: %w", err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return max.Int64, true, nil
}

func (r *ItemRepository) SeedIfEmpty(ctx context.Context, items []domain.InventoryItem) (bool, error) {
	if err := domain.ValidateSeed(items); err != nil {
		return false, err
	}

	seeded := false
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		// serialize concurrent seeders on the table lock
		if _, err := tx.ExecContext(ctx, "LOCK TABLE inventory_items IN SHARE ROW EXCLUSIVE MODE"); err != nil {
			return fmt.Errorf("failed to lock inventory table: %w", err)
		}

		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM inventory_items").Scan(&count); err != nil {
			return fmt.Errorf("failed to count items: %w", err)
		}
		if count > 0 {
			return nil
		}

		for _, item := range items {
			if err := insertItem(ctx, tx.ExecContext, item); err != nil {
				return err
			}
		}
		seeded = len(items) > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return seeded, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolation
	}
	return false
}
