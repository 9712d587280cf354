package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/item"
	"github.com/fekuna/omnipos-stock-service/internal/item/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, i *model.Item) error {
	query := `
        INSERT INTO items (
            id, store_id, name, sku, description, category,
            price, quantity, reorder_threshold, is_active, created_at, updated_at
        )
        VALUES (
            :id, :store_id, :name, :sku, :description, :category,
            :price, :quantity, :reorder_threshold, :is_active, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, i)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Item, error) {
	var i model.Item
	err := r.DB.GetContext(ctx, &i, `SELECT * FROM items WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &i, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ItemFilters) ([]model.Item, error) {
	conditions := []string{}
	args := []interface{}{}

	if len(f.StoreIDs) > 0 {
		conditions = append(conditions, "store_id IN (?)")
		args = append(args, f.StoreIDs)
	}
	if f.IsActive != nil {
		conditions = append(conditions, "is_active = ?")
		args = append(args, *f.IsActive)
	}
	if f.LowStock {
		conditions = append(conditions, "quantity <= reorder_threshold")
	}
	if f.OutOfStock {
		conditions = append(conditions, "quantity = 0")
	}

	query := "SELECT * FROM items"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	switch f.SortBy {
	case "quantity":
		query += " ORDER BY quantity ASC, name ASC"
	case "name":
		query += " ORDER BY name ASC"
	default:
		query += " ORDER BY created_at ASC"
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	query = r.DB.Rebind(query)

	var items []model.Item
	if err := r.DB.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *PGRepository) Update(ctx context.Context, i *model.Item) error {
	query := `
        UPDATE items
        SET name = :name,
            description = :description,
            category = :category,
            price = :price,
            reorder_threshold = :reorder_threshold,
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, i)
	return err
}

func (r *PGRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE items SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	return err
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku string) (bool, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM items WHERE sku = $1`, sku); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) AdjustQuantity(ctx context.Context, id string, delta int) (*model.Item, error) {
	var i model.Item
	query := `
		UPDATE items
		SET quantity = quantity + $1, updated_at = NOW()
		WHERE id = $2 AND quantity + $1 >= 0
		RETURNING *
	`
	err := r.DB.GetContext(ctx, &i, query, delta, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, item.ErrInsufficientStock
		}
		return nil, err
	}
	return &i, nil
}

func (r *PGRepository) SetQuantity(ctx context.Context, id string, quantity int) (*model.Item, error) {
	var i model.Item
	query := `UPDATE items SET quantity = $1, updated_at = NOW() WHERE id = $2 RETURNING *`
	if err := r.DB.GetContext(ctx, &i, query, quantity, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, item.ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}

func (r *PGRepository) ReserveStock(ctx context.Context, items map[string]int) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		UPDATE items
		SET quantity = quantity - $1, updated_at = NOW()
		WHERE id = $2 AND is_active = TRUE AND quantity >= $1
	`

	for itemID, qty := range items {
		if qty <= 0 {
			continue
		}

		res, err := tx.ExecContext(ctx, query, qty, itemID)
		if err != nil {
			return err
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("item %s: %w", itemID, item.ErrInsufficientStock)
		}
	}

	return tx.Commit()
}
