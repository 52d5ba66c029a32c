package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/food-order-api/internal/model"
)

type MenuItemRepository interface {
	Create(ctx context.Context, item *model.MenuItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.MenuItem, error)
	GetMany(ctx context.Context, ids []uuid.UUID) ([]model.MenuItem, error)
	List(ctx context.Context, restaurantID *uuid.UUID, limit, offset int, search string) ([]model.MenuItem, int, error)
	Update(ctx context.Context, item *model.MenuItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pgMenuItemRepo struct{ pool *pgxpool.Pool }

func NewMenuItemRepository(pool *pgxpool.Pool) MenuItemRepository {
	return &pgMenuItemRepo{pool: pool}
}

const menuItemColumns = `id, restaurant_id, name, description, price, created_at, updated_at`

func (r *pgMenuItemRepo) Create(ctx context.Context, item *model.MenuItem) error {
	item.ID = uuid.New()
	query := `INSERT INTO menu_items (id, restaurant_id, name, description, price, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		item.ID, item.RestaurantID, item.Name, item.Description, item.Price,
	).Scan(&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create menu item: %w", err)
	}
	return nil
}

func (r *pgMenuItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.MenuItem, error) {
	var m model.MenuItem
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = $1`, id,
	).Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Price, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	return &m, nil
}

// GetMany returns the subset of ids that exist, in no particular order.
func (r *pgMenuItemRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]model.MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items WHERE id = ANY($1)`, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("get menu items: %w", err)
	}
	defer rows.Close()

	return scanMenuItems(rows)
}

func (r *pgMenuItemRepo) List(ctx context.Context, restaurantID *uuid.UUID, limit, offset int, search string) ([]model.MenuItem, int, error) {
	const where = `WHERE ($1::uuid IS NULL OR restaurant_id = $1)
		AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR description ILIKE '%' || $2 || '%')`

	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM menu_items `+where, restaurantID, search).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count menu items: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT `+menuItemColumns+` FROM menu_items `+where+` ORDER BY name ASC LIMIT $3 OFFSET $4`,
		restaurantID, search, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	items, err := scanMenuItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *pgMenuItemRepo) Update(ctx context.Context, item *model.MenuItem) error {
	query := `UPDATE menu_items SET restaurant_id=$2, name=$3, description=$4, price=$5, updated_at=NOW()
			  WHERE id=$1 RETURNING updated_at`
	err := conn(ctx, r.pool).QueryRow(ctx, query,
		item.ID, item.RestaurantID, item.Name, item.Description, item.Price,
	).Scan(&item.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}
	return nil
}

func (r *pgMenuItemRepo) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM menu_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete menu item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanMenuItems(rows pgx.Rows) ([]model.MenuItem, error) {
	var items []model.MenuItem
	for rows.Next() {
		var m model.MenuItem
		if err := rows.Scan(&m.ID, &m.RestaurantID, &m.Name, &m.Description, &m.Price, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate menu items: %w", err)
	}
	return items, nil
}
