package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flicky/food-order-api/internal/model"
)

type CartRepository interface {
	// GetOrCreateCart returns the user's cart, creating an empty one on first access.
	GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	// GetForUpdate is GetOrCreateCart plus a row lock held until the
	// surrounding transaction ends.
	GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.Cart, error)
	// Save replaces the cart lines and stored total if cart.Version still
	// matches, then bumps the version. A mismatch returns ErrStaleVersion.
	Save(ctx context.Context, cart *model.Cart) error
}

type pgCartRepo struct {
	pool *pgxpool.Pool
	tx   TxManager
}

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool, tx: NewTxManager(pool)}
}

func (r *pgCartRepo) GetOrCreateCart(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return r.load(ctx, userID, false)
}

func (r *pgCartRepo) GetForUpdate(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	return r.load(ctx, userID, true)
}

func (r *pgCartRepo) load(ctx context.Context, userID uuid.UUID, lock bool) (*model.Cart, error) {
	q := conn(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO carts (id, user_id, total_price, version, created_at, updated_at)
		 VALUES ($1, $2, 0, 0, NOW(), NOW()) ON CONFLICT (user_id) DO NOTHING`,
		uuid.New(), userID,
	)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}

	query := `SELECT id, user_id, total_price, version, created_at, updated_at FROM carts WHERE user_id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	cart := &model.Cart{}
	err = q.QueryRow(ctx, query, userID).Scan(
		&cart.ID, &cart.UserID, &cart.TotalPrice, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}

	rows, err := q.Query(ctx,
		`SELECT menu_item_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY position`, cart.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.CartItem
		if err := rows.Scan(&item.MenuItemID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		cart.Items = append(cart.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return cart, nil
}

func (r *pgCartRepo) Save(ctx context.Context, cart *model.Cart) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.pool)

		ct, err := q.Exec(ctx,
			`UPDATE carts SET total_price = $3, version = version + 1, updated_at = NOW()
			 WHERE id = $1 AND version = $2`,
			cart.ID, cart.Version, cart.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("update cart: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return ErrStaleVersion
		}

		if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
			return fmt.Errorf("clear cart items: %w", err)
		}

		if len(cart.Items) > 0 {
			batch := &pgx.Batch{}
			for i, item := range cart.Items {
				batch.Queue(
					`INSERT INTO cart_items (cart_id, menu_item_id, quantity, position) VALUES ($1, $2, $3, $4)`,
					cart.ID, item.MenuItemID, item.Quantity, i,
				)
			}
			if err := q.SendBatch(ctx, batch).Close(); err != nil {
				return fmt.Errorf("insert cart items: %w", err)
			}
		}

		cart.Version++
		return nil
	})
}
