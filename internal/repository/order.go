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

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// GetForUpdate loads the order and locks its row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error)
	List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error)
	// UpdateStatus and UpdatePaymentStatus only write when the stored value
	// still equals from; otherwise they return ErrStaleVersion.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.OrderPaymentStatus) error
}

type pgOrderRepo struct {
	pool *pgxpool.Pool
	tx   TxManager
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &pgOrderRepo{pool: pool, tx: NewTxManager(pool)}
}

const orderColumns = `id, user_id, total_amount, delivery_address, payment_status, order_status, created_at, updated_at`

func (r *pgOrderRepo) Create(ctx context.Context, order *model.Order) error {
	return r.tx.WithinTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.pool)

		order.ID = uuid.New()
		err := q.QueryRow(ctx,
			`INSERT INTO orders (id, user_id, total_amount, delivery_address, payment_status, order_status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_at, updated_at`,
			order.ID, order.UserID, order.TotalAmount, order.DeliveryAddress, order.PaymentStatus, order.Status,
		).Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if len(order.Items) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for i := range order.Items {
			order.Items[i].ID = uuid.New()
			order.Items[i].OrderID = order.ID
			batch.Queue(
				`INSERT INTO order_items (id, order_id, menu_item_id, quantity, unit_price, position)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				order.Items[i].ID, order.ID, order.Items[i].MenuItemID, order.Items[i].Quantity, order.Items[i].UnitPrice, i,
			)
		}
		if err := q.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
}

func (r *pgOrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.get(ctx, id, false)
}

func (r *pgOrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return r.get(ctx, id, true)
}

func (r *pgOrderRepo) get(ctx context.Context, id uuid.UUID, lock bool) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	order := &model.Order{}
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(
		&order.ID, &order.UserID, &order.TotalAmount, &order.DeliveryAddress,
		&order.PaymentStatus, &order.Status, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	orders := []model.Order{*order}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *pgOrderRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, _, err := r.List(ctx, model.OrderFilter{UserID: &userID})
	return orders, err
}

func (r *pgOrderRepo) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	const where = `WHERE ($1::text IS NULL OR order_status = $1) AND ($2::uuid IS NULL OR user_id = $2)`

	q := conn(ctx, r.pool)
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM orders `+where, filter.Status, filter.UserID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders ` + where + ` ORDER BY created_at DESC`
	args := []any{filter.Status, filter.UserID}
	if filter.Limit > 0 {
		query += ` LIMIT $3 OFFSET $4`
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.TotalAmount, &o.DeliveryAddress,
			&o.PaymentStatus, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate orders: %w", err)
	}
	rows.Close()

	if err := r.attachItems(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *pgOrderRepo) attachItems(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(orders))
	index := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT id, order_id, menu_item_id, quantity, unit_price FROM order_items
		 WHERE order_id = ANY($1) ORDER BY order_id, position`, ids,
	)
	if err != nil {
		return fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item model.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MenuItemID, &item.Quantity, &item.UnitPrice); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		i := index[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return rows.Err()
}

func (r *pgOrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.OrderStatus) error {
	ct, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE orders SET order_status = $3, updated_at = NOW() WHERE id = $1 AND order_status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrStaleVersion
	}
	return nil
}

func (r *pgOrderRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, from, to model.OrderPaymentStatus) error {
	ct, err := conn(ctx, r.pool).Exec(ctx,
		`UPDATE orders SET payment_status = $3, updated_at = NOW() WHERE id = $1 AND payment_status = $2`,
		id, from, to,
	)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrStaleVersion
	}
	return nil
}
