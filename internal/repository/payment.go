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

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error)
	ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error)
	// Settle writes status, transaction id and paid_at when the stored
	// status still equals from; otherwise it returns ErrStaleVersion.
	Settle(ctx context.Context, payment *model.Payment, from model.PaymentStatus) error
}

type pgPaymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &pgPaymentRepo{pool: pool}
}

const paymentColumns = `id, order_id, method, transaction_id, status, paid_at, created_at, updated_at`

func (r *pgPaymentRepo) Create(ctx context.Context, p *model.Payment) error {
	p.ID = uuid.New()
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO payments (id, order_id, method, transaction_id, status, paid_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW()) RETURNING created_at, updated_at`,
		p.ID, p.OrderID, p.Method, p.TransactionID, p.Status, p.PaidAt,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *pgPaymentRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	p := &model.Payment{}
	err := conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id,
	).Scan(&p.ID, &p.OrderID, &p.Method, &p.TransactionID, &p.Status, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func (r *pgPaymentRepo) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	rows, err := conn(ctx, r.pool).Query(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at DESC`, orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.Method, &p.TransactionID, &p.Status, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *pgPaymentRepo) Settle(ctx context.Context, p *model.Payment, from model.PaymentStatus) error {
	err := conn(ctx, r.pool).QueryRow(ctx,
		`UPDATE payments SET status = $3, transaction_id = $4, paid_at = $5, updated_at = NOW()
		 WHERE id = $1 AND status = $2 RETURNING updated_at`,
		p.ID, from, p.Status, p.TransactionID, p.PaidAt,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStaleVersion
		}
		return fmt.Errorf("settle payment: %w", err)
	}
	return nil
}
