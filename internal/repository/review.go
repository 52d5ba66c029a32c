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

type ReviewRepository interface {
	// Upsert writes the user's review of a restaurant, replacing rating and
	// comment of an existing one. created reports whether a new row was inserted.
	Upsert(ctx context.Context, review *model.Review) (created bool, err error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, limit, offset int) ([]model.Review, int, error)
}

type pgReviewRepo struct{ pool *pgxpool.Pool }

func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &pgReviewRepo{pool: pool}
}

const reviewSelect = `SELECT r.id, r.user_id, u.name, r.restaurant_id, r.rating, r.comment, r.created_at, r.updated_at
	FROM reviews r JOIN users u ON u.id = r.user_id`

func (r *pgReviewRepo) Upsert(ctx context.Context, review *model.Review) (bool, error) {
	var created bool
	// xmax is zero only for a freshly inserted row.
	err := conn(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO reviews (id, user_id, restaurant_id, rating, comment, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		 ON CONFLICT (user_id, restaurant_id)
		 DO UPDATE SET rating = EXCLUDED.rating, comment = EXCLUDED.comment, updated_at = NOW()
		 RETURNING id, created_at, updated_at, (xmax = 0)`,
		uuid.New(), review.UserID, review.RestaurantID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upsert review: %w", err)
	}
	return created, nil
}

func (r *pgReviewRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	rv := &model.Review{}
	err := conn(ctx, r.pool).QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id).Scan(
		&rv.ID, &rv.UserID, &rv.UserName, &rv.RestaurantID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return rv, nil
}

func (r *pgReviewRepo) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, limit, offset int) ([]model.Review, int, error) {
	q := conn(ctx, r.pool)

	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE restaurant_id = $1`, restaurantID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}

	rows, err := q.Query(ctx,
		reviewSelect+` WHERE r.restaurant_id = $1 ORDER BY r.created_at DESC, r.id LIMIT $2 OFFSET $3`,
		restaurantID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []model.Review
	for rows.Next() {
		var rv model.Review
		if err := rows.Scan(&rv.ID, &rv.UserID, &rv.UserName, &rv.RestaurantID, &rv.Rating, &rv.Comment, &rv.CreatedAt, &rv.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, total, rows.Err()
}
