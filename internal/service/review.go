package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/flicky/food-order-api/internal/dto"
	"github.com/flicky/food-order-api/internal/model"
	"github.com/flicky/food-order-api/internal/repository"
)

const (
	minRating = 1
	maxRating = 5
)

type ReviewService struct {
	reviewRepo repository.ReviewRepository
	userRepo   repository.UserRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, userRepo repository.UserRepository) *ReviewService {
	return &ReviewService{reviewRepo: reviewRepo, userRepo: userRepo}
}

// Upsert records the user's review of a restaurant. A second review of the
// same restaurant replaces the first; created is false in that case.
func (s *ReviewService) Upsert(ctx context.Context, userID uuid.UUID, req dto.UpsertReviewRequest) (resp *dto.ReviewResponse, created bool, err error) {
	if req.RestaurantID == uuid.Nil {
		return nil, false, invalidArgument("valid restaurant_id required")
	}
	if req.Rating < minRating || req.Rating > maxRating {
		return nil, false, invalidArgument("rating must be a number %d-%d", minRating, maxRating)
	}
	comment := strings.TrimSpace(req.Comment)
	if comment == "" {
		return nil, false, invalidArgument("comment required")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, false, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, false, ErrUserNotFound
	}

	review := &model.Review{
		UserID: userID, UserName: user.Name, RestaurantID: req.RestaurantID,
		Rating: req.Rating, Comment: comment,
	}
	created, err = s.reviewRepo.Upsert(ctx, review)
	if err != nil {
		return nil, false, fmt.Errorf("save review: %w", err)
	}
	r := toReviewResponse(review)
	return &r, created, nil
}

func (s *ReviewService) GetByID(ctx context.Context, id uuid.UUID) (*dto.ReviewResponse, error) {
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get review: %w", err)
	}
	if review == nil {
		return nil, ErrReviewNotFound
	}
	r := toReviewResponse(review)
	return &r, nil
}

func (s *ReviewService) ListByRestaurant(ctx context.Context, restaurantID uuid.UUID, req dto.ListReviewsRequest) (*dto.ReviewListResponse, error) {
	reviews, total, err := s.reviewRepo.ListByRestaurant(ctx, restaurantID, req.Limit, (req.Page-1)*req.Limit)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	resp := &dto.ReviewListResponse{
		Reviews: make([]dto.ReviewResponse, 0, len(reviews)),
		Total:   total, Page: req.Page, Limit: req.Limit,
	}
	for i := range reviews {
		resp.Reviews = append(resp.Reviews, toReviewResponse(&reviews[i]))
	}
	return resp, nil
}

func toReviewResponse(r *model.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID: r.ID, UserID: r.UserID, UserName: r.UserName, RestaurantID: r.RestaurantID,
		Rating: r.Rating, Comment: r.Comment, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}
