package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/flicky/food-order-api/internal/dto"
	"github.com/flicky/food-order-api/internal/repository"
)

type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) Profile(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// UpdateAddress replaces the profile address used when an order is placed
// without one.
func (s *UserService) UpdateAddress(ctx context.Context, userID uuid.UUID, address string) (*dto.UserResponse, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, invalidArgument("address must not be empty")
	}
	if err := s.userRepo.UpdateAddress(ctx, userID, address); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update address: %w", err)
	}
	return s.Profile(ctx, userID)
}
