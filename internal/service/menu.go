package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/food-order-api/internal/dto"
	"github.com/flicky/food-order-api/internal/model"
	"github.com/flicky/food-order-api/internal/repository"
)

// Catalog resolves menu items to their current price.
type Catalog interface {
	// FindByID returns nil when the item does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*model.MenuItem, error)
	// FindMany returns the subset of ids that exist, keyed by id.
	FindMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.MenuItem, error)
}

const menuItemKeyPrefix = "menu_item:"

type MenuService struct {
	menuRepo    repository.MenuItemRepository
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewMenuService(menuRepo repository.MenuItemRepository, redisClient *redis.Client, cacheTTL time.Duration) *MenuService {
	return &MenuService{menuRepo: menuRepo, redisClient: redisClient, cacheTTL: cacheTTL}
}

func (s *MenuService) Create(ctx context.Context, req dto.CreateMenuItemRequest) (*dto.MenuItemResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, invalidArgument("name is required")
	}
	if req.Price.IsNegative() {
		return nil, invalidArgument("price must not be negative")
	}
	item := &model.MenuItem{
		RestaurantID: req.RestaurantID,
		Name:         strings.TrimSpace(req.Name),
		Description:  req.Description,
		Price:        req.Price,
	}
	if err := s.menuRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}
	resp := toMenuItemResponse(item)
	return &resp, nil
}

func (s *MenuService) GetByID(ctx context.Context, id uuid.UUID) (*dto.MenuItemResponse, error) {
	item, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrMenuItemNotFound
	}
	resp := toMenuItemResponse(item)
	return &resp, nil
}

func (s *MenuService) List(ctx context.Context, req dto.ListMenuItemsRequest) (*dto.MenuItemListResponse, error) {
	var restaurantID *uuid.UUID
	if req.RestaurantID != "" {
		id, err := uuid.Parse(req.RestaurantID)
		if err != nil {
			return nil, invalidArgument("invalid restaurant_id")
		}
		restaurantID = &id
	}

	offset := (req.Page - 1) * req.Limit
	items, total, err := s.menuRepo.List(ctx, restaurantID, req.Limit, offset, req.Search)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}

	resp := make([]dto.MenuItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, toMenuItemResponse(&items[i]))
	}
	return &dto.MenuItemListResponse{MenuItems: resp, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *MenuService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateMenuItemRequest) (*dto.MenuItemResponse, error) {
	item, err := s.menuRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get menu item: %w", err)
	}
	if item == nil {
		return nil, ErrMenuItemNotFound
	}

	if req.RestaurantID != nil {
		item.RestaurantID = *req.RestaurantID
	}
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, invalidArgument("name must not be empty")
		}
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, invalidArgument("price must not be negative")
		}
		item.Price = *req.Price
	}

	if err := s.menuRepo.Update(ctx, item); err != nil {
		return nil, fmt.Errorf("update menu item: %w", err)
	}

	s.invalidateCache(ctx, id)
	resp := toMenuItemResponse(item)
	return &resp, nil
}

func (s *MenuService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.menuRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrMenuItemNotFound
		}
		return fmt.Errorf("delete menu item: %w", err)
	}
	s.invalidateCache(ctx, id)
	return nil
}

func (s *MenuService) FindByID(ctx context.Context, id uuid.UUID) (*model.MenuItem, error) {
	found, err := s.FindMany(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	item, ok := found[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

// FindMany serves what it can from Redis with a single MGET and loads the
// rest from PostgreSQL in one query, writing them back to the cache.
func (s *MenuService) FindMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.MenuItem, error) {
	ids = uniqueIDs(ids)
	found := make(map[uuid.UUID]model.MenuItem, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	missing := ids
	if s.redisClient != nil {
		keys := make([]string, len(ids))
		for i, id := range ids {
			keys[i] = menuItemKeyPrefix + id.String()
		}
		if vals, err := s.redisClient.MGet(ctx, keys...).Result(); err == nil {
			missing = make([]uuid.UUID, 0, len(ids))
			for i, v := range vals {
				var item model.MenuItem
				if raw, ok := v.(string); ok && json.Unmarshal([]byte(raw), &item) == nil {
					found[ids[i]] = item
					continue
				}
				missing = append(missing, ids[i])
			}
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	items, err := s.menuRepo.GetMany(ctx, missing)
	if err != nil {
		return nil, fmt.Errorf("get menu items: %w", err)
	}
	for _, item := range items {
		found[item.ID] = item
	}
	s.cacheItems(ctx, items)
	return found, nil
}

func (s *MenuService) cacheItems(ctx context.Context, items []model.MenuItem) {
	if s.redisClient == nil || len(items) == 0 {
		return
	}
	_, _ = s.redisClient.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, item := range items {
			if data, err := json.Marshal(item); err == nil {
				pipe.Set(ctx, menuItemKeyPrefix+item.ID.String(), data, s.cacheTTL)
			}
		}
		return nil
	})
}

func (s *MenuService) invalidateCache(ctx context.Context, id uuid.UUID) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, menuItemKeyPrefix+id.String())
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func toMenuItemResponse(item *model.MenuItem) dto.MenuItemResponse {
	return dto.MenuItemResponse{
		ID:           item.ID,
		RestaurantID: item.RestaurantID,
		Name:         item.Name,
		Description:  item.Description,
		Price:        item.Price,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}
