package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/food-order-api/internal/dto"
	"github.com/flicky/food-order-api/internal/model"
	"github.com/flicky/food-order-api/internal/repository"
)

// MaxLineQuantity caps a single cart line.
const MaxLineQuantity = 999

// CartEntry is one requested addition. Quantity must be positive.
type CartEntry struct {
	MenuItemID uuid.UUID
	Quantity   int
}

type CartService struct {
	tx       repository.TxManager
	cartRepo repository.CartRepository
	catalog  Catalog
}

func NewCartService(tx repository.TxManager, cartRepo repository.CartRepository, catalog Catalog) *CartService {
	return &CartService{tx: tx, cartRepo: cartRepo, catalog: catalog}
}

// GetCart returns the user's cart priced at current menu prices.
func (s *CartService) GetCart(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	prices, err := s.catalog.FindMany(ctx, cartItemIDs(cart.Items))
	if err != nil {
		return nil, fmt.Errorf("price cart: %w", err)
	}
	return toCartResponse(cart, prices), nil
}

// AddItems merges entries into the cart. Existing lines have their quantity
// increased, new menu items are appended in request order. Nothing is written
// unless every referenced menu item exists.
func (s *CartService) AddItems(ctx context.Context, userID uuid.UUID, entries []CartEntry) (*dto.CartResponse, error) {
	if len(entries) == 0 {
		return nil, invalidArgument("provide at least one item")
	}
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		if e.MenuItemID == uuid.Nil {
			return nil, invalidArgument("each item must include menu_item_id")
		}
		if e.Quantity < 1 {
			return nil, invalidArgument("quantity must be a positive integer")
		}
		if e.Quantity > MaxLineQuantity {
			return nil, ErrQuantityTooLarge
		}
		ids = append(ids, e.MenuItemID)
	}

	found, err := s.catalog.FindMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("find menu items: %w", err)
	}
	var missing []uuid.UUID
	for _, id := range uniqueIDs(ids) {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, menuItemsNotFound(missing)
	}

	return s.mutate(ctx, userID, func(cart *model.Cart) error {
		for _, e := range entries {
			if i := lineIndex(cart.Items, e.MenuItemID); i >= 0 {
				if cart.Items[i].Quantity+e.Quantity > MaxLineQuantity {
					return ErrQuantityTooLarge
				}
				cart.Items[i].Quantity += e.Quantity
				continue
			}
			cart.Items = append(cart.Items, model.CartItem{MenuItemID: e.MenuItemID, Quantity: e.Quantity})
		}
		return nil
	})
}

func (s *CartService) SetItemQuantity(ctx context.Context, userID, menuItemID uuid.UUID, quantity int) (*dto.CartResponse, error) {
	if quantity < 1 {
		return nil, invalidArgument("quantity must be a positive integer")
	}
	if quantity > MaxLineQuantity {
		return nil, ErrQuantityTooLarge
	}
	return s.mutate(ctx, userID, func(cart *model.Cart) error {
		i := lineIndex(cart.Items, menuItemID)
		if i < 0 {
			return ErrCartItemNotFound
		}
		cart.Items[i].Quantity = quantity
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID, menuItemID uuid.UUID) (*dto.CartResponse, error) {
	return s.mutate(ctx, userID, func(cart *model.Cart) error {
		i := lineIndex(cart.Items, menuItemID)
		if i < 0 {
			return ErrCartItemNotFound
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		return nil
	})
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) (*dto.CartResponse, error) {
	return s.mutate(ctx, userID, func(cart *model.Cart) error {
		cart.Items = nil
		return nil
	})
}

// mutate runs fn against the locked cart, reprices it and saves it with a
// version check, all inside one transaction.
func (s *CartService) mutate(ctx context.Context, userID uuid.UUID, fn func(cart *model.Cart) error) (*dto.CartResponse, error) {
	var resp *dto.CartResponse
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cart, err := s.cartRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		if err := fn(cart); err != nil {
			return err
		}

		prices, err := s.catalog.FindMany(ctx, cartItemIDs(cart.Items))
		if err != nil {
			return fmt.Errorf("price cart: %w", err)
		}
		cart.TotalPrice = cartTotal(cart.Items, prices)

		if err := s.cartRepo.Save(ctx, cart); err != nil {
			return fmt.Errorf("save cart: %w", translateStale(err))
		}
		resp = toCartResponse(cart, prices)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func lineIndex(items []model.CartItem, menuItemID uuid.UUID) int {
	for i, item := range items {
		if item.MenuItemID == menuItemID {
			return i
		}
	}
	return -1
}

func cartItemIDs(items []model.CartItem) []uuid.UUID {
	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.MenuItemID
	}
	return ids
}

// cartTotal prices lines at current menu prices. Lines whose menu item no
// longer exists contribute nothing.
func cartTotal(items []model.CartItem, prices map[uuid.UUID]model.MenuItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		if m, ok := prices[item.MenuItemID]; ok {
			total = total.Add(m.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
	}
	return total
}

func toCartResponse(cart *model.Cart, prices map[uuid.UUID]model.MenuItem) *dto.CartResponse {
	resp := &dto.CartResponse{
		ID:         cart.ID,
		Items:      make([]dto.CartItemResponse, 0, len(cart.Items)),
		TotalPrice: cartTotal(cart.Items, prices),
	}
	for _, item := range cart.Items {
		line := dto.CartItemResponse{
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Price:      decimal.Zero,
			LineTotal:  decimal.Zero,
		}
		if m, ok := prices[item.MenuItemID]; ok {
			line.Name = m.Name
			line.Price = m.Price
			line.LineTotal = m.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.Available = true
		}
		resp.Items = append(resp.Items, line)
	}
	return resp
}
