package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/food-order-api/internal/model"
	"github.com/flicky/food-order-api/internal/repository"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type OrderService struct {
	tx        repository.TxManager
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	userRepo  repository.UserRepository
	catalog   Catalog
	events    EventPublisher
	log       *slog.Logger
}

func NewOrderService(
	tx repository.TxManager,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	catalog Catalog,
	events EventPublisher,
	log *slog.Logger,
) *OrderService {
	return &OrderService{
		tx: tx, orderRepo: orderRepo, cartRepo: cartRepo, userRepo: userRepo,
		catalog: catalog, events: events, log: log,
	}
}

// OrderPage is one page of an administrative order listing.
type OrderPage struct {
	Orders []model.Order
	Page   int
	Limit  int
	Total  int
	Pages  int
}

// PlaceOrder turns the user's cart into an order priced at current menu
// prices and empties the cart. Both happen in one transaction.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, deliveryAddress string) (*model.Order, error) {
	var order *model.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cart, err := s.cartRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return fmt.Errorf("lock cart: %w", err)
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		address, err := s.resolveAddress(ctx, userID, deliveryAddress)
		if err != nil {
			return err
		}

		prices, err := s.catalog.FindMany(ctx, cartItemIDs(cart.Items))
		if err != nil {
			return fmt.Errorf("find menu items: %w", err)
		}
		items := make([]model.OrderItem, 0, len(cart.Items))
		total := decimal.Zero
		var missing []uuid.UUID
		for _, line := range cart.Items {
			m, ok := prices[line.MenuItemID]
			if !ok {
				missing = append(missing, line.MenuItemID)
				continue
			}
			item := model.OrderItem{MenuItemID: line.MenuItemID, Quantity: line.Quantity, UnitPrice: m.Price}
			total = total.Add(item.LineTotal())
			items = append(items, item)
		}
		if len(missing) > 0 {
			return menuItemsNotFound(missing)
		}
		if !total.IsPositive() {
			return ErrInvalidTotal
		}

		order = &model.Order{
			UserID:          userID,
			Items:           items,
			TotalAmount:     total,
			DeliveryAddress: address,
			PaymentStatus:   model.OrderPaymentPending,
			Status:          model.OrderStatusPlaced,
		}
		if err := s.orderRepo.Create(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		cart.Items = nil
		cart.TotalPrice = decimal.Zero
		if err := s.cartRepo.Save(ctx, cart); err != nil {
			return fmt.Errorf("clear cart: %w", translateStale(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.events, s.log, model.EventOrderPlaced, order)
	return order, nil
}

func (s *OrderService) resolveAddress(ctx context.Context, userID uuid.UUID, requested string) (string, error) {
	if address := strings.TrimSpace(requested); address != "" {
		return address, nil
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user: %w", err)
	}
	if user == nil || strings.TrimSpace(user.Address) == "" {
		return "", ErrAddressRequired
	}
	return strings.TrimSpace(user.Address), nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// GetOrder returns one of the user's orders. Orders of other users are
// reported as not found.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) CancelOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Order, error) {
	var order *model.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if order == nil || order.UserID != userID {
			return ErrOrderNotFound
		}
		if order.Status.IsTerminal() {
			return invalidState("cannot cancel an order that is %s", order.Status)
		}
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, order.Status, model.OrderStatusCancelled); err != nil {
			return fmt.Errorf("cancel order: %w", translateStale(err))
		}
		order.Status = model.OrderStatusCancelled
		return nil
	})
	if err != nil {
		return nil, err
	}

	publishEvent(ctx, s.events, s.log, model.EventOrderCancelled, order)
	return order, nil
}

func (s *OrderService) AdminListOrders(ctx context.Context, status *model.OrderStatus, userID *uuid.UUID, page, limit int) (*OrderPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	orders, total, err := s.orderRepo.List(ctx, model.OrderFilter{
		Status: status, UserID: userID, Limit: limit, Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &OrderPage{
		Orders: orders,
		Page:   page,
		Limit:  limit,
		Total:  total,
		Pages:  (total + limit - 1) / limit,
	}, nil
}

func (s *OrderService) AdminGetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// UpdateStatus moves an order to target under the rules of NextStatus. The
// returned flag is false when the order already had that status.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, target model.OrderStatus) (*model.Order, bool, error) {
	var (
		order   *model.Order
		changed bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = s.orderRepo.GetForUpdate(ctx, orderID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if order == nil {
			return ErrOrderNotFound
		}

		var next model.OrderStatus
		next, changed, err = NextStatus(order.Status, target)
		if err != nil || !changed {
			return err
		}
		if err := s.orderRepo.UpdateStatus(ctx, order.ID, order.Status, next); err != nil {
			return fmt.Errorf("update order status: %w", translateStale(err))
		}
		order.Status = next
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if changed {
		eventType := model.EventOrderStatusChanged
		if order.Status == model.OrderStatusCancelled {
			eventType = model.EventOrderCancelled
		}
		publishEvent(ctx, s.events, s.log, eventType, order)
	}
	return order, changed, nil
}
