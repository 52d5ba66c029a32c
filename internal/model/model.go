package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Password  string
	Phone     string
	Address   string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type MenuItem struct {
	ID           uuid.UUID
	RestaurantID uuid.UUID
	Name         string
	Description  string
	Price        decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Review is one user's rating of a restaurant. A user has at most one review
// per restaurant. UserName is filled on reads.
type Review struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	UserName     string
	RestaurantID uuid.UUID
	Rating       int
	Comment      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Cart is the live draft of a user's order. TotalPrice is derived from
// current menu prices and is only stored as a denormalized copy.
type Cart struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Items      []CartItem
	TotalPrice decimal.Decimal
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CartItem holds at most one line per menu item within a cart.
type CartItem struct {
	MenuItemID uuid.UUID
	Quantity   int
}

// Order is a frozen financial record; only OrderStatus and PaymentStatus
// change after creation.
type Order struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Items           []OrderItem
	TotalAmount     decimal.Decimal
	DeliveryAddress string
	PaymentStatus   OrderPaymentStatus
	Status          OrderStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	MenuItemID uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type OrderFilter struct {
	Status *OrderStatus
	UserID *uuid.UUID
	Limit  int
	Offset int
}

type Payment struct {
	ID            uuid.UUID
	OrderID       uuid.UUID
	Method        PaymentMethod
	TransactionID string
	Status        PaymentStatus
	PaidAt        time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

const (
	EventOrderPlaced        = "order.placed"
	EventOrderCancelled     = "order.cancelled"
	EventOrderStatusChanged = "order.status_changed"
	EventPaymentSettled     = "payment.settled"
	EventPaymentFailed      = "payment.failed"
)

// OrderEvent is published after a committed order or payment change.
type OrderEvent struct {
	ID            uuid.UUID          `json:"id"`
	Type          string             `json:"type"`
	OrderID       uuid.UUID          `json:"order_id"`
	UserID        uuid.UUID          `json:"user_id"`
	OrderStatus   OrderStatus        `json:"order_status"`
	PaymentStatus OrderPaymentStatus `json:"payment_status"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

func NewOrderEvent(eventType string, order *Order) OrderEvent {
	return OrderEvent{
		ID:            uuid.New(),
		Type:          eventType,
		OrderID:       order.ID,
		UserID:        order.UserID,
		OrderStatus:   order.Status,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		OccurredAt:    time.Now().UTC(),
	}
}
