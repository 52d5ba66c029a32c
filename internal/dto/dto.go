package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/flicky/food-order-api/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
	Address  string `json:"address" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
	Role    string    `json:"role"`
}

type UpdateAddressRequest struct {
	Address string `json:"address" binding:"required"`
}

// --- Menu ---

type CreateMenuItemRequest struct {
	RestaurantID uuid.UUID       `json:"restaurant_id" binding:"required"`
	Name         string          `json:"name" binding:"required"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price" binding:"required"`
}

type UpdateMenuItemRequest struct {
	RestaurantID *uuid.UUID       `json:"restaurant_id"`
	Name         *string          `json:"name"`
	Description  *string          `json:"description"`
	Price        *decimal.Decimal `json:"price"`
}

type ListMenuItemsRequest struct {
	Page         int    `form:"page,default=1" binding:"min=1"`
	Limit        int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search       string `form:"search"`
	RestaurantID string `form:"restaurant_id" binding:"omitempty,uuid"`
}

type MenuItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type MenuItemListResponse struct {
	MenuItems []MenuItemResponse `json:"menu_items"`
	Total     int                `json:"total"`
	Page      int                `json:"page"`
	Limit     int                `json:"limit"`
}

// --- Cart ---

// AddCartItemsRequest accepts either a single menu_item_id/quantity pair or an items batch.
// A missing quantity means 1.
type AddCartItemsRequest struct {
	MenuItemID *uuid.UUID          `json:"menu_item_id"`
	Quantity   *int                `json:"quantity"`
	Items      []CartItemEntryBody `json:"items" binding:"omitempty,dive"`
}

type CartItemEntryBody struct {
	MenuItemID uuid.UUID `json:"menu_item_id" binding:"required"`
	Quantity   *int      `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

type CartResponse struct {
	ID         uuid.UUID          `json:"id"`
	Items      []CartItemResponse `json:"items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
}

type CartItemResponse struct {
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	LineTotal  decimal.Decimal `json:"line_total"`
	Available  bool            `json:"available"`
}

// --- Order ---

type CreateOrderRequest struct {
	DeliveryAddress string `json:"delivery_address"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type ListOrdersRequest struct {
	Page   int    `form:"page,default=1" binding:"min=1"`
	Limit  int    `form:"limit,default=20" binding:"min=1"`
	Status string `form:"status"`
	UserID string `form:"user_id" binding:"omitempty,uuid"`
}

type OrderResponse struct {
	ID              uuid.UUID                `json:"id"`
	UserID          uuid.UUID                `json:"user_id"`
	Status          model.OrderStatus        `json:"order_status"`
	PaymentStatus   model.OrderPaymentStatus `json:"payment_status"`
	TotalAmount     decimal.Decimal          `json:"total_amount"`
	DeliveryAddress string                   `json:"delivery_address"`
	Items           []OrderItemResponse      `json:"items"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

type OrderItemResponse struct {
	ID         uuid.UUID       `json:"id"`
	MenuItemID uuid.UUID       `json:"menu_item_id"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

type AdminOrderListResponse struct {
	Meta   PageMeta        `json:"meta"`
	Orders []OrderResponse `json:"orders"`
}

type UpdateOrderStatusResponse struct {
	Changed bool          `json:"changed"`
	Order   OrderResponse `json:"order"`
}

// --- Payment ---

type CreatePaymentRequest struct {
	OrderID uuid.UUID `json:"order_id" binding:"required"`
	Method  string    `json:"payment_method" binding:"required"`
}

type VerifyPaymentRequest struct {
	Status        string `json:"status" binding:"required"`
	TransactionID string `json:"transaction_id"`
}

type PaymentResponse struct {
	ID            uuid.UUID           `json:"id"`
	OrderID       uuid.UUID           `json:"order_id"`
	Method        model.PaymentMethod `json:"payment_method"`
	TransactionID string              `json:"transaction_id"`
	Status        model.PaymentStatus `json:"payment_status"`
	PaidAt        time.Time           `json:"paid_at"`
	CreatedAt     time.Time           `json:"created_at"`
}

type PaymentResultResponse struct {
	Payment            PaymentResponse          `json:"payment"`
	OrderPaymentStatus model.OrderPaymentStatus `json:"order_payment_status"`
}

// --- Review ---

type UpsertReviewRequest struct {
	RestaurantID uuid.UUID `json:"restaurant_id" binding:"required"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
}

type ListReviewsRequest struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=20" binding:"min=1,max=100"`
}

type ReviewResponse struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	UserName     string    `json:"user_name"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type ReviewListResponse struct {
	Reviews []ReviewResponse `json:"reviews"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
}
