package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/food-order-api/internal/dto"
	"github.com/flicky/food-order-api/internal/middleware"
	"github.com/flicky/food-order-api/internal/service"
)

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.svc.GetCart(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

// AddItems accepts {"menu_item_id", "quantity"} or {"items": [...]}.
func (h *CartHandler) AddItems(c *gin.Context) {
	var req dto.AddCartItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var entries []service.CartEntry
	switch {
	case len(req.Items) > 0:
		for _, item := range req.Items {
			entries = append(entries, service.CartEntry{MenuItemID: item.MenuItemID, Quantity: quantityOrOne(item.Quantity)})
		}
	case req.MenuItemID != nil:
		entries = []service.CartEntry{{MenuItemID: *req.MenuItemID, Quantity: quantityOrOne(req.Quantity)}}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "provide menu_item_id or items"})
		return
	}

	cart, err := h.svc.AddItems(c.Request.Context(), middleware.GetUserID(c), entries)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	menuItemID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cart, err := h.svc.SetItemQuantity(c.Request.Context(), middleware.GetUserID(c), menuItemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) RemoveItem(c *gin.Context) {
	menuItemID, ok := parseID(c, "id")
	if !ok {
		return
	}

	cart, err := h.svc.RemoveItem(c.Request.Context(), middleware.GetUserID(c), menuItemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *CartHandler) Clear(c *gin.Context) {
	cart, err := h.svc.Clear(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func quantityOrOne(q *int) int {
	if q == nil {
		return 1
	}
	return *q
}
