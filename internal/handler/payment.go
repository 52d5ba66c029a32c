package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/food-order-api/internal/dto"
	"github.com/flicky/food-order-api/internal/middleware"
	"github.com/flicky/food-order-api/internal/model"
	"github.com/flicky/food-order-api/internal/service"
)

type PaymentHandler struct {
	paymentService *service.PaymentService
}

func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	method, err := model.ParsePaymentMethod(req.Method)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.paymentService.CreatePayment(c.Request.Context(), middleware.GetUserID(c), req.OrderID, method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toPaymentResult(res))
}

func (h *PaymentHandler) VerifyPayment(c *gin.Context) {
	paymentID, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	outcome, err := model.ParsePaymentOutcome(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.paymentService.VerifyPayment(c.Request.Context(), middleware.GetUserID(c), paymentID, outcome, req.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResult(res))
}

func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, ok := parseID(c, "id")
	if !ok {
		return
	}

	res, err := h.paymentService.GetPaymentStatus(c.Request.Context(), middleware.GetUserID(c), paymentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResult(res))
}

func (h *PaymentHandler) ListOrderPayments(c *gin.Context) {
	orderID, ok := parseID(c, "id")
	if !ok {
		return
	}

	payments, err := h.paymentService.ListPayments(c.Request.Context(), middleware.GetUserID(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, toPaymentResponse(&payments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"payments": resp})
}

func toPaymentResult(res *service.PaymentResult) dto.PaymentResultResponse {
	return dto.PaymentResultResponse{
		Payment:            toPaymentResponse(res.Payment),
		OrderPaymentStatus: res.OrderPaymentStatus,
	}
}

func toPaymentResponse(p *model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Method:        p.Method,
		TransactionID: p.TransactionID,
		Status:        p.Status,
		PaidAt:        p.PaidAt,
		CreatedAt:     p.CreatedAt,
	}
}
