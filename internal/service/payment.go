package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/food-order-api/internal/model"
	"github.com/flicky/food-order-api/internal/repository"
)

// PaymentResult is a payment attempt together with the resulting order
// payment status.
type PaymentResult struct {
	Payment            *model.Payment
	OrderPaymentStatus model.OrderPaymentStatus
}

type PaymentService struct {
	tx          repository.TxManager
	paymentRepo repository.PaymentRepository
	orderRepo   repository.OrderRepository
	events      EventPublisher
	log         *slog.Logger
	now         func() time.Time
}

func NewPaymentService(
	tx repository.TxManager,
	paymentRepo repository.PaymentRepository,
	orderRepo repository.OrderRepository,
	events EventPublisher,
	log *slog.Logger,
) *PaymentService {
	return &PaymentService{
		tx: tx, paymentRepo: paymentRepo, orderRepo: orderRepo,
		events: events, log: log, now: time.Now,
	}
}

const transactionRefAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// newTransactionRef returns TXN-<unix millis>-<6 base36 chars>.
func newTransactionRef(now time.Time) string {
	var suffix [6]byte
	for i := range suffix {
		suffix[i] = transactionRefAlphabet[rand.Intn(len(transactionRefAlphabet))]
	}
	return "TXN-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix[:])
}

// CreatePayment records a new payment attempt. Cash on delivery settles
// immediately and marks the order paid; other methods start pending.
func (s *PaymentService) CreatePayment(ctx context.Context, userID, orderID uuid.UUID, method model.PaymentMethod) (*PaymentResult, error) {
	if _, err := model.ParsePaymentMethod(string(method)); err != nil {
		return nil, invalidArgument("payment method must be one of card, upi, cod")
	}

	var (
		order   *model.Order
		payment *model.Payment
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
		if order.UserID != userID {
			return ErrNotOrderOwner
		}
		if order.PaymentStatus == model.OrderPaymentPaid {
			return ErrOrderAlreadyPaid
		}

		now := s.now()
		payment = &model.Payment{
			OrderID:       order.ID,
			Method:        method,
			TransactionID: newTransactionRef(now),
			Status:        model.PaymentPending,
			PaidAt:        now,
		}
		if method == model.PaymentMethodCOD {
			payment.Status = model.PaymentSuccess
		}
		if err := s.paymentRepo.Create(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		if payment.Status == model.PaymentSuccess {
			if err := s.orderRepo.UpdatePaymentStatus(ctx, order.ID, order.PaymentStatus, model.OrderPaymentPaid); err != nil {
				return fmt.Errorf("mark order paid: %w", translateStale(err))
			}
			order.PaymentStatus = model.OrderPaymentPaid
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if payment.Status == model.PaymentSuccess {
		publishEvent(ctx, s.events, s.log, model.EventPaymentSettled, order)
	}
	return &PaymentResult{Payment: payment, OrderPaymentStatus: order.PaymentStatus}, nil
}

// VerifyPayment settles an attempt with the gateway outcome. A failed attempt
// can still be confirmed as success, a success attempt never reverts. Once an
// order is paid it stays paid; a failed verification never downgrades it.
// Repeating an outcome that was already applied changes nothing.
func (s *PaymentService) VerifyPayment(ctx context.Context, userID, paymentID uuid.UUID, outcome model.PaymentStatus, transactionRef string) (*PaymentResult, error) {
	if !outcome.IsTerminal() {
		return nil, invalidArgument("status must be success or failed")
	}

	var (
		order   *model.Order
		payment *model.Payment
		settled bool
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		payment, err = s.paymentRepo.GetByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("get payment: %w", err)
		}
		if payment == nil {
			return ErrPaymentNotFound
		}
		order, err = s.orderRepo.GetForUpdate(ctx, payment.OrderID)
		if err != nil {
			return fmt.Errorf("lock order: %w", err)
		}
		if order == nil {
			return newError(ErrNotFound, "related order missing")
		}
		if order.UserID != userID {
			return ErrNotPaymentOwner
		}

		// All writes to this order's payments hold the order lock, so this read is current.
		payment, err = s.paymentRepo.GetByID(ctx, paymentID)
		if err != nil {
			return fmt.Errorf("get payment: %w", err)
		}
		if payment == nil {
			return ErrPaymentNotFound
		}

		if payment.Status == model.PaymentSuccess && order.PaymentStatus == model.OrderPaymentPaid {
			return nil
		}
		// A success attempt never regresses. A failed attempt may still be confirmed as success.
		if payment.Status == outcome || payment.Status == model.PaymentSuccess {
			return nil
		}

		from := payment.Status
		payment.Status = outcome
		payment.PaidAt = s.now()
		if ref := strings.TrimSpace(transactionRef); ref != "" {
			payment.TransactionID = ref
		}
		if err := s.paymentRepo.Settle(ctx, payment, from); err != nil {
			return fmt.Errorf("settle payment: %w", translateStale(err))
		}

		next := order.PaymentStatus
		switch {
		case outcome == model.PaymentSuccess:
			next = model.OrderPaymentPaid
		case order.PaymentStatus != model.OrderPaymentPaid:
			next = model.OrderPaymentFailed
		}
		if next != order.PaymentStatus {
			if err := s.orderRepo.UpdatePaymentStatus(ctx, order.ID, order.PaymentStatus, next); err != nil {
				return fmt.Errorf("update order payment status: %w", translateStale(err))
			}
			order.PaymentStatus = next
		}
		settled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if settled {
		eventType := model.EventPaymentSettled
		if outcome == model.PaymentFailed {
			eventType = model.EventPaymentFailed
		}
		publishEvent(ctx, s.events, s.log, eventType, order)
	}
	return &PaymentResult{Payment: payment, OrderPaymentStatus: order.PaymentStatus}, nil
}

func (s *PaymentService) GetPaymentStatus(ctx context.Context, userID, paymentID uuid.UUID) (*PaymentResult, error) {
	payment, err := s.paymentRepo.GetByID(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	order, err := s.orderRepo.GetByID(ctx, payment.OrderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, newError(ErrNotFound, "related order missing")
	}
	if order.UserID != userID {
		return nil, ErrNotPaymentOwner
	}
	return &PaymentResult{Payment: payment, OrderPaymentStatus: order.PaymentStatus}, nil
}

// ListPayments returns every payment attempt of one of the user's orders,
// newest first.
func (s *PaymentService) ListPayments(ctx context.Context, userID, orderID uuid.UUID) ([]model.Payment, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	payments, err := s.paymentRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
