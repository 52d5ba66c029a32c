package model

import "fmt"

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderStatusPlaced         OrderStatus = "placed"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// fulfillmentFlow is the forward chain in declared order. Cancelled is not part of it.
var fulfillmentFlow = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusPreparing,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(s)
	if st == OrderStatusCancelled || st.FlowIndex() >= 0 {
		return st, nil
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

// FlowIndex returns the position in the forward chain, or -1 for cancelled
// and unknown values.
func (s OrderStatus) FlowIndex() int {
	for i, st := range fulfillmentFlow {
		if st == s {
			return i
		}
	}
	return -1
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// OrderPaymentStatus is the settlement state of an order. Paid is sticky.
type OrderPaymentStatus string

const (
	OrderPaymentPending OrderPaymentStatus = "pending"
	OrderPaymentPaid    OrderPaymentStatus = "paid"
	OrderPaymentFailed  OrderPaymentStatus = "failed"
)

// PaymentStatus is the state of a single payment attempt.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentSuccess || s == PaymentFailed
}

func ParsePaymentOutcome(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(s); st {
	case PaymentSuccess, PaymentFailed:
		return st, nil
	}
	return "", fmt.Errorf("outcome must be success or failed, got %q", s)
}

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCOD  PaymentMethod = "cod"
)

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(s); m {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodCOD:
		return m, nil
	}
	return "", fmt.Errorf("payment method must be one of card, upi, cod, got %q", s)
}
