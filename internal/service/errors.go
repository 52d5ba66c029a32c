package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/food-order-api/internal/repository"
)

// Error kinds. Every error returned for a rejected request unwraps to one of these.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidState    = errors.New("invalid state")
	ErrConflict        = errors.New("conflict")
)

// Error is a rejected request. Missing lists menu item ids that could not be found.
type Error struct {
	Kind    error
	Message string
	Missing []uuid.UUID
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func invalidArgument(format string, args ...any) error {
	return newError(ErrInvalidArgument, format, args...)
}

func invalidState(format string, args ...any) error {
	return newError(ErrInvalidState, format, args...)
}

func menuItemsNotFound(missing []uuid.UUID) error {
	return &Error{Kind: ErrNotFound, Message: "some menu items not found", Missing: missing}
}

var (
	ErrMenuItemNotFound   = &Error{Kind: ErrNotFound, Message: "menu item not found"}
	ErrCartItemNotFound   = &Error{Kind: ErrNotFound, Message: "item not in cart"}
	ErrQuantityTooLarge   = &Error{Kind: ErrInvalidArgument, Message: fmt.Sprintf("quantity must not exceed %d", MaxLineQuantity)}
	ErrEmptyCart          = &Error{Kind: ErrInvalidState, Message: "cart is empty"}
	ErrAddressRequired    = &Error{Kind: ErrInvalidArgument, Message: "delivery address required"}
	ErrInvalidTotal       = &Error{Kind: ErrInvalidState, Message: "invalid total amount"}
	ErrOrderNotFound      = &Error{Kind: ErrNotFound, Message: "order not found"}
	ErrNotOrderOwner      = &Error{Kind: ErrForbidden, Message: "not your order"}
	ErrOrderAlreadyPaid   = &Error{Kind: ErrInvalidState, Message: "order already paid"}
	ErrPaymentNotFound    = &Error{Kind: ErrNotFound, Message: "payment not found"}
	ErrNotPaymentOwner    = &Error{Kind: ErrForbidden, Message: "not your payment"}
	ErrReviewNotFound     = &Error{Kind: ErrNotFound, Message: "review not found"}
	ErrUserNotFound       = &Error{Kind: ErrNotFound, Message: "user not found"}
	ErrConcurrentUpdate   = &Error{Kind: ErrConflict, Message: "resource was modified concurrently, retry the request"}
	ErrUserAlreadyExists  = &Error{Kind: ErrConflict, Message: "user already exists"}
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// translateStale maps an optimistic-concurrency miss to ErrConcurrentUpdate.
func translateStale(err error) error {
	if errors.Is(err, repository.ErrStaleVersion) {
		return ErrConcurrentUpdate
	}
	return err
}
