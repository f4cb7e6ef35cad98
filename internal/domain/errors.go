package domain

import (
	"fmt"
	"net/http"

	apperrors "github.com/tavolo/fulfillment/pkg/errors"
)

// Fixed business-rule errors. Declared as AppErrors so handlers map them to
// HTTP statuses without extra plumbing; services compare with errors.Is.
var (
	ErrEmptyOrder = &apperrors.AppError{
		Code:    "EMPTY_ORDER",
		Message: "order must contain at least one line",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}
	ErrInvalidQuantity = &apperrors.AppError{
		Code:    "INVALID_QUANTITY",
		Message: "quantity must be a non-negative integer",
		Status:  http.StatusBadRequest,
		Err:     apperrors.ErrInvalidInput,
	}
	ErrDiscountInactive = &apperrors.AppError{
		Code:    "DISCOUNT_INACTIVE",
		Message: "discount is not active",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrUnprocessable,
	}
	ErrDiscountExpired = &apperrors.AppError{
		Code:    "DISCOUNT_EXPIRED",
		Message: "discount validity window has ended",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrUnprocessable,
	}
	ErrDiscountNotYetStarted = &apperrors.AppError{
		Code:    "DISCOUNT_NOT_STARTED",
		Message: "discount validity window has not started",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrUnprocessable,
	}
	ErrDiscountNotEligible = &apperrors.AppError{
		Code:    "DISCOUNT_NOT_ELIGIBLE",
		Message: "order does not meet the discount's minimum item count",
		Status:  http.StatusUnprocessableEntity,
		Err:     apperrors.ErrUnprocessable,
	}
	ErrTransitionConflict = &apperrors.AppError{
		Code:    "TRANSITION_CONFLICT",
		Message: "order status was changed by a concurrent request",
		Status:  http.StatusConflict,
		Err:     apperrors.ErrConflict,
	}
)

// ProductNotFoundError indicates an order line referenced an unknown product.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error { return apperrors.ErrNotFound }

// ProductUnavailableError indicates a product exists but is flagged unavailable.
type ProductUnavailableError struct {
	ProductID   string
	ProductName string
}

func (e *ProductUnavailableError) Error() string {
	return fmt.Sprintf("product %q is not available", e.ProductName)
}

func (e *ProductUnavailableError) Unwrap() error { return apperrors.ErrUnprocessable }

// InsufficientStockError indicates an operation would drive stock negative.
// It carries the product and the quantity actually available.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return apperrors.ErrUnprocessable }

// InvalidTransitionError indicates a lifecycle transition that the state
// machine does not allow. It carries the current and requested statuses.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return apperrors.ErrConflict }

// DiscountNotFoundError indicates an unknown discount id.
type DiscountNotFoundError struct {
	DiscountID string
}

func (e *DiscountNotFoundError) Error() string {
	return fmt.Sprintf("discount %s not found", e.DiscountID)
}

func (e *DiscountNotFoundError) Unwrap() error { return apperrors.ErrNotFound }

// InventoryItemNotFoundError indicates a ledger operation on an unknown item.
type InventoryItemNotFoundError struct {
	InventoryItemID string
}

func (e *InventoryItemNotFoundError) Error() string {
	return fmt.Sprintf("inventory item %s not found", e.InventoryItemID)
}

func (e *InventoryItemNotFoundError) Unwrap() error { return apperrors.ErrNotFound }
