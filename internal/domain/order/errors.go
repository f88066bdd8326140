package order

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/rpstreef/screencloud-challenge/internal/domain/money"
)

// Business rule outcomes.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrShippingCostExceeded = errors.New("shipping cost exceeded")
	ErrOrderNotFound        = errors.New("order not found")
)

// Storage faults. The service returns them unchanged.
var (
	ErrUnavailable    = errors.New("storage unavailable")
	ErrStockConflict  = errors.New("stock conflict")
	ErrDuplicateOrder = errors.New("duplicate order")
)

// InvalidInputError describes a rejected request field.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

// InsufficientStockError reports how much of an order could be sourced.
type InsufficientStockError struct {
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: requested %d, available %d", e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// ShippingCostExceededError reports a shipping cost above the allowed share
// of the order price.
type ShippingCostExceededError struct {
	ShippingCost money.Money
	Limit        money.Money
	Price        money.Money
}

func (e *ShippingCostExceededError) Error() string {
	return fmt.Sprintf("shipping cost %s exceeds limit %s for order price %s", e.ShippingCost, e.Limit, e.Price)
}

func (e *ShippingCostExceededError) Is(target error) bool { return target == ErrShippingCostExceeded }
