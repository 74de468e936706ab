package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound indicates the referenced plantation, lot, sale or movement does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock indicates a sale asks for more than the lot still holds.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStockInvariant indicates a write would push available stock outside [0, total_weight].
	ErrStockInvariant = errors.New("available stock out of bounds")

	// ErrDuplicate indicates a unique field is already taken.
	ErrDuplicate = errors.New("record already exists")
)

// ValidationError reports a rejected field value.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// NewValidationError builds a ValidationError.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError carries the balance that rejected a sale.
type InsufficientStockError struct {
	ProductionID uint
	Requested    decimal.Decimal
	Available    decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock on production %d: requested %s, available %s",
		e.ProductionID, e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

// Unwrap lets errors.Is match ErrInsufficientStock.
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
