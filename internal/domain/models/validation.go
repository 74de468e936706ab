package models

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const maxTextLength = 255

// Column precisions of the decimal fields, all with two decimal places.
const (
	DigitsQuantity = 10
	DigitsAmount   = 12
	decimalPlaces  = 2
)

func checkPastDate(field string, value, today Date) error {
	if value.IsZero() {
		return NewValidationError(field, "is required")
	}
	if value.After(today) {
		return NewValidationError(field, "must not be in the future")
	}
	return nil
}

func checkPositive(field string, value decimal.Decimal) error {
	if !value.IsPositive() {
		return NewValidationError(field, "must be greater than 0")
	}
	return nil
}

// checkDecimal rejects values that a decimal(digits,2) column cannot hold
// exactly.
func checkDecimal(field string, value decimal.Decimal, digits int) error {
	if !value.Equal(value.Truncate(decimalPlaces)) {
		return NewValidationError(field, "must have at most 2 decimal places")
	}
	limit := decimal.New(1, int32(digits-decimalPlaces))
	if value.Abs().GreaterThanOrEqual(limit) {
		return NewValidationError(field, "must be less than "+limit.String())
	}
	return nil
}

func checkNonNegative(field string, value decimal.Decimal) error {
	if value.IsNegative() {
		return NewValidationError(field, "must not be negative")
	}
	return nil
}

func checkText(field, value string, limit int) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return NewValidationError(field, "is required")
	}
	if limit > 0 && utf8.RuneCountInString(trimmed) > limit {
		return NewValidationError(field, "is too long")
	}
	return nil
}

func checkReference(field string, id uint) error {
	if id == 0 {
		return NewValidationError(field, "is required")
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
