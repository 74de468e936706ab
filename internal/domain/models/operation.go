package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationKind enumerates field work categories.
type OperationKind string

const (
	OperationMaintenance   OperationKind = "maintenance"
	OperationTreatment     OperationKind = "treatment"
	OperationFertilization OperationKind = "fertilization"
	OperationOther         OperationKind = "other"
)

// OperationKinds lists every kind in display order.
var OperationKinds = []OperationKind{OperationMaintenance, OperationTreatment, OperationFertilization, OperationOther}

// Valid reports whether k is a known kind.
func (k OperationKind) Valid() bool {
	for _, known := range OperationKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Operation is a cost-bearing field activity on a plantation.
type Operation struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	PlantationID uint            `json:"plantation_id" gorm:"not null;index"`
	Plantation   *Plantation     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	Kind         OperationKind   `json:"kind" gorm:"size:20;not null"`
	Date         Date            `json:"date" gorm:"not null;index"`
	Cost         decimal.Decimal `json:"cost" gorm:"type:decimal(10,2);not null"`
	Description  string          `json:"description" gorm:"type:text;not null"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Validate checks field constraints against the given calendar day.
func (o *Operation) Validate(today Date) error {
	if err := checkReference("plantation_id", o.PlantationID); err != nil {
		return err
	}
	if !o.Kind.Valid() {
		return NewValidationError("kind", "must be one of maintenance, treatment, fertilization, other")
	}
	return firstError(
		checkPastDate("date", o.Date, today),
		checkNonNegative("cost", o.Cost),
		checkDecimal("cost", o.Cost, DigitsQuantity),
		checkText("description", o.Description, 0),
	)
}

// OperationFilter narrows operation listings. Zero fields do not filter.
type OperationFilter struct {
	PlantationID uint
	Kind         OperationKind
	Year         int
}
