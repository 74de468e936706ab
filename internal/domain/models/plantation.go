package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plantation is a block of oil palms managed as one unit.
type Plantation struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	Name         string          `json:"name" gorm:"size:255;not null;uniqueIndex"`
	Area         decimal.Decimal `json:"area" gorm:"type:decimal(10,2);not null"`
	PlantingDate Date            `json:"planting_date" gorm:"not null"`
	TreeCount    int             `json:"tree_count" gorm:"not null"`
	Location     string          `json:"location" gorm:"size:255;not null"`
	Description  string          `json:"description" gorm:"type:text"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Validate checks field constraints against the given calendar day.
func (p *Plantation) Validate(today Date) error {
	if err := firstError(
		checkText("name", p.Name, maxTextLength),
		checkPositive("area", p.Area),
		checkDecimal("area", p.Area, DigitsQuantity),
		checkPastDate("planting_date", p.PlantingDate, today),
		checkText("location", p.Location, maxTextLength),
	); err != nil {
		return err
	}
	if p.TreeCount < 1 {
		return NewValidationError("tree_count", "must be at least 1")
	}
	return nil
}
