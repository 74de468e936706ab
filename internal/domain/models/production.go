package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Quality grades a harvest lot from A (excellent) to D (poor).
type Quality string

const (
	QualityA Quality = "A"
	QualityB Quality = "B"
	QualityC Quality = "C"
	QualityD Quality = "D"
)

// Qualities lists every grade in order.
var Qualities = []Quality{QualityA, QualityB, QualityC, QualityD}

// Valid reports whether q is a known grade.
func (q Quality) Valid() bool {
	switch q {
	case QualityA, QualityB, QualityC, QualityD:
		return true
	}
	return false
}

// Label returns the human readable grade name.
func (q Quality) Label() string {
	switch q {
	case QualityA:
		return "excellent"
	case QualityB:
		return "good"
	case QualityC:
		return "average"
	case QualityD:
		return "poor"
	}
	return string(q)
}

var hundred = decimal.NewFromInt(100)

// Production is one harvest lot. AvailableStock starts at TotalWeight and is
// moved afterwards only by the stock ledger.
type Production struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	PlantationID   uint            `json:"plantation_id" gorm:"not null;index"`
	Plantation     *Plantation     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	HarvestDate    Date            `json:"harvest_date" gorm:"not null;index"`
	BunchCount     int             `json:"bunch_count" gorm:"not null"`
	TotalWeight    decimal.Decimal `json:"total_weight" gorm:"type:decimal(10,2);not null"`
	AvailableStock decimal.Decimal `json:"available_stock" gorm:"type:decimal(10,2);not null"`
	Quality        Quality         `json:"quality" gorm:"size:1;not null"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Validate checks field constraints against the given calendar day.
func (p *Production) Validate(today Date) error {
	if err := firstError(
		checkReference("plantation_id", p.PlantationID),
		checkPastDate("harvest_date", p.HarvestDate, today),
		checkPositive("total_weight", p.TotalWeight),
		checkDecimal("total_weight", p.TotalWeight, DigitsQuantity),
	); err != nil {
		return err
	}
	if p.BunchCount < 1 {
		return NewValidationError("bunch_count", "must be at least 1")
	}
	if !p.Quality.Valid() {
		return NewValidationError("quality", "must be one of A, B, C, D")
	}
	return p.CheckStock()
}

// CheckStock enforces 0 <= AvailableStock <= TotalWeight.
func (p *Production) CheckStock() error {
	if p.AvailableStock.IsNegative() || p.AvailableStock.GreaterThan(p.TotalWeight) {
		return fmt.Errorf("production %d: stock %s outside [0, %s]: %w",
			p.ID, p.AvailableStock.StringFixed(2), p.TotalWeight.StringFixed(2), ErrStockInvariant)
	}
	return nil
}

// StockPercentage is the share of the harvested weight still unsold.
func (p *Production) StockPercentage() decimal.Decimal {
	if !p.TotalWeight.IsPositive() {
		return decimal.Zero
	}
	return p.AvailableStock.Mul(hundred).Div(p.TotalWeight).Round(2)
}

// YieldPerTree divides the harvested weight by the plantation's tree count.
// It needs Plantation to be loaded.
func (p *Production) YieldPerTree() decimal.Decimal {
	if p.Plantation == nil || p.Plantation.TreeCount <= 0 {
		return decimal.Zero
	}
	return p.TotalWeight.Div(decimal.NewFromInt(int64(p.Plantation.TreeCount))).Round(2)
}

// ProductionView is the read representation of a lot.
type ProductionView struct {
	Production
	PlantationName  string          `json:"plantation_name"`
	QualityLabel    string          `json:"quality_label"`
	StockPercentage decimal.Decimal `json:"stock_percentage"`
	YieldPerTree    decimal.Decimal `json:"yield_per_tree"`
}

// NewProductionView derives the computed read fields.
func NewProductionView(p Production) ProductionView {
	view := ProductionView{
		Production:      p,
		QualityLabel:    p.Quality.Label(),
		StockPercentage: p.StockPercentage(),
		YieldPerTree:    p.YieldPerTree(),
	}
	if p.Plantation != nil {
		view.PlantationName = p.Plantation.Name
	}
	return view
}

// ProductionFilter narrows lot listings. Zero fields do not filter.
type ProductionFilter struct {
	PlantationID uint
	Quality      Quality
}
