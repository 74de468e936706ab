package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vente is a sale drawn against one production lot.
type Vente struct {
	ID           uint            `json:"id" gorm:"primaryKey"`
	ProductionID uint            `json:"production_id" gorm:"not null;index"`
	Production   *Production     `json:"-" gorm:"constraint:OnDelete:CASCADE"`
	SaleDate     Date            `json:"sale_date" gorm:"not null;index"`
	Client       string          `json:"client" gorm:"size:255;not null;index"`
	Quantity     decimal.Decimal `json:"quantity" gorm:"type:decimal(10,2);not null"`
	UnitPrice    decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	TotalAmount  decimal.Decimal `json:"total_amount" gorm:"type:decimal(12,2);not null"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// TableName pins the table name used by the original data set.
func (Vente) TableName() string {
	return "ventes"
}

// SaleInput carries the caller supplied fields of a sale.
type SaleInput struct {
	ProductionID uint            `json:"production_id" binding:"required"`
	SaleDate     Date            `json:"sale_date"`
	Client       string          `json:"client" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
}

// Validate checks field constraints against the given calendar day.
func (in SaleInput) Validate(today Date) error {
	return firstError(
		checkReference("production_id", in.ProductionID),
		checkPastDate("sale_date", in.SaleDate, today),
		checkText("client", in.Client, maxTextLength),
		checkPositive("quantity", in.Quantity),
		checkDecimal("quantity", in.Quantity, DigitsQuantity),
		checkPositive("unit_price", in.UnitPrice),
		checkDecimal("unit_price", in.UnitPrice, DigitsQuantity),
		checkDecimal("total_amount", in.Quantity.Mul(in.UnitPrice).RoundBank(decimalPlaces), DigitsAmount),
	)
}

// SaleUpdate is a partial edit. Nil fields keep the stored value.
type SaleUpdate struct {
	ProductionID *uint            `json:"production_id"`
	SaleDate     *Date            `json:"sale_date"`
	Client       *string          `json:"client"`
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
}

// Apply merges the update over the stored sale.
func (u SaleUpdate) Apply(v Vente) SaleInput {
	in := SaleInput{
		ProductionID: v.ProductionID,
		SaleDate:     v.SaleDate,
		Client:       v.Client,
		Quantity:     v.Quantity,
		UnitPrice:    v.UnitPrice,
	}
	if u.ProductionID != nil {
		in.ProductionID = *u.ProductionID
	}
	if u.SaleDate != nil {
		in.SaleDate = *u.SaleDate
	}
	if u.Client != nil {
		in.Client = *u.Client
	}
	if u.Quantity != nil {
		in.Quantity = *u.Quantity
	}
	if u.UnitPrice != nil {
		in.UnitPrice = *u.UnitPrice
	}
	return in
}

// Full converts a complete input into an update touching every field.
func (in SaleInput) Full() SaleUpdate {
	return SaleUpdate{
		ProductionID: &in.ProductionID,
		SaleDate:     &in.SaleDate,
		Client:       &in.Client,
		Quantity:     &in.Quantity,
		UnitPrice:    &in.UnitPrice,
	}
}

// VenteView is the read representation of a sale.
type VenteView struct {
	Vente
	AveragePricePerKg decimal.Decimal `json:"average_price_per_kg"`
	RemainingStock    decimal.Decimal `json:"remaining_stock"`
}

// NewVenteView derives the computed read fields. RemainingStock needs
// Production to be loaded.
func NewVenteView(v Vente) VenteView {
	view := VenteView{Vente: v}
	if v.Quantity.IsPositive() {
		view.AveragePricePerKg = v.TotalAmount.Div(v.Quantity).Round(2)
	}
	if v.Production != nil {
		view.RemainingStock = v.Production.AvailableStock
	}
	return view
}

// VenteFilter narrows sale listings. Zero fields do not filter.
type VenteFilter struct {
	ProductionID uint
	PlantationID uint
	Client       string
	From         Date
	To           Date
}
