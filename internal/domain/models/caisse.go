package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CashKind tells whether money came in or went out.
type CashKind string

const (
	CashEntry CashKind = "entry"
	CashExit  CashKind = "exit"
)

// Valid reports whether k is a known kind.
func (k CashKind) Valid() bool {
	return k == CashEntry || k == CashExit
}

// MouvementCaisse is a standalone cash book line.
type MouvementCaisse struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Date        Date            `json:"date" gorm:"not null;index"`
	Kind        CashKind        `json:"kind" gorm:"size:10;not null"`
	Amount      decimal.Decimal `json:"amount" gorm:"type:decimal(12,2);not null"`
	Description string          `json:"description" gorm:"type:text;not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (MouvementCaisse) TableName() string {
	return "cash_movements"
}

// Validate checks field constraints against the given calendar day.
func (m *MouvementCaisse) Validate(today Date) error {
	if err := checkPastDate("date", m.Date, today); err != nil {
		return err
	}
	if !m.Kind.Valid() {
		return NewValidationError("kind", "must be one of entry, exit")
	}
	return firstError(
		checkPositive("amount", m.Amount),
		checkDecimal("amount", m.Amount, DigitsAmount),
		checkText("description", m.Description, 0),
	)
}

// CashFilter narrows cash book listings. Zero fields do not filter.
type CashFilter struct {
	Kind CashKind
	From Date
	To   Date
}
