package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TaxKind represents how a tax is expressed.
type TaxKind string

const (
	TaxKindPercent TaxKind = "percent"
	TaxKindFixed   TaxKind = "fixed"
)

// TaxDefinition is a named tax policy. Fixed-kind definitions may be
// stored for forward compatibility but the pricing calculator rejects
// them; only percent taxes participate in totals.
type TaxDefinition struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name      string          `gorm:"type:text;not null" json:"name"`
	Kind      TaxKind         `gorm:"type:text;not null" json:"kind"`
	Percent   decimal.Decimal `gorm:"type:numeric(5,2);not null" json:"percent"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (TaxDefinition) TableName() string { return "tax_definitions" }

func (t *TaxDefinition) Validate() error {
	if t.Name == "" {
		return ErrInvalidName
	}
	if t.Kind != TaxKindPercent && t.Kind != TaxKindFixed {
		return ErrInvalidTaxKind
	}
	if t.Percent.IsNegative() || t.Percent.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidTaxPercent
	}
	return nil
}
