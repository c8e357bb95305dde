package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// DiscountType selects how Value is applied to a subtotal.
type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFixed   DiscountType = "fixed"
)

func (t DiscountType) Valid() bool {
	switch t {
	case DiscountTypePercent, DiscountTypeFixed:
		return true
	}
	return false
}

type Discount struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"uniqueIndex;size:64" json:"code"`
	Name      string          `gorm:"size:255" json:"name"`
	Type      DiscountType    `gorm:"size:16" json:"type"`
	Value     decimal.Decimal `gorm:"type:numeric(12,2)" json:"value"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (Discount) TableName() string {
	return "discounts"
}

func (d *Discount) Validate() error {
	if d.Name == "" {
		return ErrInvalidName
	}
	if !d.Type.Valid() {
		return ErrInvalidDiscountType
	}
	if d.Value.IsNegative() {
		return ErrInvalidDiscountValue
	}
	if d.Type == DiscountTypePercent && d.Value.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidDiscountValue
	}
	return nil
}
