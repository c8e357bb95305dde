package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// BillingPeriod is the unit a plan bills in.
type BillingPeriod string

const (
	BillingPeriodDaily   BillingPeriod = "daily"
	BillingPeriodWeekly  BillingPeriod = "weekly"
	BillingPeriodMonthly BillingPeriod = "monthly"
	BillingPeriodYearly  BillingPeriod = "yearly"
)

// Advance moves t forward by interval billing periods.
func (p BillingPeriod) Advance(t time.Time, interval int) time.Time {
	if interval < 1 {
		interval = 1
	}
	switch p {
	case BillingPeriodDaily:
		return t.AddDate(0, 0, interval)
	case BillingPeriodWeekly:
		return t.AddDate(0, 0, 7*interval)
	case BillingPeriodMonthly:
		return t.AddDate(0, interval, 0)
	case BillingPeriodYearly:
		return t.AddDate(interval, 0, 0)
	default:
		return t
	}
}

// Plan is catalog reference data. Subscriptions snapshot its price at
// creation and never read it back afterwards.
type Plan struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	Code            string          `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Name            string          `gorm:"type:text;not null" json:"name"`
	Price           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	BillingPeriod   BillingPeriod   `gorm:"type:text;not null" json:"billing_period"`
	BillingInterval int             `gorm:"not null;default:1" json:"billing_interval"`
	Active          bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Plan) TableName() string { return "plans" }

func (p *Plan) Validate() error {
	if p.Name == "" {
		return ErrInvalidName
	}
	if p.Price.IsNegative() {
		return ErrInvalidPrice
	}
	switch p.BillingPeriod {
	case BillingPeriodDaily, BillingPeriodWeekly, BillingPeriodMonthly, BillingPeriodYearly:
	default:
		return ErrInvalidBillingPeriod
	}
	if p.BillingInterval < 1 {
		return ErrInvalidBillingInterval
	}
	return nil
}
