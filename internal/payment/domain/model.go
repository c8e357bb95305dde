// Package domain contains persistence models for payments.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusConfirmed PaymentStatus = "confirmed"
)

// Payment records the settlement of a single invoice. Amount and
// customer email are copied from the invoice at registration time.
type Payment struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	Reference     string          `gorm:"type:text;not null;uniqueIndex" json:"reference"`
	InvoiceID     snowflake.ID    `gorm:"not null;uniqueIndex" json:"invoice_id"`
	CustomerID    snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	CustomerEmail string          `gorm:"type:text;not null" json:"customer_email"`
	Currency      string          `gorm:"type:text;not null" json:"currency"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Method        string          `gorm:"type:text;not null" json:"method"`
	Status        PaymentStatus   `gorm:"type:text;not null" json:"status"`
	PaidAt        time.Time       `gorm:"not null" json:"paid_at"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
