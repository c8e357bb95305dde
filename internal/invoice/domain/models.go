// Package domain contains persistence models for invoices.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents lifecycle states for an invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// Invoice is the settlement document raised when a subscription is
// confirmed. Amount and customer email are copied from the subscription
// at creation and never recomputed.
type Invoice struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	Number         string          `gorm:"type:text;not null;uniqueIndex" json:"number"`
	SubscriptionID snowflake.ID    `gorm:"not null;index" json:"subscription_id"`
	CustomerID     snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	CustomerEmail  string          `gorm:"type:text;not null" json:"customer_email"`
	Currency       string          `gorm:"type:text;not null" json:"currency"`
	Amount         decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	DueDate        time.Time       `gorm:"not null" json:"due_date"`
	Status         InvoiceStatus   `gorm:"type:text;not null" json:"status"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }
