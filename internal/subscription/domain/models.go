// Package domain contains persistence models for subscriptions.
package domain

import (
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusDraft     SubscriptionStatus = "draft"
	SubscriptionStatusQuotation SubscriptionStatus = "quotation"
	SubscriptionStatusConfirmed SubscriptionStatus = "confirmed"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusClosed    SubscriptionStatus = "closed"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubscriptionStatusClosed || s == SubscriptionStatusCancelled
}

// Subscription captures a customer's billing agreement. Monetary fields
// and the customer/plan columns are snapshots taken at creation; later
// edits to the plan, tax, or discount never change them.
type Subscription struct {
	ID              snowflake.ID             `gorm:"primaryKey" json:"id"`
	CustomerID      snowflake.ID             `gorm:"not null;index" json:"customer_id"`
	CustomerName    string                   `gorm:"type:text;not null" json:"customer_name"`
	CustomerEmail   string                   `gorm:"type:text;not null" json:"customer_email"`
	PlanID          snowflake.ID             `gorm:"not null;index" json:"plan_id"`
	PlanName        string                   `gorm:"type:text;not null" json:"plan_name"`
	TaxID           *snowflake.ID            `gorm:"index" json:"tax_id,omitempty"`
	DiscountID      *snowflake.ID            `gorm:"index" json:"discount_id,omitempty"`
	Status          SubscriptionStatus       `gorm:"type:text;not null" json:"status"`
	Currency        string                   `gorm:"type:text;not null" json:"currency"`
	Subtotal        decimal.Decimal          `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	DiscountAmount  decimal.Decimal          `gorm:"type:numeric(12,2);not null" json:"discount_amount"`
	TaxAmount       decimal.Decimal          `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	Amount          decimal.Decimal          `gorm:"type:numeric(12,2);not null" json:"amount"`
	BillingPeriod   plandomain.BillingPeriod `gorm:"type:text;not null" json:"billing_period"`
	BillingInterval int                      `gorm:"not null;default:1" json:"billing_interval"`
	StartDate       time.Time                `gorm:"not null" json:"start_date"`
	NextBillingDate time.Time                `gorm:"not null" json:"next_billing_date"`
	ConfirmedAt     *time.Time               `json:"confirmed_at,omitempty"`
	ActivatedAt     *time.Time               `json:"activated_at,omitempty"`
	ClosedAt        *time.Time               `json:"closed_at,omitempty"`
	CancelledAt     *time.Time               `json:"cancelled_at,omitempty"`
	Metadata        datatypes.JSONMap        `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt       time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// TransitionError reports a lifecycle move the state machine forbids.
// It unwraps to ErrInvalidTransition so callers can match with errors.Is.
type TransitionError struct {
	From SubscriptionStatus
	To   SubscriptionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid_transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

var transitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusDraft:     {SubscriptionStatusQuotation, SubscriptionStatusConfirmed, SubscriptionStatusCancelled},
	SubscriptionStatusQuotation: {SubscriptionStatusConfirmed, SubscriptionStatusCancelled},
	SubscriptionStatusConfirmed: {SubscriptionStatusActive, SubscriptionStatusCancelled},
	SubscriptionStatusActive:    {SubscriptionStatusClosed, SubscriptionStatusCancelled},
}

// IsTransitionAllowed reports whether current may move to target.
func IsTransitionAllowed(current, target SubscriptionStatus) bool {
	for _, allowed := range transitions[current] {
		if allowed == target {
			return true
		}
	}
	return false
}
