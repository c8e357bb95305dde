package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type OverviewRequest struct {
	Currency string
}

type OverviewResponse struct {
	Currency            string          `json:"currency"`
	ActiveSubscriptions int64           `json:"active_subscriptions"`
	DraftSubscriptions  int64           `json:"draft_subscriptions"`
	PendingInvoices     int64           `json:"pending_invoices"`
	PendingAmount       decimal.Decimal `json:"pending_amount"`
	PaidRevenue         decimal.Decimal `json:"paid_revenue"`
}

type RevenueRequest struct {
	Currency string
	Start    time.Time
	End      time.Time
}

type RevenueResponse struct {
	Currency string          `json:"currency"`
	Total    decimal.Decimal `json:"total"`
	Payments int64           `json:"payments"`
	HasData  bool            `json:"has_data"`
}

type AgingRequest struct {
	Currency string
	AsOf     time.Time
}

// AgingBucket groups overdue pending invoices by days past due.
type AgingBucket struct {
	Label    string          `json:"label"`
	MinDays  int             `json:"min_days"`
	MaxDays  *int            `json:"max_days,omitempty"`
	Invoices int64           `json:"invoices"`
	Amount   decimal.Decimal `json:"amount"`
}

type AgingResponse struct {
	Currency string        `json:"currency"`
	AsOf     time.Time     `json:"as_of"`
	Buckets  []AgingBucket `json:"buckets"`
}

// Service exposes read-only billing aggregates.
type Service interface {
	GetOverview(ctx context.Context, req OverviewRequest) (OverviewResponse, error)
	GetRevenue(ctx context.Context, req RevenueRequest) (RevenueResponse, error)
	GetAging(ctx context.Context, req AgingRequest) (AgingResponse, error)
}

var (
	ErrInvalidTimeRange = errors.New("invalid_time_range")
	ErrPermissionDenied = errors.New("reporting_permission_denied")
)
