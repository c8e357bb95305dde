package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type CreateRequest struct {
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	BillingPeriod   BillingPeriod   `json:"billing_period"`
	BillingInterval *int            `json:"billing_interval,omitempty"`
}

type UpdateRequest struct {
	ID              string           `json:"id"`
	Name            *string          `json:"name,omitempty"`
	Price           *decimal.Decimal `json:"price,omitempty"`
	BillingPeriod   *BillingPeriod   `json:"billing_period,omitempty"`
	BillingInterval *int             `json:"billing_interval,omitempty"`
}

type ListRequest struct {
	Active *bool
}

type Response struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	BillingPeriod   BillingPeriod   `json:"billing_period"`
	BillingInterval int             `json:"billing_interval"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Deactivate(ctx context.Context, id string) (*Response, error)
}

var (
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidName            = errors.New("invalid_name")
	ErrInvalidPrice           = errors.New("invalid_price")
	ErrInvalidBillingPeriod   = errors.New("invalid_billing_period")
	ErrInvalidBillingInterval = errors.New("invalid_billing_interval")
	ErrPermissionDenied       = errors.New("permission_denied")
	ErrNotFound               = errors.New("not_found")
)
