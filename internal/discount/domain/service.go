package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	GetByID(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Disable(ctx context.Context, id string) (*Response, error)
}

type ListRequest struct {
	Code    string
	Active  *bool
	SortBy  string
	OrderBy string
}

type CreateRequest struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Type   DiscountType    `json:"type"`
	Value  decimal.Decimal `json:"value"`
	Active *bool           `json:"active,omitempty"`
}

type UpdateRequest struct {
	ID    string           `json:"id"`
	Name  *string          `json:"name,omitempty"`
	Value *decimal.Decimal `json:"value,omitempty"`
}

type Response struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Type      DiscountType    `json:"type"`
	Value     decimal.Decimal `json:"value"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
