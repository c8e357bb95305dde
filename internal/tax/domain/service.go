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
	Name    string
	Active  *bool
	SortBy  string
	OrderBy string
}

type CreateRequest struct {
	Name    string          `json:"name"`
	Kind    TaxKind         `json:"kind"`
	Percent decimal.Decimal `json:"percent"`
	Active  *bool           `json:"active,omitempty"`
}

type UpdateRequest struct {
	ID      string           `json:"id"`
	Name    *string          `json:"name,omitempty"`
	Percent *decimal.Decimal `json:"percent,omitempty"`
}

type Response struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      TaxKind         `json:"kind"`
	Percent   decimal.Decimal `json:"percent"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
