package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/subora/pkg/db/pagination"
)

type ListInvoiceRequest struct {
	Status         string
	SubscriptionID string
	CustomerID     string
	PageToken      string
	PageSize       int32
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type GetInvoiceRequest struct {
	ID string
}

type Service interface {
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(context.Context, GetInvoiceRequest) (Invoice, error)
	Cancel(ctx context.Context, id string) (Invoice, error)
	RenderPDF(ctx context.Context, id string) ([]byte, error)
}

var (
	ErrInvalidID        = errors.New("invalid_invoice_id")
	ErrInvalidStatus    = errors.New("invalid_invoice_status")
	ErrInvalidState     = errors.New("invalid_invoice_state")
	ErrNotFound         = errors.New("invoice_not_found")
	ErrPermissionDenied = errors.New("invoice_permission_denied")
)
