package domain

import (
	"context"
	"errors"
)

type RegisterPaymentRequest struct {
	InvoiceID string `json:"invoice_id"`
	Method    string `json:"method"`
}

type Service interface {
	Register(ctx context.Context, req RegisterPaymentRequest) (Payment, error)
	GetByInvoiceID(ctx context.Context, invoiceID string) (Payment, error)
}

var (
	ErrInvalidInvoice   = errors.New("invalid_invoice")
	ErrInvalidMethod    = errors.New("invalid_payment_method")
	ErrInvalidState     = errors.New("invalid_invoice_state")
	ErrInvoiceNotFound  = errors.New("invoice_not_found")
	ErrNotFound         = errors.New("payment_not_found")
	ErrPermissionDenied = errors.New("payment_permission_denied")
)
