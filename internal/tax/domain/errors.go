package domain

import "errors"

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidID         = errors.New("invalid_id")
	ErrNotFound          = errors.New("not_found")
	ErrInvalidTaxKind    = errors.New("invalid_tax_kind")
	ErrInvalidTaxPercent = errors.New("invalid_tax_percent")
	ErrPermissionDenied  = errors.New("permission_denied")
)
