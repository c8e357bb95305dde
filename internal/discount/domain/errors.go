package domain

import "errors"

var (
	ErrInvalidID            = errors.New("invalid_discount_id")
	ErrInvalidName          = errors.New("invalid_discount_name")
	ErrInvalidDiscountType  = errors.New("invalid_discount_type")
	ErrInvalidDiscountValue = errors.New("invalid_discount_value")
	ErrNotFound             = errors.New("discount_not_found")
	ErrPermissionDenied     = errors.New("discount_permission_denied")
)
