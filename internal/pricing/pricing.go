// Package pricing computes subscription monetary totals. It is pure:
// no storage, no clock, no context. Callers snapshot the result onto
// subscriptions at creation time and never recompute it.
package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

type TaxKind string

const (
	TaxKindPercent TaxKind = "percent"
	TaxKindFixed   TaxKind = "fixed"
)

type DiscountType string

const (
	DiscountTypePercent DiscountType = "percent"
	DiscountTypeFixed   DiscountType = "fixed"
)

// TaxInput is the tax applied after the discount. Only percent taxes
// are supported; fixed-amount taxes are rejected, not silently zeroed.
type TaxInput struct {
	Kind    TaxKind
	Percent decimal.Decimal
}

type DiscountInput struct {
	Type  DiscountType
	Value decimal.Decimal
}

// Totals is the monetary breakdown of a subscription, all values
// rounded to 2 decimal places, half up.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

var (
	ErrNegativePrice       = errors.New("negative_price")
	ErrNegativeDiscount    = errors.New("negative_discount")
	ErrPercentOutOfRange   = errors.New("percent_out_of_range")
	ErrInvalidDiscountType = errors.New("invalid_discount_type")
	ErrUnsupportedTaxKind  = errors.New("unsupported_tax_kind")
)

var oneHundred = decimal.NewFromInt(100)

// ComputeTotals applies the discount to the plan price, taxes the
// remainder, and returns the breakdown. The discount is applied before
// tax; the taxable base never goes below zero. Invalid inputs are
// rejected, never clamped.
func ComputeTotals(planPrice decimal.Decimal, tax *TaxInput, discount *DiscountInput) (Totals, error) {
	if planPrice.IsNegative() {
		return Totals{}, ErrNegativePrice
	}
	if err := validateTax(tax); err != nil {
		return Totals{}, err
	}
	if err := validateDiscount(discount); err != nil {
		return Totals{}, err
	}

	subtotal := round2(planPrice)

	discountAmount := decimal.Zero
	if discount != nil {
		switch discount.Type {
		case DiscountTypePercent:
			discountAmount = round2(subtotal.Mul(discount.Value).Div(oneHundred))
		case DiscountTypeFixed:
			discountAmount = round2(discount.Value)
		}
	}

	taxableBase := subtotal.Sub(discountAmount)
	if taxableBase.IsNegative() {
		taxableBase = decimal.Zero
	}

	taxAmount := decimal.Zero
	if tax != nil {
		taxAmount = round2(taxableBase.Mul(tax.Percent).Div(oneHundred))
	}

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		TaxAmount:      taxAmount,
		Total:          round2(taxableBase.Add(taxAmount)),
	}, nil
}

func validateTax(tax *TaxInput) error {
	if tax == nil {
		return nil
	}
	if tax.Kind != TaxKindPercent {
		return ErrUnsupportedTaxKind
	}
	if tax.Percent.IsNegative() || tax.Percent.GreaterThan(oneHundred) {
		return ErrPercentOutOfRange
	}
	return nil
}

func validateDiscount(discount *DiscountInput) error {
	if discount == nil {
		return nil
	}
	switch discount.Type {
	case DiscountTypePercent:
		if discount.Value.IsNegative() || discount.Value.GreaterThan(oneHundred) {
			return ErrPercentOutOfRange
		}
	case DiscountTypeFixed:
		if discount.Value.IsNegative() {
			return ErrNegativeDiscount
		}
	default:
		return ErrInvalidDiscountType
	}
	return nil
}

// round2 rounds half up to 2 decimal places. Inputs here are never
// negative, so half away from zero and half up agree.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
