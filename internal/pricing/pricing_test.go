package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		tax      *TaxInput
		discount *DiscountInput

		subtotal string
		discAmt  string
		taxAmt   string
		total    string
	}{
		{
			name:     "price only",
			price:    "49.99",
			subtotal: "49.99",
			discAmt:  "0",
			taxAmt:   "0",
			total:    "49.99",
		},
		{
			name:     "percent tax",
			price:    "99.00",
			tax:      &TaxInput{Kind: TaxKindPercent, Percent: dec("20")},
			subtotal: "99.00",
			discAmt:  "0",
			taxAmt:   "19.80",
			total:    "118.80",
		},
		{
			name:     "fixed discount then tax",
			price:    "100.00",
			tax:      &TaxInput{Kind: TaxKindPercent, Percent: dec("10")},
			discount: &DiscountInput{Type: DiscountTypeFixed, Value: dec("30")},
			subtotal: "100.00",
			discAmt:  "30.00",
			taxAmt:   "7.00",
			total:    "77.00",
		},
		{
			name:     "percent discount then tax",
			price:    "290.00",
			tax:      &TaxInput{Kind: TaxKindPercent, Percent: dec("20")},
			discount: &DiscountInput{Type: DiscountTypePercent, Value: dec("10")},
			subtotal: "290.00",
			discAmt:  "29.00",
			taxAmt:   "52.20",
			total:    "313.20",
		},
		{
			name:     "discount exceeds price clamps taxable base",
			price:    "50.00",
			tax:      &TaxInput{Kind: TaxKindPercent, Percent: dec("20")},
			discount: &DiscountInput{Type: DiscountTypeFixed, Value: dec("80")},
			subtotal: "50.00",
			discAmt:  "80.00",
			taxAmt:   "0",
			total:    "0",
		},
		{
			name:     "zero percent tax",
			price:    "29.00",
			tax:      &TaxInput{Kind: TaxKindPercent, Percent: dec("0")},
			subtotal: "29.00",
			discAmt:  "0",
			taxAmt:   "0",
			total:    "29.00",
		},
		{
			name:     "rounds half up",
			price:    "10.005",
			subtotal: "10.01",
			discAmt:  "0",
			taxAmt:   "0",
			total:    "10.01",
		},
		{
			name:     "tax rounds half up",
			price:    "33.33",
			tax:      &TaxInput{Kind: TaxKindPercent, Percent: dec("7.5")},
			subtotal: "33.33",
			discAmt:  "0",
			taxAmt:   "2.50", // 2.49975
			total:    "35.83",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotals(dec(tt.price), tt.tax, tt.discount)
			assert.NoError(t, err)
			assert.True(t, dec(tt.subtotal).Equal(got.Subtotal), "subtotal: want %s got %s", tt.subtotal, got.Subtotal)
			assert.True(t, dec(tt.discAmt).Equal(got.DiscountAmount), "discount: want %s got %s", tt.discAmt, got.DiscountAmount)
			assert.True(t, dec(tt.taxAmt).Equal(got.TaxAmount), "tax: want %s got %s", tt.taxAmt, got.TaxAmount)
			assert.True(t, dec(tt.total).Equal(got.Total), "total: want %s got %s", tt.total, got.Total)
		})
	}
}

func TestComputeTotals_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		tax      *TaxInput
		discount *DiscountInput
		want     error
	}{
		{name: "negative price", price: "-1", want: ErrNegativePrice},
		{name: "tax percent above 100", price: "10", tax: &TaxInput{Kind: TaxKindPercent, Percent: dec("101")}, want: ErrPercentOutOfRange},
		{name: "tax percent below 0", price: "10", tax: &TaxInput{Kind: TaxKindPercent, Percent: dec("-1")}, want: ErrPercentOutOfRange},
		{name: "fixed tax unsupported", price: "10", tax: &TaxInput{Kind: TaxKindFixed, Percent: dec("5")}, want: ErrUnsupportedTaxKind},
		{name: "negative fixed discount", price: "10", discount: &DiscountInput{Type: DiscountTypeFixed, Value: dec("-5")}, want: ErrNegativeDiscount},
		{name: "discount percent above 100", price: "10", discount: &DiscountInput{Type: DiscountTypePercent, Value: dec("120")}, want: ErrPercentOutOfRange},
		{name: "unknown discount type", price: "10", discount: &DiscountInput{Type: "bogus", Value: dec("1")}, want: ErrInvalidDiscountType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeTotals(dec(tt.price), tt.tax, tt.discount)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestComputeTotals_Deterministic(t *testing.T) {
	tax := &TaxInput{Kind: TaxKindPercent, Percent: dec("20")}
	discount := &DiscountInput{Type: DiscountTypePercent, Value: dec("10")}

	first, err := ComputeTotals(dec("99.00"), tax, discount)
	assert.NoError(t, err)

	second, err := ComputeTotals(dec("99.00"), tax, discount)
	assert.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.True(t, first.TaxAmount.Equal(second.TaxAmount))
	assert.True(t, first.DiscountAmount.Equal(second.DiscountAmount))
}
