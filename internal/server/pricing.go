package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/subora/internal/pricing"
)

type previewPricingRequest struct {
	PlanPrice decimal.Decimal `json:"plan_price"`
	Tax       *struct {
		Kind    string          `json:"kind"`
		Percent decimal.Decimal `json:"percent"`
	} `json:"tax,omitempty"`
	Discount *struct {
		Type  string          `json:"type"`
		Value decimal.Decimal `json:"value"`
	} `json:"discount,omitempty"`
}

type previewPricingResponse struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

// PreviewPricing computes totals without touching storage. Useful for
// quoting a subscription before it exists.
func (s *Server) PreviewPricing(c *gin.Context) {
	var req previewPricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var tax *pricing.TaxInput
	if req.Tax != nil {
		tax = &pricing.TaxInput{
			Kind:    pricing.TaxKind(strings.ToLower(strings.TrimSpace(req.Tax.Kind))),
			Percent: req.Tax.Percent,
		}
	}

	var discount *pricing.DiscountInput
	if req.Discount != nil {
		discount = &pricing.DiscountInput{
			Type:  pricing.DiscountType(strings.ToLower(strings.TrimSpace(req.Discount.Type))),
			Value: req.Discount.Value,
		}
	}

	totals, err := pricing.ComputeTotals(req.PlanPrice, tax, discount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": previewPricingResponse{
		Subtotal:       totals.Subtotal,
		DiscountAmount: totals.DiscountAmount,
		TaxAmount:      totals.TaxAmount,
		Total:          totals.Total,
	}})
}
