package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	discountdomain "github.com/smallbiznis/subora/internal/discount/domain"
)

func (s *Server) CreateDiscount(c *gin.Context) {
	var req discountdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.discountSvc.Create(c.Request.Context(), discountdomain.CreateRequest{
		Code:   strings.TrimSpace(req.Code),
		Name:   strings.TrimSpace(req.Name),
		Type:   req.Type,
		Value:  req.Value,
		Active: req.Active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "discount.created", "discount", resp.ID, map[string]any{
		"discount_id": resp.ID,
		"code":        resp.Code,
		"type":        string(resp.Type),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDiscounts(c *gin.Context) {
	var query struct {
		Code    string `form:"code"`
		Active  string `form:"active"`
		SortBy  string `form:"sort_by"`
		OrderBy string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalBool(query.Active)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.discountSvc.List(c.Request.Context(), discountdomain.ListRequest{
		Code:    strings.TrimSpace(query.Code),
		Active:  active,
		SortBy:  strings.TrimSpace(query.SortBy),
		OrderBy: strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDiscountByID(c *gin.Context) {
	resp, err := s.discountSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateDiscount(c *gin.Context) {
	var req discountdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.discountSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "discount.updated", "discount", resp.ID, map[string]any{
		"discount_id": resp.ID,
		"code":        resp.Code,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisableDiscount(c *gin.Context) {
	resp, err := s.discountSvc.Disable(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "discount.disabled", "discount", resp.ID, map[string]any{
		"discount_id": resp.ID,
		"code":        resp.Code,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isDiscountValidationError(err error) bool {
	switch {
	case errors.Is(err, discountdomain.ErrInvalidID),
		errors.Is(err, discountdomain.ErrInvalidName),
		errors.Is(err, discountdomain.ErrInvalidDiscountType),
		errors.Is(err, discountdomain.ErrInvalidDiscountValue):
		return true
	default:
		return false
	}
}
