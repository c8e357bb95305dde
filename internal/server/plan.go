package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
)

func (s *Server) CreatePlan(c *gin.Context) {
	var req plandomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.planSvc.Create(c.Request.Context(), plandomain.CreateRequest{
		Name:            strings.TrimSpace(req.Name),
		Price:           req.Price,
		BillingPeriod:   req.BillingPeriod,
		BillingInterval: req.BillingInterval,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "plan.created", "plan", resp.ID, map[string]any{
		"plan_id": resp.ID,
		"code":    resp.Code,
		"name":    resp.Name,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPlans(c *gin.Context) {
	var query struct {
		Active string `form:"active"`
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

	resp, err := s.planSvc.List(c.Request.Context(), plandomain.ListRequest{Active: active})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPlanByID(c *gin.Context) {
	resp, err := s.planSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePlan(c *gin.Context) {
	var req plandomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = strings.TrimSpace(c.Param("id"))

	resp, err := s.planSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "plan.updated", "plan", resp.ID, map[string]any{
		"plan_id": resp.ID,
		"code":    resp.Code,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivatePlan(c *gin.Context) {
	resp, err := s.planSvc.Deactivate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.recordAudit(c, "plan.deactivated", "plan", resp.ID, map[string]any{
		"plan_id": resp.ID,
		"code":    resp.Code,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isPlanValidationError(err error) bool {
	switch {
	case errors.Is(err, plandomain.ErrInvalidID),
		errors.Is(err, plandomain.ErrInvalidName),
		errors.Is(err, plandomain.ErrInvalidPrice),
		errors.Is(err, plandomain.ErrInvalidBillingPeriod),
		errors.Is(err, plandomain.ErrInvalidBillingInterval):
		return true
	default:
		return false
	}
}
