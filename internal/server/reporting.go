package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reportingdomain "github.com/smallbiznis/subora/internal/reporting/domain"
)

func (s *Server) GetReportingOverview(c *gin.Context) {
	var query struct {
		Currency string `form:"currency"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reportingSvc.GetOverview(c.Request.Context(), reportingdomain.OverviewRequest{
		Currency: strings.TrimSpace(query.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReportingRevenue(c *gin.Context) {
	var query struct {
		Currency string `form:"currency"`
		Start    string `form:"start"`
		End      string `form:"end"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	start, err := parseOptionalTime(query.Start, false)
	if err != nil {
		AbortWithError(c, newValidationError("start", "invalid_start", "invalid start"))
		return
	}

	end, err := parseOptionalTime(query.End, true)
	if err != nil {
		AbortWithError(c, newValidationError("end", "invalid_end", "invalid end"))
		return
	}

	req := reportingdomain.RevenueRequest{Currency: strings.TrimSpace(query.Currency)}
	if start != nil {
		req.Start = *start
	}
	if end != nil {
		req.End = *end
	}

	resp, err := s.reportingSvc.GetRevenue(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReportingAging(c *gin.Context) {
	var query struct {
		Currency string `form:"currency"`
		AsOf     string `form:"as_of"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	asOf, err := parseOptionalTime(query.AsOf, true)
	if err != nil {
		AbortWithError(c, newValidationError("as_of", "invalid_as_of", "invalid as_of"))
		return
	}

	req := reportingdomain.AgingRequest{Currency: strings.TrimSpace(query.Currency)}
	if asOf != nil {
		req.AsOf = *asOf
	}

	resp, err := s.reportingSvc.GetAging(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
