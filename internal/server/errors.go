package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/subora/internal/audit/domain"
	"github.com/smallbiznis/subora/internal/authorization"
	customerdomain "github.com/smallbiznis/subora/internal/customer/domain"
	discountdomain "github.com/smallbiznis/subora/internal/discount/domain"
	invoicedomain "github.com/smallbiznis/subora/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/subora/internal/payment/domain"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	"github.com/smallbiznis/subora/internal/pricing"
	reportingdomain "github.com/smallbiznis/subora/internal/reporting/domain"
	subscriptiondomain "github.com/smallbiznis/subora/internal/subscription/domain"
	taxdomain "github.com/smallbiznis/subora/internal/tax/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isPermissionError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictErrorMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrInternal):
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isPricingValidationError(err),
		isPlanValidationError(err),
		isTaxValidationError(err),
		isDiscountValidationError(err),
		isCustomerValidationError(err),
		isSubscriptionValidationError(err),
		isInvoiceValidationError(err),
		isPaymentValidationError(err),
		isAuditValidationError(err),
		errors.Is(err, reportingdomain.ErrInvalidTimeRange):
		return true
	default:
		return false
	}
}

func isPricingValidationError(err error) bool {
	switch {
	case errors.Is(err, pricing.ErrNegativePrice),
		errors.Is(err, pricing.ErrNegativeDiscount),
		errors.Is(err, pricing.ErrPercentOutOfRange),
		errors.Is(err, pricing.ErrInvalidDiscountType),
		errors.Is(err, pricing.ErrUnsupportedTaxKind):
		return true
	default:
		return false
	}
}

func isAuditValidationError(err error) bool {
	switch {
	case errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

// Permission failures surface as 403 regardless of which layer raised
// them: the casbin route gate or the ownership checks in the services.
func isPermissionError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, plandomain.ErrPermissionDenied),
		errors.Is(err, taxdomain.ErrPermissionDenied),
		errors.Is(err, discountdomain.ErrPermissionDenied),
		errors.Is(err, customerdomain.ErrPermissionDenied),
		errors.Is(err, subscriptiondomain.ErrPermissionDenied),
		errors.Is(err, invoicedomain.ErrPermissionDenied),
		errors.Is(err, paymentdomain.ErrPermissionDenied),
		errors.Is(err, reportingdomain.ErrPermissionDenied),
		errors.Is(err, auditdomain.ErrPermissionDenied):
		return true
	default:
		return false
	}
}

// Lifecycle violations map to 409: the request was well-formed but the
// resource is not in a state that permits it.
func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, subscriptiondomain.ErrInvalidTransition),
		errors.Is(err, subscriptiondomain.ErrNotDeletable),
		errors.Is(err, invoicedomain.ErrInvalidState),
		errors.Is(err, paymentdomain.ErrInvalidState):
		return true
	default:
		return false
	}
}

func conflictErrorMessage(err error) string {
	var tErr *subscriptiondomain.TransitionError
	if errors.As(err, &tErr) {
		return tErr.Error()
	}
	switch {
	case errors.Is(err, invoicedomain.ErrInvalidState),
		errors.Is(err, paymentdomain.ErrInvalidState):
		return "invalid state"
	default:
		return "conflict"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, plandomain.ErrNotFound),
		errors.Is(err, taxdomain.ErrNotFound),
		errors.Is(err, discountdomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, subscriptiondomain.ErrSubscriptionNotFound),
		errors.Is(err, subscriptiondomain.ErrCustomerNotFound),
		errors.Is(err, subscriptiondomain.ErrPlanNotFound),
		errors.Is(err, subscriptiondomain.ErrTaxNotFound),
		errors.Is(err, subscriptiondomain.ErrDiscountNotFound),
		errors.Is(err, invoicedomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrInvoiceNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}
