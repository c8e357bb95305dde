package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/subora/pkg/db/pagination"
)

type ListSubscriptionRequest struct {
	Status      string
	CustomerID  string
	PageToken   string
	PageSize    int32
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListSubscriptionResponse struct {
	pagination.PageInfo
	Subscriptions []Subscription `json:"subscriptions"`
}

type CreateSubscriptionRequest struct {
	CustomerID   string         `json:"customer_id"`
	PlanID       string         `json:"plan_id"`
	TaxID        string         `json:"tax_id,omitempty"`
	DiscountCode string         `json:"discount_code,omitempty"`
	StartDate    *time.Time     `json:"start_date,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

type TransitionRequest struct {
	SubscriptionID string             `json:"subscription_id"`
	TargetStatus   SubscriptionStatus `json:"target_status"`
}

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks
type Service interface {
	List(context.Context, ListSubscriptionRequest) (ListSubscriptionResponse, error)
	Create(context.Context, CreateSubscriptionRequest) (Subscription, error)
	GetByID(context.Context, string) (Subscription, error)
	Transition(context.Context, TransitionRequest) (Subscription, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrInvalidPlan          = errors.New("invalid_plan")
	ErrInvalidTax           = errors.New("invalid_tax")
	ErrInvalidDiscount      = errors.New("invalid_discount")
	ErrInvalidSubscription  = errors.New("invalid_subscription")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrInvalidTargetStatus  = errors.New("invalid_target_status")
	ErrInvalidTransition    = errors.New("invalid_transition")
	ErrPlanInactive         = errors.New("plan_inactive")
	ErrCustomerNotFound     = errors.New("customer_not_found")
	ErrPlanNotFound         = errors.New("plan_not_found")
	ErrTaxNotFound          = errors.New("tax_not_found")
	ErrDiscountNotFound     = errors.New("discount_not_found")
	ErrSubscriptionNotFound = errors.New("subscription_not_found")
	ErrPermissionDenied     = errors.New("subscription_permission_denied")
	ErrNotDeletable         = errors.New("subscription_not_deletable")
)
