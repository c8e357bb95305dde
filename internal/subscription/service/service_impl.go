package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/smallbiznis/subora/internal/actorcontext"
	auditdomain "github.com/smallbiznis/subora/internal/audit/domain"
	"github.com/smallbiznis/subora/internal/clock"
	customerdomain "github.com/smallbiznis/subora/internal/customer/domain"
	discountdomain "github.com/smallbiznis/subora/internal/discount/domain"
	invoicedomain "github.com/smallbiznis/subora/internal/invoice/domain"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	"github.com/smallbiznis/subora/internal/providers/email"
	"github.com/smallbiznis/subora/internal/pricing"
	subscriptiondomain "github.com/smallbiznis/subora/internal/subscription/domain"
	taxdomain "github.com/smallbiznis/subora/internal/tax/domain"
	"github.com/smallbiznis/subora/pkg/db/option"
	"github.com/smallbiznis/subora/pkg/db/pagination"
	"github.com/smallbiznis/subora/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// invoiceDueDays is how long after the start date a confirmation
// invoice falls due.
const invoiceDueDays = 15

type Service struct {
	db  *gorm.DB
	log *zap.Logger

	genID            *snowflake.Node
	clock            clock.Clock
	repo             subscriptiondomain.Repository
	subscriptionRepo repository.Repository[subscriptiondomain.Subscription]

	planRepo     plandomain.Repository
	taxRepo      taxdomain.Repository
	discountRepo discountdomain.Repository
	customerRepo customerdomain.Repository
	invoiceRepo  invoicedomain.Repository
	audit        auditdomain.Service
	email        email.Provider
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  subscriptiondomain.Repository

	PlanRepo     plandomain.Repository
	TaxRepo      taxdomain.Repository
	DiscountRepo discountdomain.Repository
	CustomerRepo customerdomain.Repository
	InvoiceRepo  invoicedomain.Repository
	Audit        auditdomain.Service
	Email        email.Provider
}

func NewService(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("subscription.service"),

		genID:            p.GenID,
		clock:            p.Clock,
		repo:             p.Repo,
		subscriptionRepo: repository.ProvideStore[subscriptiondomain.Subscription](p.DB),

		planRepo:     p.PlanRepo,
		taxRepo:      p.TaxRepo,
		discountRepo: p.DiscountRepo,
		customerRepo: p.CustomerRepo,
		invoiceRepo:  p.InvoiceRepo,
		audit:        p.Audit,
		email:        p.Email,
	}
}

func (s *Service) Create(ctx context.Context, req subscriptiondomain.CreateSubscriptionRequest) (subscriptiondomain.Subscription, error) {
	if err := requireStaff(ctx); err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	customerID, err := s.parseID(req.CustomerID, subscriptiondomain.ErrInvalidCustomer)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	planID, err := s.parseID(req.PlanID, subscriptiondomain.ErrInvalidPlan)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	customer, err := s.customerRepo.FindByID(ctx, s.db, customerID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if customer == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrCustomerNotFound
	}

	plan, err := s.planRepo.FindByID(ctx, planID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if plan == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrPlanNotFound
	}
	if !plan.Active {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrPlanInactive
	}

	taxID, taxInput, err := s.resolveTax(ctx, req.TaxID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	discountID, discountInput, err := s.resolveDiscount(ctx, req.DiscountCode)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	totals, err := pricing.ComputeTotals(plan.Price, taxInput, discountInput)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	now := s.clock.Now()
	startDate := now
	if req.StartDate != nil {
		startDate = req.StartDate.UTC()
	}

	subscription := subscriptiondomain.Subscription{
		ID:              s.genID.Generate(),
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		PlanID:          plan.ID,
		PlanName:        plan.Name,
		TaxID:           taxID,
		DiscountID:      discountID,
		Status:          subscriptiondomain.SubscriptionStatusDraft,
		Currency:        customer.Currency,
		Subtotal:        totals.Subtotal,
		DiscountAmount:  totals.DiscountAmount,
		TaxAmount:       totals.TaxAmount,
		Amount:          totals.Total,
		BillingPeriod:   plan.BillingPeriod,
		BillingInterval: plan.BillingInterval,
		StartDate:       startDate,
		NextBillingDate: plan.BillingPeriod.Advance(startDate, plan.BillingInterval),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.Metadata != nil {
		subscription.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Insert(ctx, s.db, &subscription); err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.recordAudit(ctx, "subscription.created", subscription.ID, map[string]any{
		"customer_id": subscription.CustomerID.String(),
		"plan_id":     subscription.PlanID.String(),
		"amount":      subscription.Amount.StringFixed(2),
	})

	return subscription, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (subscriptiondomain.Subscription, error) {
	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrPermissionDenied
	}

	item, err := s.repo.FindByID(ctx, s.db, subscriptionID)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}
	if item == nil {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrSubscriptionNotFound
	}

	if !actor.IsStaff() && actor.CustomerID != item.CustomerID {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrPermissionDenied
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context, req subscriptiondomain.ListSubscriptionRequest) (subscriptiondomain.ListSubscriptionResponse, error) {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok {
		return subscriptiondomain.ListSubscriptionResponse{}, subscriptiondomain.ErrPermissionDenied
	}

	filter := &subscriptiondomain.Subscription{}

	statusFilter, err := parseStatusFilter(req.Status)
	if err != nil {
		return subscriptiondomain.ListSubscriptionResponse{}, err
	}
	if statusFilter != nil {
		filter.Status = *statusFilter
	}

	if actor.IsStaff() {
		if req.CustomerID != "" {
			customerID, err := s.parseID(req.CustomerID, subscriptiondomain.ErrInvalidCustomer)
			if err != nil {
				return subscriptiondomain.ListSubscriptionResponse{}, err
			}
			filter.CustomerID = customerID
		}
	} else {
		// customers only ever see their own subscriptions
		filter.CustomerID = actor.CustomerID
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	options := []option.QueryOption{
		option.ApplyPagination(pagination.Pagination{
			PageToken: req.PageToken,
			PageSize:  int(pageSize),
		}),
		option.WithSortBy(option.WithQuerySortBy("created_at", "desc", map[string]bool{"created_at": true})),
	}

	if req.CreatedFrom != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.GTE,
			Value:    *req.CreatedFrom,
		}))
	}
	if req.CreatedTo != nil {
		options = append(options, option.ApplyOperator(option.Condition{
			Field:    "created_at",
			Operator: option.LTE,
			Value:    *req.CreatedTo,
		}))
	}

	items, err := s.subscriptionRepo.Find(ctx, filter, options...)
	if err != nil {
		return subscriptiondomain.ListSubscriptionResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *subscriptiondomain.Subscription) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > int(pageSize) {
		items = items[:pageSize]
	}

	subscriptions := make([]subscriptiondomain.Subscription, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		subscriptions = append(subscriptions, *item)
	}

	resp := subscriptiondomain.ListSubscriptionResponse{
		Subscriptions: subscriptions,
	}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) Transition(ctx context.Context, req subscriptiondomain.TransitionRequest) (subscriptiondomain.Subscription, error) {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrPermissionDenied
	}

	id, err := s.parseID(req.SubscriptionID, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	if !isValidStatus(req.TargetStatus) {
		return subscriptiondomain.Subscription{}, subscriptiondomain.ErrInvalidTargetStatus
	}

	var result subscriptiondomain.Subscription
	var raised *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}

		if !subscriptiondomain.IsTransitionAllowed(subscription.Status, req.TargetStatus) {
			return &subscriptiondomain.TransitionError{From: subscription.Status, To: req.TargetStatus}
		}

		if !actor.IsStaff() {
			ownClose := req.TargetStatus == subscriptiondomain.SubscriptionStatusClosed &&
				subscription.CustomerID == actor.CustomerID
			if !ownClose {
				return subscriptiondomain.ErrPermissionDenied
			}
		}

		now := s.clock.Now()
		switch req.TargetStatus {
		case subscriptiondomain.SubscriptionStatusQuotation:
			// no timestamp column; the status row carries the state
		case subscriptiondomain.SubscriptionStatusConfirmed:
			subscription.ConfirmedAt = &now
			invoice, err := s.raiseInvoice(ctx, tx, subscription, now)
			if err != nil {
				return err
			}
			raised = invoice
		case subscriptiondomain.SubscriptionStatusActive:
			subscription.ActivatedAt = &now
		case subscriptiondomain.SubscriptionStatusClosed:
			subscription.ClosedAt = &now
		case subscriptiondomain.SubscriptionStatusCancelled:
			subscription.CancelledAt = &now
		default:
			return subscriptiondomain.ErrInvalidTargetStatus
		}

		subscription.Status = req.TargetStatus
		subscription.UpdatedAt = now

		if err := s.repo.UpdateLifecycle(ctx, tx, subscription); err != nil {
			return err
		}

		result = *subscription
		return nil
	})
	if err != nil {
		return subscriptiondomain.Subscription{}, err
	}

	s.recordAudit(ctx, "subscription.transitioned", result.ID, map[string]any{
		"status": string(result.Status),
	})
	if raised != nil {
		s.sendInvoiceNotice(ctx, *raised)
	}

	return result, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok || actor.Role != actorcontext.RoleAdmin {
		return subscriptiondomain.ErrPermissionDenied
	}

	subscriptionID, err := s.parseID(id, subscriptiondomain.ErrInvalidSubscription)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByIDForUpdate(ctx, tx, subscriptionID)
		if err != nil {
			return err
		}
		if subscription == nil {
			return subscriptiondomain.ErrSubscriptionNotFound
		}
		if subscription.Status != subscriptiondomain.SubscriptionStatusDraft {
			return subscriptiondomain.ErrNotDeletable
		}
		return s.repo.Delete(ctx, tx, subscriptionID)
	})
}

func (s *Service) raiseInvoice(ctx context.Context, tx *gorm.DB, subscription *subscriptiondomain.Subscription, now time.Time) (*invoicedomain.Invoice, error) {
	invoice := invoicedomain.Invoice{
		ID:             s.genID.Generate(),
		Number:         "INV-" + ulid.Make().String(),
		SubscriptionID: subscription.ID,
		CustomerID:     subscription.CustomerID,
		CustomerEmail:  subscription.CustomerEmail,
		Currency:       subscription.Currency,
		Amount:         subscription.Amount,
		DueDate:        subscription.StartDate.AddDate(0, 0, invoiceDueDays),
		Status:         invoicedomain.InvoiceStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.invoiceRepo.Insert(ctx, tx, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (s *Service) sendInvoiceNotice(ctx context.Context, invoice invoicedomain.Invoice) {
	if s.email == nil {
		return
	}
	subject := "Invoice " + invoice.Number
	body := fmt.Sprintf(
		"<p>Your subscription is confirmed. Invoice %s for %s %s is due on %s.</p>",
		invoice.Number,
		invoice.Currency,
		invoice.Amount.StringFixed(2),
		invoice.DueDate.Format("2006-01-02"),
	)
	if err := s.email.Send(ctx, []string{invoice.CustomerEmail}, subject, body); err != nil {
		s.log.Warn("invoice email failed", zap.String("number", invoice.Number), zap.Error(err))
	}
}

func (s *Service) resolveTax(ctx context.Context, rawID string) (*snowflake.ID, *pricing.TaxInput, error) {
	value := strings.TrimSpace(rawID)
	if value == "" {
		return nil, nil, nil
	}

	taxID, err := s.parseID(value, subscriptiondomain.ErrInvalidTax)
	if err != nil {
		return nil, nil, err
	}

	def, err := s.taxRepo.FindByID(ctx, taxID)
	if err != nil {
		return nil, nil, err
	}
	if def == nil {
		return nil, nil, subscriptiondomain.ErrTaxNotFound
	}
	if !def.Active {
		return nil, nil, subscriptiondomain.ErrInvalidTax
	}

	return &def.ID, &pricing.TaxInput{
		Kind:    pricing.TaxKind(def.Kind),
		Percent: def.Percent,
	}, nil
}

func (s *Service) resolveDiscount(ctx context.Context, rawCode string) (*snowflake.ID, *pricing.DiscountInput, error) {
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if code == "" {
		return nil, nil, nil
	}

	discount, err := s.discountRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, nil, err
	}
	if discount == nil {
		return nil, nil, subscriptiondomain.ErrDiscountNotFound
	}
	if !discount.Active {
		return nil, nil, subscriptiondomain.ErrInvalidDiscount
	}

	return &discount.ID, &pricing.DiscountInput{
		Type:  pricing.DiscountType(discount.Type),
		Value: discount.Value,
	}, nil
}

func (s *Service) recordAudit(ctx context.Context, action string, targetID snowflake.ID, metadata map[string]any) {
	if s.audit == nil {
		return
	}
	target := targetID.String()
	if err := s.audit.Record(ctx, action, "subscription", &target, metadata); err != nil {
		s.log.Warn("audit record failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}

func requireStaff(ctx context.Context) error {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok || !actor.IsStaff() {
		return subscriptiondomain.ErrPermissionDenied
	}
	return nil
}

func isValidStatus(status subscriptiondomain.SubscriptionStatus) bool {
	switch status {
	case subscriptiondomain.SubscriptionStatusDraft,
		subscriptiondomain.SubscriptionStatusQuotation,
		subscriptiondomain.SubscriptionStatusConfirmed,
		subscriptiondomain.SubscriptionStatusActive,
		subscriptiondomain.SubscriptionStatusClosed,
		subscriptiondomain.SubscriptionStatusCancelled:
		return true
	default:
		return false
	}
}

func parseStatusFilter(value string) (*subscriptiondomain.SubscriptionStatus, error) {
	status := strings.ToLower(strings.TrimSpace(value))
	if status == "" {
		return nil, nil
	}

	parsed := subscriptiondomain.SubscriptionStatus(status)
	if !isValidStatus(parsed) {
		return nil, subscriptiondomain.ErrInvalidStatus
	}
	return &parsed, nil
}
