package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/subora/internal/actorcontext"
	"github.com/smallbiznis/subora/internal/clock"
	invoicedomain "github.com/smallbiznis/subora/internal/invoice/domain"
	"github.com/smallbiznis/subora/internal/providers/pdf"
	subscriptiondomain "github.com/smallbiznis/subora/internal/subscription/domain"
	"github.com/smallbiznis/subora/pkg/db/option"
	"github.com/smallbiznis/subora/pkg/db/pagination"
	"github.com/smallbiznis/subora/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    invoicedomain.Repository
	SubRepo subscriptiondomain.Repository
	PDF     pdf.Provider
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    invoicedomain.Repository
	subRepo subscriptiondomain.Repository
	pdf     pdf.Provider

	invoiceRepo repository.Repository[invoicedomain.Invoice]
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("invoice.service"),
		clock:   p.Clock,
		repo:    p.Repo,
		subRepo: p.SubRepo,
		pdf:     p.PDF,

		invoiceRepo: repository.ProvideStore[invoicedomain.Invoice](p.DB),
	}
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok {
		return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrPermissionDenied
	}

	filter := &invoicedomain.Invoice{}

	if status := strings.ToLower(strings.TrimSpace(req.Status)); status != "" {
		parsed := invoicedomain.InvoiceStatus(status)
		switch parsed {
		case invoicedomain.InvoiceStatusPending, invoicedomain.InvoiceStatusPaid, invoicedomain.InvoiceStatusCancelled:
			filter.Status = parsed
		default:
			return invoicedomain.ListInvoiceResponse{}, invoicedomain.ErrInvalidStatus
		}
	}

	if req.SubscriptionID != "" {
		subscriptionID, err := parseID(req.SubscriptionID)
		if err != nil {
			return invoicedomain.ListInvoiceResponse{}, err
		}
		filter.SubscriptionID = subscriptionID
	}

	if actor.IsStaff() {
		if req.CustomerID != "" {
			customerID, err := parseID(req.CustomerID)
			if err != nil {
				return invoicedomain.ListInvoiceResponse{}, err
			}
			filter.CustomerID = customerID
		}
	} else {
		// customers only ever see their own invoices
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

	items, err := s.invoiceRepo.Find(ctx, filter, options...)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(item *invoicedomain.Invoice) string {
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

	invoices := make([]invoicedomain.Invoice, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		invoices = append(invoices, *item)
	}

	resp := invoicedomain.ListInvoiceResponse{Invoices: invoices}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}

	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req invoicedomain.GetInvoiceRequest) (invoicedomain.Invoice, error) {
	invoice, err := s.load(ctx, req.ID)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}
	return *invoice, nil
}

func (s *Service) Cancel(ctx context.Context, id string) (invoicedomain.Invoice, error) {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok || !actor.IsStaff() {
		return invoicedomain.Invoice{}, invoicedomain.ErrPermissionDenied
	}

	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	var result invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.repo.FindByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return invoicedomain.ErrNotFound
		}
		if invoice.Status != invoicedomain.InvoiceStatusPending {
			return invoicedomain.ErrInvalidState
		}

		now := s.clock.Now()
		invoice.Status = invoicedomain.InvoiceStatusCancelled
		invoice.CancelledAt = &now
		invoice.UpdatedAt = now

		if err := s.repo.UpdateLifecycle(ctx, tx, invoice); err != nil {
			return err
		}

		result = *invoice
		return nil
	})
	if err != nil {
		return invoicedomain.Invoice{}, err
	}

	return result, nil
}

func (s *Service) RenderPDF(ctx context.Context, id string) ([]byte, error) {
	invoice, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	data := pdf.InvoiceData{
		Number:      invoice.Number,
		Status:      string(invoice.Status),
		IssueDate:   invoice.CreatedAt.Format("2006-01-02"),
		DueDate:     invoice.DueDate.Format("2006-01-02"),
		BillToEmail: invoice.CustomerEmail,
		Currency:    invoice.Currency,
		AmountDue:   invoice.Amount.StringFixed(2),
	}

	subscription, err := s.subRepo.FindByID(ctx, s.db, invoice.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if subscription != nil {
		data.BillToName = subscription.CustomerName
		data.PlanName = subscription.PlanName
		data.Subtotal = subscription.Subtotal.StringFixed(2)
		data.DiscountAmount = subscription.DiscountAmount.StringFixed(2)
		data.TaxAmount = subscription.TaxAmount.StringFixed(2)
	}

	reader, err := s.pdf.GenerateInvoice(ctx, data)
	if err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, nil
	}

	return io.ReadAll(reader)
}

func (s *Service) load(ctx context.Context, id string) (*invoicedomain.Invoice, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok {
		return nil, invoicedomain.ErrPermissionDenied
	}

	invoice, err := s.repo.FindByID(ctx, s.db, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, invoicedomain.ErrNotFound
	}

	if !actor.IsStaff() && actor.CustomerID != invoice.CustomerID {
		return nil, invoicedomain.ErrPermissionDenied
	}

	return invoice, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invoicedomain.ErrInvalidID
	}
	return id, nil
}
