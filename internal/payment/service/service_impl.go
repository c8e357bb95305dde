package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/subora/internal/actorcontext"
	auditdomain "github.com/smallbiznis/subora/internal/audit/domain"
	"github.com/smallbiznis/subora/internal/clock"
	invoicedomain "github.com/smallbiznis/subora/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/subora/internal/payment/domain"
	"github.com/smallbiznis/subora/internal/providers/email"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        paymentdomain.Repository
	InvoiceRepo invoicedomain.Repository
	Audit       auditdomain.Service
	Email       email.Provider
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        paymentdomain.Repository
	invoiceRepo invoicedomain.Repository
	audit       auditdomain.Service
	email       email.Provider
}

func NewService(p Params) paymentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		invoiceRepo: p.InvoiceRepo,
		audit:       p.Audit,
		email:       p.Email,
	}
}

// Register settles a pending invoice. The invoice row is locked for the
// duration of the transaction, so a second registration for the same
// invoice observes the paid status and fails.
func (s *Service) Register(ctx context.Context, req paymentdomain.RegisterPaymentRequest) (paymentdomain.Payment, error) {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok || !actor.IsStaff() {
		return paymentdomain.Payment{}, paymentdomain.ErrPermissionDenied
	}

	invoiceID, err := parseID(req.InvoiceID, paymentdomain.ErrInvalidInvoice)
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	method := strings.ToLower(strings.TrimSpace(req.Method))
	if method == "" {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidMethod
	}

	var payment paymentdomain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		invoice, err := s.invoiceRepo.FindByIDForUpdate(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if invoice == nil {
			return paymentdomain.ErrInvoiceNotFound
		}
		if invoice.Status != invoicedomain.InvoiceStatusPending {
			return paymentdomain.ErrInvalidState
		}

		now := s.clock.Now()
		payment = paymentdomain.Payment{
			ID:            s.genID.Generate(),
			Reference:     uuid.NewString(),
			InvoiceID:     invoice.ID,
			CustomerID:    invoice.CustomerID,
			CustomerEmail: invoice.CustomerEmail,
			Currency:      invoice.Currency,
			Amount:        invoice.Amount,
			Method:        method,
			Status:        paymentdomain.PaymentStatusConfirmed,
			PaidAt:        now,
			CreatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return err
		}

		invoice.Status = invoicedomain.InvoiceStatusPaid
		invoice.PaidAt = &now
		invoice.UpdatedAt = now
		return s.invoiceRepo.UpdateLifecycle(ctx, tx, invoice)
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	s.recordAudit(ctx, payment)
	s.sendReceipt(ctx, payment)

	return payment, nil
}

func (s *Service) GetByInvoiceID(ctx context.Context, invoiceID string) (paymentdomain.Payment, error) {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok {
		return paymentdomain.Payment{}, paymentdomain.ErrPermissionDenied
	}

	id, err := parseID(invoiceID, paymentdomain.ErrInvalidInvoice)
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	payment, err := s.repo.FindByInvoiceID(ctx, s.db, id)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	if payment == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrNotFound
	}

	if !actor.IsStaff() && actor.CustomerID != payment.CustomerID {
		return paymentdomain.Payment{}, paymentdomain.ErrPermissionDenied
	}

	return *payment, nil
}

func (s *Service) recordAudit(ctx context.Context, payment paymentdomain.Payment) {
	if s.audit == nil {
		return
	}
	target := payment.InvoiceID.String()
	err := s.audit.Record(ctx, "payment.registered", "invoice", &target, map[string]any{
		"reference": payment.Reference,
		"method":    payment.Method,
		"amount":    payment.Amount.StringFixed(2),
	})
	if err != nil {
		s.log.Warn("audit record failed", zap.Error(err))
	}
}

func (s *Service) sendReceipt(ctx context.Context, payment paymentdomain.Payment) {
	if s.email == nil {
		return
	}
	subject := "Payment received"
	body := fmt.Sprintf(
		"<p>We received your payment of %s %s.</p><p>Reference: %s</p>",
		payment.Currency,
		payment.Amount.StringFixed(2),
		payment.Reference,
	)
	if err := s.email.Send(ctx, []string{payment.CustomerEmail}, subject, body); err != nil {
		s.log.Warn("receipt email failed", zap.String("reference", payment.Reference), zap.Error(err))
	}
}

func parseID(value string, invalidErr error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, invalidErr
	}
	return id, nil
}
