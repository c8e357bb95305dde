package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/subora/internal/actorcontext"
	"github.com/smallbiznis/subora/internal/clock"
	invoicedomain "github.com/smallbiznis/subora/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/subora/internal/invoice/repository"
	paymentdomain "github.com/smallbiznis/subora/internal/payment/domain"
	paymentrepo "github.com/smallbiznis/subora/internal/payment/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingEmail struct {
	to      []string
	subject string
	sends   int
}

func (r *recordingEmail) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	r.to = to
	r.subject = subject
	r.sends++
	return nil
}

type fixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	email   *recordingEmail
	svc     paymentdomain.Service
	invoice invoicedomain.Invoice
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&invoicedomain.Invoice{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(3)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC))
	email := &recordingEmail{}

	f := &fixture{
		db:    db,
		node:  node,
		clock: clk,
		email: email,
		invoice: invoicedomain.Invoice{
			ID:             node.Generate(),
			Number:         "INV-TEST-0001",
			SubscriptionID: node.Generate(),
			CustomerID:     node.Generate(),
			CustomerEmail:  "billing@acme.test",
			Currency:       "USD",
			Amount:         decimal.RequireFromString("118.80"),
			DueDate:        clk.Now().AddDate(0, 0, 15),
			Status:         invoicedomain.InvoiceStatusPending,
			CreatedAt:      clk.Now(),
			UpdatedAt:      clk.Now(),
		},
	}
	require.NoError(t, invoicerepo.Provide().Insert(context.Background(), db, &f.invoice))

	f.svc = NewService(Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clk,
		Repo:        paymentrepo.Provide(),
		InvoiceRepo: invoicerepo.Provide(),
		Email:       email,
	})
	return f
}

func staffCtx() context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{Role: actorcontext.RoleInternal})
}

func customerCtx(id snowflake.ID) context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{
		Role:       actorcontext.RoleCustomer,
		CustomerID: id,
	})
}

func TestRegisterSettlesPendingInvoice(t *testing.T) {
	f := newFixture(t)

	payment, err := f.svc.Register(staffCtx(), paymentdomain.RegisterPaymentRequest{
		InvoiceID: f.invoice.ID.String(),
		Method:    "Bank Transfer",
	})
	require.NoError(t, err)

	assert.Equal(t, paymentdomain.PaymentStatusConfirmed, payment.Status)
	assert.Equal(t, "bank transfer", payment.Method)
	assert.Equal(t, "118.80", payment.Amount.StringFixed(2))
	assert.Equal(t, "USD", payment.Currency)
	assert.Equal(t, f.invoice.CustomerEmail, payment.CustomerEmail)
	assert.NotEmpty(t, payment.Reference)
	assert.Equal(t, f.clock.Now(), payment.PaidAt)

	invoice, err := invoicerepo.Provide().FindByID(context.Background(), f.db, f.invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, invoice)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, invoice.Status)
	require.NotNil(t, invoice.PaidAt)

	assert.Equal(t, 1, f.email.sends)
	assert.Equal(t, []string{f.invoice.CustomerEmail}, f.email.to)
}

func TestRegisterTwiceFails(t *testing.T) {
	f := newFixture(t)

	req := paymentdomain.RegisterPaymentRequest{
		InvoiceID: f.invoice.ID.String(),
		Method:    "card",
	}

	_, err := f.svc.Register(staffCtx(), req)
	require.NoError(t, err)

	_, err = f.svc.Register(staffCtx(), req)
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidState)

	var count int64
	require.NoError(t, f.db.Model(&paymentdomain.Payment{}).
		Where("invoice_id = ?", f.invoice.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRegisterRejectsCancelledInvoice(t *testing.T) {
	f := newFixture(t)

	now := f.clock.Now()
	f.invoice.Status = invoicedomain.InvoiceStatusCancelled
	f.invoice.CancelledAt = &now
	f.invoice.UpdatedAt = now
	require.NoError(t, invoicerepo.Provide().UpdateLifecycle(context.Background(), f.db, &f.invoice))

	_, err := f.svc.Register(staffCtx(), paymentdomain.RegisterPaymentRequest{
		InvoiceID: f.invoice.ID.String(),
		Method:    "card",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidState)
}

func TestRegisterRequiresStaff(t *testing.T) {
	f := newFixture(t)

	req := paymentdomain.RegisterPaymentRequest{
		InvoiceID: f.invoice.ID.String(),
		Method:    "card",
	}

	_, err := f.svc.Register(context.Background(), req)
	assert.ErrorIs(t, err, paymentdomain.ErrPermissionDenied)

	_, err = f.svc.Register(customerCtx(f.invoice.CustomerID), req)
	assert.ErrorIs(t, err, paymentdomain.ErrPermissionDenied)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(staffCtx(), paymentdomain.RegisterPaymentRequest{
		InvoiceID: "garbage",
		Method:    "card",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidInvoice)

	_, err = f.svc.Register(staffCtx(), paymentdomain.RegisterPaymentRequest{
		InvoiceID: f.invoice.ID.String(),
		Method:    "   ",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidMethod)

	_, err = f.svc.Register(staffCtx(), paymentdomain.RegisterPaymentRequest{
		InvoiceID: f.node.Generate().String(),
		Method:    "card",
	})
	assert.ErrorIs(t, err, paymentdomain.ErrInvoiceNotFound)
}

func TestGetByInvoiceID(t *testing.T) {
	f := newFixture(t)

	registered, err := f.svc.Register(staffCtx(), paymentdomain.RegisterPaymentRequest{
		InvoiceID: f.invoice.ID.String(),
		Method:    "card",
	})
	require.NoError(t, err)

	got, err := f.svc.GetByInvoiceID(customerCtx(f.invoice.CustomerID), f.invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, registered.Reference, got.Reference)

	_, err = f.svc.GetByInvoiceID(customerCtx(f.node.Generate()), f.invoice.ID.String())
	assert.ErrorIs(t, err, paymentdomain.ErrPermissionDenied)

	_, err = f.svc.GetByInvoiceID(staffCtx(), f.node.Generate().String())
	assert.ErrorIs(t, err, paymentdomain.ErrNotFound)
}
