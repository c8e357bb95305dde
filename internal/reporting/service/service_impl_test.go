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
	paymentdomain "github.com/smallbiznis/subora/internal/payment/domain"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	reportingdomain "github.com/smallbiznis/subora/internal/reporting/domain"
	subscriptiondomain "github.com/smallbiznis/subora/internal/subscription/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   reportingdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&subscriptiondomain.Subscription{},
		&invoicedomain.Invoice{},
		&paymentdomain.Payment{},
	))

	node, err := snowflake.NewNode(9)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))

	return &fixture{
		db:    db,
		node:  node,
		clock: clk,
		svc: NewService(Params{
			DB:    db,
			Log:   zap.NewNop(),
			Clock: clk,
		}),
	}
}

func staffCtx() context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{Role: actorcontext.RoleAdmin})
}

func (f *fixture) seedSubscription(t *testing.T, status subscriptiondomain.SubscriptionStatus) {
	t.Helper()

	now := f.clock.Now()
	require.NoError(t, f.db.Create(&subscriptiondomain.Subscription{
		ID:              f.node.Generate(),
		CustomerID:      f.node.Generate(),
		CustomerName:    "Acme Corp",
		CustomerEmail:   "billing@acme.test",
		PlanID:          f.node.Generate(),
		PlanName:        "Monthly Pro",
		Status:          status,
		Currency:        "USD",
		Subtotal:        decimal.NewFromInt(99),
		DiscountAmount:  decimal.Zero,
		TaxAmount:       decimal.Zero,
		Amount:          decimal.NewFromInt(99),
		BillingPeriod:   plandomain.BillingPeriodMonthly,
		BillingInterval: 1,
		StartDate:       now,
		NextBillingDate: now.AddDate(0, 1, 0),
		CreatedAt:       now,
		UpdatedAt:       now,
	}).Error)
}

func (f *fixture) seedInvoice(t *testing.T, status invoicedomain.InvoiceStatus, amount string, dueDate time.Time) {
	t.Helper()

	now := f.clock.Now()
	require.NoError(t, f.db.Create(&invoicedomain.Invoice{
		ID:             f.node.Generate(),
		Number:         "INV-" + f.node.Generate().String(),
		SubscriptionID: f.node.Generate(),
		CustomerID:     f.node.Generate(),
		CustomerEmail:  "billing@acme.test",
		Currency:       "USD",
		Amount:         decimal.RequireFromString(amount),
		DueDate:        dueDate,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}).Error)
}

func (f *fixture) seedPayment(t *testing.T, amount string, paidAt time.Time) {
	t.Helper()

	require.NoError(t, f.db.Create(&paymentdomain.Payment{
		ID:            f.node.Generate(),
		Reference:     f.node.Generate().String(),
		InvoiceID:     f.node.Generate(),
		CustomerID:    f.node.Generate(),
		CustomerEmail: "billing@acme.test",
		Currency:      "USD",
		Amount:        decimal.RequireFromString(amount),
		Method:        "card",
		Status:        paymentdomain.PaymentStatusConfirmed,
		PaidAt:        paidAt,
		CreatedAt:     paidAt,
	}).Error)
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	f.seedSubscription(t, subscriptiondomain.SubscriptionStatusActive)
	f.seedSubscription(t, subscriptiondomain.SubscriptionStatusActive)
	f.seedSubscription(t, subscriptiondomain.SubscriptionStatusDraft)
	f.seedSubscription(t, subscriptiondomain.SubscriptionStatusCancelled)

	f.seedInvoice(t, invoicedomain.InvoiceStatusPending, "118.80", now.AddDate(0, 0, 15))
	f.seedInvoice(t, invoicedomain.InvoiceStatusPending, "50.00", now.AddDate(0, 0, 10))
	f.seedInvoice(t, invoicedomain.InvoiceStatusPaid, "99.00", now)

	f.seedPayment(t, "99.00", now.AddDate(0, 0, -2))
	f.seedPayment(t, "118.80", now.AddDate(0, 0, -1))

	resp, err := f.svc.GetOverview(staffCtx(), reportingdomain.OverviewRequest{})
	require.NoError(t, err)

	assert.Equal(t, "USD", resp.Currency)
	assert.Equal(t, int64(2), resp.ActiveSubscriptions)
	assert.Equal(t, int64(1), resp.DraftSubscriptions)
	assert.Equal(t, int64(2), resp.PendingInvoices)
	assert.Equal(t, "168.80", resp.PendingAmount.StringFixed(2))
	assert.Equal(t, "217.80", resp.PaidRevenue.StringFixed(2))
}

func TestOverviewRequiresStaff(t *testing.T) {
	f := newFixture(t)

	customer := actorcontext.WithActor(context.Background(), actorcontext.Actor{Role: actorcontext.RoleCustomer})
	_, err := f.svc.GetOverview(customer, reportingdomain.OverviewRequest{})
	assert.ErrorIs(t, err, reportingdomain.ErrPermissionDenied)
}

func TestRevenueWindow(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	f.seedPayment(t, "100.00", now.AddDate(0, 0, -5))
	f.seedPayment(t, "40.00", now.AddDate(0, 0, -10))
	f.seedPayment(t, "25.00", now.AddDate(0, -2, 0))

	resp, err := f.svc.GetRevenue(staffCtx(), reportingdomain.RevenueRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.Payments)
	assert.Equal(t, "140.00", resp.Total.StringFixed(2))
	assert.True(t, resp.HasData)

	resp, err = f.svc.GetRevenue(staffCtx(), reportingdomain.RevenueRequest{
		Start: now.AddDate(0, -3, 0),
		End:   now,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Payments)
	assert.Equal(t, "165.00", resp.Total.StringFixed(2))

	_, err = f.svc.GetRevenue(staffCtx(), reportingdomain.RevenueRequest{
		Start: now,
		End:   now.AddDate(0, 0, -1),
	})
	assert.ErrorIs(t, err, reportingdomain.ErrInvalidTimeRange)
}

func TestAgingBuckets(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()

	f.seedInvoice(t, invoicedomain.InvoiceStatusPending, "10.00", now.AddDate(0, 0, -10))
	f.seedInvoice(t, invoicedomain.InvoiceStatusPending, "20.00", now.AddDate(0, 0, -40))
	f.seedInvoice(t, invoicedomain.InvoiceStatusPending, "30.00", now.AddDate(0, 0, -100))
	// not yet due and already settled invoices stay out of every bucket
	f.seedInvoice(t, invoicedomain.InvoiceStatusPending, "40.00", now.AddDate(0, 0, 5))
	f.seedInvoice(t, invoicedomain.InvoiceStatusPaid, "50.00", now.AddDate(0, 0, -40))

	resp, err := f.svc.GetAging(staffCtx(), reportingdomain.AgingRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Buckets, 3)

	assert.Equal(t, "0-30", resp.Buckets[0].Label)
	assert.Equal(t, int64(1), resp.Buckets[0].Invoices)
	assert.Equal(t, "10.00", resp.Buckets[0].Amount.StringFixed(2))

	assert.Equal(t, "31-60", resp.Buckets[1].Label)
	assert.Equal(t, int64(1), resp.Buckets[1].Invoices)
	assert.Equal(t, "20.00", resp.Buckets[1].Amount.StringFixed(2))

	assert.Equal(t, "60+", resp.Buckets[2].Label)
	assert.Equal(t, int64(1), resp.Buckets[2].Invoices)
	assert.Equal(t, "30.00", resp.Buckets[2].Amount.StringFixed(2))
}
