package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/subora/internal/actorcontext"
	"github.com/smallbiznis/subora/internal/clock"
	customerdomain "github.com/smallbiznis/subora/internal/customer/domain"
	customerrepo "github.com/smallbiznis/subora/internal/customer/repository"
	discountdomain "github.com/smallbiznis/subora/internal/discount/domain"
	discountrepo "github.com/smallbiznis/subora/internal/discount/repository"
	invoicedomain "github.com/smallbiznis/subora/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/subora/internal/invoice/repository"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	planrepo "github.com/smallbiznis/subora/internal/plan/repository"
	subscriptiondomain "github.com/smallbiznis/subora/internal/subscription/domain"
	subscriptionrepo "github.com/smallbiznis/subora/internal/subscription/repository"
	taxdomain "github.com/smallbiznis/subora/internal/tax/domain"
	taxrepo "github.com/smallbiznis/subora/internal/tax/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	email *recordingEmail
	svc   subscriptiondomain.Service

	customer customerdomain.Customer
	plan     plandomain.Plan
	tax      taxdomain.TaxDefinition
	discount discountdomain.Discount
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&plandomain.Plan{},
		&taxdomain.TaxDefinition{},
		&discountdomain.Discount{},
		&customerdomain.Customer{},
		&subscriptiondomain.Subscription{},
		&invoicedomain.Invoice{},
	))
	return db
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	f := &fixture{
		db:    db,
		node:  node,
		clock: clk,
		email: &recordingEmail{},
		customer: customerdomain.Customer{
			ID:       node.Generate(),
			Name:     "Acme Corp",
			Email:    "billing@acme.test",
			Currency: "USD",
			Metadata: datatypes.JSONMap{},
		},
		plan: plandomain.Plan{
			ID:              node.Generate(),
			Code:            "monthly-pro",
			Name:            "Monthly Pro",
			Price:           dec("99.00"),
			BillingPeriod:   plandomain.BillingPeriodMonthly,
			BillingInterval: 1,
			Active:          true,
		},
		tax: taxdomain.TaxDefinition{
			ID:      node.Generate(),
			Name:    "VAT",
			Kind:    taxdomain.TaxKindPercent,
			Percent: dec("20"),
			Active:  true,
		},
		discount: discountdomain.Discount{
			ID:     node.Generate(),
			Code:   "SAVE10",
			Name:   "Save Ten",
			Type:   discountdomain.DiscountTypePercent,
			Value:  dec("10"),
			Active: true,
		},
	}

	require.NoError(t, db.Create(&f.customer).Error)
	require.NoError(t, db.Create(&f.plan).Error)
	require.NoError(t, db.Create(&f.tax).Error)
	require.NoError(t, db.Create(&f.discount).Error)

	f.svc = NewService(ServiceParam{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        clk,
		Repo:         subscriptionrepo.Provide(),
		PlanRepo:     planrepo.NewRepository(db),
		TaxRepo:      taxrepo.NewRepository(db),
		DiscountRepo: discountrepo.NewRepository(db),
		CustomerRepo: customerrepo.Provide(),
		InvoiceRepo:  invoicerepo.Provide(),
		Email:        f.email,
	})
	return f
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func staffCtx() context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{Role: actorcontext.RoleAdmin})
}

func customerCtx(id snowflake.ID) context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{
		Role:       actorcontext.RoleCustomer,
		CustomerID: id,
	})
}

func (f *fixture) seed(t *testing.T, status subscriptiondomain.SubscriptionStatus) subscriptiondomain.Subscription {
	t.Helper()

	now := f.clock.Now()
	sub := subscriptiondomain.Subscription{
		ID:              f.node.Generate(),
		CustomerID:      f.customer.ID,
		CustomerName:    f.customer.Name,
		CustomerEmail:   f.customer.Email,
		PlanID:          f.plan.ID,
		PlanName:        f.plan.Name,
		Status:          status,
		Currency:        f.customer.Currency,
		Subtotal:        dec("99.00"),
		DiscountAmount:  decimal.Zero,
		TaxAmount:       dec("19.80"),
		Amount:          dec("118.80"),
		BillingPeriod:   plandomain.BillingPeriodMonthly,
		BillingInterval: 1,
		StartDate:       now,
		NextBillingDate: now.AddDate(0, 1, 0),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, subscriptionrepo.Provide().Insert(context.Background(), f.db, &sub))
	return sub
}

func TestCreateComputesTotals(t *testing.T) {
	f := newFixture(t)

	sub, err := f.svc.Create(staffCtx(), subscriptiondomain.CreateSubscriptionRequest{
		CustomerID: f.customer.ID.String(),
		PlanID:     f.plan.ID.String(),
		TaxID:      f.tax.ID.String(),
	})
	require.NoError(t, err)

	assert.Equal(t, subscriptiondomain.SubscriptionStatusDraft, sub.Status)
	assert.Equal(t, "USD", sub.Currency)
	assert.Equal(t, "99.00", sub.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", sub.DiscountAmount.StringFixed(2))
	assert.Equal(t, "19.80", sub.TaxAmount.StringFixed(2))
	assert.Equal(t, "118.80", sub.Amount.StringFixed(2))

	assert.Equal(t, f.clock.Now(), sub.StartDate)
	assert.Equal(t, f.clock.Now().AddDate(0, 1, 0), sub.NextBillingDate)
	assert.Equal(t, f.customer.Name, sub.CustomerName)
	assert.Equal(t, f.plan.Name, sub.PlanName)
}

func TestCreateAppliesDiscountBeforeTax(t *testing.T) {
	f := newFixture(t)

	sub, err := f.svc.Create(staffCtx(), subscriptiondomain.CreateSubscriptionRequest{
		CustomerID:   f.customer.ID.String(),
		PlanID:       f.plan.ID.String(),
		TaxID:        f.tax.ID.String(),
		DiscountCode: "save10",
	})
	require.NoError(t, err)

	// 99.00 - 9.90 = 89.10 taxable, 20% of that is 17.82
	assert.Equal(t, "9.90", sub.DiscountAmount.StringFixed(2))
	assert.Equal(t, "17.82", sub.TaxAmount.StringFixed(2))
	assert.Equal(t, "106.92", sub.Amount.StringFixed(2))
	require.NotNil(t, sub.DiscountID)
	assert.Equal(t, f.discount.ID, *sub.DiscountID)
}

func TestCreateSnapshotsPlanPrice(t *testing.T) {
	f := newFixture(t)

	sub, err := f.svc.Create(staffCtx(), subscriptiondomain.CreateSubscriptionRequest{
		CustomerID: f.customer.ID.String(),
		PlanID:     f.plan.ID.String(),
		TaxID:      f.tax.ID.String(),
	})
	require.NoError(t, err)

	// a later catalog change must not touch stored subscriptions
	require.NoError(t, f.db.Model(&plandomain.Plan{}).
		Where("id = ?", f.plan.ID).
		Update("price", dec("500.00")).Error)

	got, err := f.svc.GetByID(staffCtx(), sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "99.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "118.80", got.Amount.StringFixed(2))
}

func TestCreatePermissionAndValidation(t *testing.T) {
	f := newFixture(t)

	req := subscriptiondomain.CreateSubscriptionRequest{
		CustomerID: f.customer.ID.String(),
		PlanID:     f.plan.ID.String(),
	}

	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, subscriptiondomain.ErrPermissionDenied)

	_, err = f.svc.Create(customerCtx(f.customer.ID), req)
	assert.ErrorIs(t, err, subscriptiondomain.ErrPermissionDenied)

	_, err = f.svc.Create(staffCtx(), subscriptiondomain.CreateSubscriptionRequest{
		CustomerID: "not-a-number",
		PlanID:     f.plan.ID.String(),
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidCustomer)

	_, err = f.svc.Create(staffCtx(), subscriptiondomain.CreateSubscriptionRequest{
		CustomerID: f.node.Generate().String(),
		PlanID:     f.plan.ID.String(),
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrCustomerNotFound)

	_, err = f.svc.Create(staffCtx(), subscriptiondomain.CreateSubscriptionRequest{
		CustomerID:   f.customer.ID.String(),
		PlanID:       f.plan.ID.String(),
		DiscountCode: "NOPE",
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrDiscountNotFound)
}

func TestCreateRejectsInactivePlan(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.db.Model(&plandomain.Plan{}).
		Where("id = ?", f.plan.ID).
		Update("active", false).Error)

	_, err := f.svc.Create(staffCtx(), subscriptiondomain.CreateSubscriptionRequest{
		CustomerID: f.customer.ID.String(),
		PlanID:     f.plan.ID.String(),
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrPlanInactive)
}

func TestTransitionMatrix(t *testing.T) {
	tests := []struct {
		from    subscriptiondomain.SubscriptionStatus
		to      subscriptiondomain.SubscriptionStatus
		allowed bool
	}{
		{subscriptiondomain.SubscriptionStatusDraft, subscriptiondomain.SubscriptionStatusQuotation, true},
		{subscriptiondomain.SubscriptionStatusDraft, subscriptiondomain.SubscriptionStatusConfirmed, true},
		{subscriptiondomain.SubscriptionStatusDraft, subscriptiondomain.SubscriptionStatusCancelled, true},
		{subscriptiondomain.SubscriptionStatusDraft, subscriptiondomain.SubscriptionStatusActive, false},
		{subscriptiondomain.SubscriptionStatusDraft, subscriptiondomain.SubscriptionStatusClosed, false},
		{subscriptiondomain.SubscriptionStatusQuotation, subscriptiondomain.SubscriptionStatusConfirmed, true},
		{subscriptiondomain.SubscriptionStatusQuotation, subscriptiondomain.SubscriptionStatusCancelled, true},
		{subscriptiondomain.SubscriptionStatusQuotation, subscriptiondomain.SubscriptionStatusDraft, false},
		{subscriptiondomain.SubscriptionStatusQuotation, subscriptiondomain.SubscriptionStatusActive, false},
		{subscriptiondomain.SubscriptionStatusConfirmed, subscriptiondomain.SubscriptionStatusActive, true},
		{subscriptiondomain.SubscriptionStatusConfirmed, subscriptiondomain.SubscriptionStatusCancelled, true},
		{subscriptiondomain.SubscriptionStatusConfirmed, subscriptiondomain.SubscriptionStatusClosed, false},
		{subscriptiondomain.SubscriptionStatusConfirmed, subscriptiondomain.SubscriptionStatusQuotation, false},
		{subscriptiondomain.SubscriptionStatusActive, subscriptiondomain.SubscriptionStatusClosed, true},
		{subscriptiondomain.SubscriptionStatusActive, subscriptiondomain.SubscriptionStatusCancelled, true},
		{subscriptiondomain.SubscriptionStatusActive, subscriptiondomain.SubscriptionStatusActive, false},
		{subscriptiondomain.SubscriptionStatusActive, subscriptiondomain.SubscriptionStatusConfirmed, false},
		{subscriptiondomain.SubscriptionStatusClosed, subscriptiondomain.SubscriptionStatusCancelled, false},
		{subscriptiondomain.SubscriptionStatusClosed, subscriptiondomain.SubscriptionStatusActive, false},
		{subscriptiondomain.SubscriptionStatusCancelled, subscriptiondomain.SubscriptionStatusActive, false},
		{subscriptiondomain.SubscriptionStatusCancelled, subscriptiondomain.SubscriptionStatusClosed, false},
	}

	for _, tt := range tests {
		name := string(tt.from) + " to " + string(tt.to)
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			sub := f.seed(t, tt.from)

			got, err := f.svc.Transition(staffCtx(), subscriptiondomain.TransitionRequest{
				SubscriptionID: sub.ID.String(),
				TargetStatus:   tt.to,
			})

			if !tt.allowed {
				require.Error(t, err)
				assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidTransition)

				var transitionErr *subscriptiondomain.TransitionError
				require.True(t, errors.As(err, &transitionErr))
				assert.Equal(t, tt.from, transitionErr.From)
				assert.Equal(t, tt.to, transitionErr.To)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)

			switch tt.to {
			case subscriptiondomain.SubscriptionStatusConfirmed:
				require.NotNil(t, got.ConfirmedAt)
			case subscriptiondomain.SubscriptionStatusActive:
				require.NotNil(t, got.ActivatedAt)
			case subscriptiondomain.SubscriptionStatusClosed:
				require.NotNil(t, got.ClosedAt)
			case subscriptiondomain.SubscriptionStatusCancelled:
				require.NotNil(t, got.CancelledAt)
			}

			stored, err := subscriptionrepo.Provide().FindByID(context.Background(), f.db, sub.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, tt.to, stored.Status)
		})
	}
}

func TestTransitionRejectsUnknownTarget(t *testing.T) {
	f := newFixture(t)
	sub := f.seed(t, subscriptiondomain.SubscriptionStatusDraft)

	_, err := f.svc.Transition(staffCtx(), subscriptiondomain.TransitionRequest{
		SubscriptionID: sub.ID.String(),
		TargetStatus:   "paused",
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidTargetStatus)
}

func TestConfirmRaisesInvoice(t *testing.T) {
	f := newFixture(t)

	sub, err := f.svc.Create(staffCtx(), subscriptiondomain.CreateSubscriptionRequest{
		CustomerID: f.customer.ID.String(),
		PlanID:     f.plan.ID.String(),
		TaxID:      f.tax.ID.String(),
	})
	require.NoError(t, err)

	_, err = f.svc.Transition(staffCtx(), subscriptiondomain.TransitionRequest{
		SubscriptionID: sub.ID.String(),
		TargetStatus:   subscriptiondomain.SubscriptionStatusConfirmed,
	})
	require.NoError(t, err)

	invoices, err := invoicerepo.Provide().FindBySubscriptionID(context.Background(), f.db, sub.ID)
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	invoice := invoices[0]
	assert.Equal(t, invoicedomain.InvoiceStatusPending, invoice.Status)
	assert.Equal(t, "118.80", invoice.Amount.StringFixed(2))
	assert.Equal(t, sub.CustomerEmail, invoice.CustomerEmail)
	assert.Equal(t, sub.Currency, invoice.Currency)
	assert.True(t, strings.HasPrefix(invoice.Number, "INV-"))
	assert.True(t, invoice.DueDate.Equal(sub.StartDate.AddDate(0, 0, 15)),
		"due date %s should be start date + 15 days", invoice.DueDate)

	assert.Equal(t, 1, f.email.sends)
	assert.Equal(t, []string{sub.CustomerEmail}, f.email.to)
}

func TestCustomerMayCloseOwnActiveSubscription(t *testing.T) {
	f := newFixture(t)
	sub := f.seed(t, subscriptiondomain.SubscriptionStatusActive)

	got, err := f.svc.Transition(customerCtx(f.customer.ID), subscriptiondomain.TransitionRequest{
		SubscriptionID: sub.ID.String(),
		TargetStatus:   subscriptiondomain.SubscriptionStatusClosed,
	})
	require.NoError(t, err)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusClosed, got.Status)
	require.NotNil(t, got.ClosedAt)
}

func TestCustomerTransitionsAreRestricted(t *testing.T) {
	f := newFixture(t)

	t.Run("cannot close someone else's subscription", func(t *testing.T) {
		sub := f.seed(t, subscriptiondomain.SubscriptionStatusActive)

		_, err := f.svc.Transition(customerCtx(f.node.Generate()), subscriptiondomain.TransitionRequest{
			SubscriptionID: sub.ID.String(),
			TargetStatus:   subscriptiondomain.SubscriptionStatusClosed,
		})
		assert.ErrorIs(t, err, subscriptiondomain.ErrPermissionDenied)
	})

	t.Run("cannot confirm own subscription", func(t *testing.T) {
		sub := f.seed(t, subscriptiondomain.SubscriptionStatusDraft)

		_, err := f.svc.Transition(customerCtx(f.customer.ID), subscriptiondomain.TransitionRequest{
			SubscriptionID: sub.ID.String(),
			TargetStatus:   subscriptiondomain.SubscriptionStatusConfirmed,
		})
		assert.ErrorIs(t, err, subscriptiondomain.ErrPermissionDenied)
	})

	t.Run("transition validity is checked before permission", func(t *testing.T) {
		sub := f.seed(t, subscriptiondomain.SubscriptionStatusDraft)

		_, err := f.svc.Transition(customerCtx(f.customer.ID), subscriptiondomain.TransitionRequest{
			SubscriptionID: sub.ID.String(),
			TargetStatus:   subscriptiondomain.SubscriptionStatusActive,
		})
		assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidTransition)
	})
}

func TestTransitionUnknownSubscription(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Transition(staffCtx(), subscriptiondomain.TransitionRequest{
		SubscriptionID: f.node.Generate().String(),
		TargetStatus:   subscriptiondomain.SubscriptionStatusQuotation,
	})
	assert.ErrorIs(t, err, subscriptiondomain.ErrSubscriptionNotFound)
}

func TestDeleteOnlyRemovesDrafts(t *testing.T) {
	f := newFixture(t)

	draft := f.seed(t, subscriptiondomain.SubscriptionStatusDraft)
	active := f.seed(t, subscriptiondomain.SubscriptionStatusActive)

	require.NoError(t, f.svc.Delete(staffCtx(), draft.ID.String()))

	stored, err := subscriptionrepo.Provide().FindByID(context.Background(), f.db, draft.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	err = f.svc.Delete(staffCtx(), active.ID.String())
	assert.ErrorIs(t, err, subscriptiondomain.ErrNotDeletable)

	err = f.svc.Delete(customerCtx(f.customer.ID), active.ID.String())
	assert.ErrorIs(t, err, subscriptiondomain.ErrPermissionDenied)
}

func TestGetByIDScopesCustomerAccess(t *testing.T) {
	f := newFixture(t)
	sub := f.seed(t, subscriptiondomain.SubscriptionStatusActive)

	got, err := f.svc.GetByID(customerCtx(f.customer.ID), sub.ID.String())
	require.NoError(t, err)
	assert.Equal(t, sub.ID, got.ID)

	_, err = f.svc.GetByID(customerCtx(f.node.Generate()), sub.ID.String())
	assert.ErrorIs(t, err, subscriptiondomain.ErrPermissionDenied)
}

func TestListScopesCustomersToOwnSubscriptions(t *testing.T) {
	f := newFixture(t)
	own := f.seed(t, subscriptiondomain.SubscriptionStatusActive)

	other := customerdomain.Customer{
		ID:       f.node.Generate(),
		Name:     "Other Co",
		Email:    "other@acme.test",
		Currency: "USD",
		Metadata: datatypes.JSONMap{},
	}
	require.NoError(t, f.db.Create(&other).Error)

	foreign := f.seed(t, subscriptiondomain.SubscriptionStatusActive)
	require.NoError(t, f.db.Model(&subscriptiondomain.Subscription{}).
		Where("id = ?", foreign.ID).
		Update("customer_id", other.ID).Error)

	resp, err := f.svc.List(customerCtx(f.customer.ID), subscriptiondomain.ListSubscriptionRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Subscriptions, 1)
	assert.Equal(t, own.ID, resp.Subscriptions[0].ID)

	staffResp, err := f.svc.List(staffCtx(), subscriptiondomain.ListSubscriptionRequest{})
	require.NoError(t, err)
	assert.Len(t, staffResp.Subscriptions, 2)

	_, err = f.svc.List(staffCtx(), subscriptiondomain.ListSubscriptionRequest{Status: "bogus"})
	assert.ErrorIs(t, err, subscriptiondomain.ErrInvalidStatus)
}
