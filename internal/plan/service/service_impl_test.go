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
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	planrepo "github.com/smallbiznis/subora/internal/plan/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) plandomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&plandomain.Plan{}))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	return NewService(serviceParams{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)),
		Repo:  planrepo.NewRepository(db),
	})
}

func staffCtx() context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{Role: actorcontext.RoleAdmin})
}

func TestCreatePlan(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.Create(staffCtx(), plandomain.CreateRequest{
		Name:          "Monthly Pro",
		Price:         decimal.RequireFromString("99.00"),
		BillingPeriod: "Monthly",
	})
	require.NoError(t, err)

	assert.Equal(t, "monthly-pro", resp.Code)
	assert.Equal(t, "Monthly Pro", resp.Name)
	assert.Equal(t, plandomain.BillingPeriodMonthly, resp.BillingPeriod)
	assert.Equal(t, 1, resp.BillingInterval)
	assert.True(t, resp.Active)
}

func TestCreatePlanValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(staffCtx(), plandomain.CreateRequest{
		Name:          "",
		Price:         decimal.NewFromInt(10),
		BillingPeriod: plandomain.BillingPeriodMonthly,
	})
	assert.ErrorIs(t, err, plandomain.ErrInvalidName)

	_, err = svc.Create(staffCtx(), plandomain.CreateRequest{
		Name:          "Bad Price",
		Price:         decimal.NewFromInt(-1),
		BillingPeriod: plandomain.BillingPeriodMonthly,
	})
	assert.ErrorIs(t, err, plandomain.ErrInvalidPrice)

	_, err = svc.Create(staffCtx(), plandomain.CreateRequest{
		Name:          "Bad Period",
		Price:         decimal.NewFromInt(10),
		BillingPeriod: "fortnightly",
	})
	assert.ErrorIs(t, err, plandomain.ErrInvalidBillingPeriod)

	zero := 0
	_, err = svc.Create(staffCtx(), plandomain.CreateRequest{
		Name:            "Bad Interval",
		Price:           decimal.NewFromInt(10),
		BillingPeriod:   plandomain.BillingPeriodMonthly,
		BillingInterval: &zero,
	})
	assert.ErrorIs(t, err, plandomain.ErrInvalidBillingInterval)
}

func TestCreatePlanRequiresStaff(t *testing.T) {
	svc := newTestService(t)

	req := plandomain.CreateRequest{
		Name:          "Monthly Basic",
		Price:         decimal.NewFromInt(29),
		BillingPeriod: plandomain.BillingPeriodMonthly,
	}

	_, err := svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, plandomain.ErrPermissionDenied)

	customer := actorcontext.WithActor(context.Background(), actorcontext.Actor{Role: actorcontext.RoleCustomer})
	_, err = svc.Create(customer, req)
	assert.ErrorIs(t, err, plandomain.ErrPermissionDenied)
}

func TestUpdatePlan(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(staffCtx(), plandomain.CreateRequest{
		Name:          "Yearly Basic",
		Price:         decimal.NewFromInt(290),
		BillingPeriod: plandomain.BillingPeriodYearly,
	})
	require.NoError(t, err)

	newName := "Yearly Basic v2"
	newPrice := decimal.RequireFromString("310.00")
	updated, err := svc.Update(staffCtx(), plandomain.UpdateRequest{
		ID:    created.ID,
		Name:  &newName,
		Price: &newPrice,
	})
	require.NoError(t, err)

	assert.Equal(t, newName, updated.Name)
	assert.Equal(t, "310.00", updated.Price.StringFixed(2))

	bad := decimal.NewFromInt(-5)
	_, err = svc.Update(staffCtx(), plandomain.UpdateRequest{ID: created.ID, Price: &bad})
	assert.ErrorIs(t, err, plandomain.ErrInvalidPrice)
}

func TestDeactivatePlan(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(staffCtx(), plandomain.CreateRequest{
		Name:          "Monthly Pro",
		Price:         decimal.NewFromInt(99),
		BillingPeriod: plandomain.BillingPeriodMonthly,
	})
	require.NoError(t, err)

	deactivated, err := svc.Deactivate(staffCtx(), created.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)

	active := true
	listed, err := svc.List(staffCtx(), plandomain.ListRequest{Active: &active})
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestGetPlanByID(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByID(staffCtx(), "junk")
	assert.ErrorIs(t, err, plandomain.ErrInvalidID)

	_, err = svc.GetByID(staffCtx(), "123456789")
	assert.ErrorIs(t, err, plandomain.ErrNotFound)
}
