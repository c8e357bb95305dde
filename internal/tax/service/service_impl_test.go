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
	taxdomain "github.com/smallbiznis/subora/internal/tax/domain"
	taxrepo "github.com/smallbiznis/subora/internal/tax/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) taxdomain.Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&taxdomain.TaxDefinition{}))

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)

	return NewService(serviceParams{
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)),
		Repo:  taxrepo.NewRepository(db),
	})
}

func staffCtx() context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{Role: actorcontext.RoleInternal})
}

func TestCreateTaxDefinition(t *testing.T) {
	svc := newTestService(t)

	resp, err := svc.Create(staffCtx(), taxdomain.CreateRequest{
		Name:    "VAT",
		Kind:    "Percent",
		Percent: decimal.NewFromInt(20),
	})
	require.NoError(t, err)

	assert.Equal(t, "VAT", resp.Name)
	assert.Equal(t, taxdomain.TaxKindPercent, resp.Kind)
	assert.Equal(t, "20.00", resp.Percent.StringFixed(2))
	assert.True(t, resp.Active)
}

func TestCreateTaxValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create(staffCtx(), taxdomain.CreateRequest{
		Name:    "  ",
		Kind:    taxdomain.TaxKindPercent,
		Percent: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidName)

	_, err = svc.Create(staffCtx(), taxdomain.CreateRequest{
		Name:    "Compound",
		Kind:    "compound",
		Percent: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxKind)

	_, err = svc.Create(staffCtx(), taxdomain.CreateRequest{
		Name:    "Too Big",
		Kind:    taxdomain.TaxKindPercent,
		Percent: decimal.NewFromInt(101),
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxPercent)

	_, err = svc.Create(staffCtx(), taxdomain.CreateRequest{
		Name:    "Negative",
		Kind:    taxdomain.TaxKindPercent,
		Percent: decimal.NewFromInt(-1),
	})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxPercent)
}

func TestCreateTaxRequiresStaff(t *testing.T) {
	svc := newTestService(t)

	customer := actorcontext.WithActor(context.Background(), actorcontext.Actor{Role: actorcontext.RoleCustomer})
	_, err := svc.Create(customer, taxdomain.CreateRequest{
		Name:    "VAT",
		Kind:    taxdomain.TaxKindPercent,
		Percent: decimal.NewFromInt(20),
	})
	assert.ErrorIs(t, err, taxdomain.ErrPermissionDenied)
}

func TestFixedKindIsStorable(t *testing.T) {
	// fixed definitions may exist in the catalog even though the pricing
	// calculator refuses to apply them
	svc := newTestService(t)

	resp, err := svc.Create(staffCtx(), taxdomain.CreateRequest{
		Name:    "Stamp Duty",
		Kind:    taxdomain.TaxKindFixed,
		Percent: decimal.Zero,
	})
	require.NoError(t, err)
	assert.Equal(t, taxdomain.TaxKindFixed, resp.Kind)
}

func TestUpdateAndDisableTax(t *testing.T) {
	svc := newTestService(t)

	created, err := svc.Create(staffCtx(), taxdomain.CreateRequest{
		Name:    "Service Tax",
		Kind:    taxdomain.TaxKindPercent,
		Percent: decimal.NewFromInt(10),
	})
	require.NoError(t, err)

	newPercent := decimal.RequireFromString("12.50")
	updated, err := svc.Update(staffCtx(), taxdomain.UpdateRequest{ID: created.ID, Percent: &newPercent})
	require.NoError(t, err)
	assert.Equal(t, "12.50", updated.Percent.StringFixed(2))

	tooBig := decimal.NewFromInt(150)
	_, err = svc.Update(staffCtx(), taxdomain.UpdateRequest{ID: created.ID, Percent: &tooBig})
	assert.ErrorIs(t, err, taxdomain.ErrInvalidTaxPercent)

	disabled, err := svc.Disable(staffCtx(), created.ID)
	require.NoError(t, err)
	assert.False(t, disabled.Active)
}

func TestGetTaxByID(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetByID(staffCtx(), "garbage")
	assert.ErrorIs(t, err, taxdomain.ErrInvalidID)

	_, err = svc.GetByID(staffCtx(), "987654321")
	assert.ErrorIs(t, err, taxdomain.ErrNotFound)
}
