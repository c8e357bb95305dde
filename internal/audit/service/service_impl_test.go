package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/subora/internal/actorcontext"
	auditdomain "github.com/smallbiznis/subora/internal/audit/domain"
	auditrepo "github.com/smallbiznis/subora/internal/audit/repository"
	"github.com/smallbiznis/subora/internal/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(10)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC))
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  auditrepo.Provide(),
	})
	return svc, clk
}

func staffCtx() context.Context {
	return actorcontext.WithActor(context.Background(), actorcontext.Actor{Role: actorcontext.RoleAdmin})
}

func TestRecordAndList(t *testing.T) {
	svc, _ := newTestService(t)

	target := "12345"
	require.NoError(t, svc.Record(staffCtx(), "plan.created", "plan", &target, map[string]any{
		"name": "Monthly Pro",
	}))
	require.NoError(t, svc.Record(staffCtx(), "plan.updated", "plan", &target, nil))

	resp, err := svc.List(staffCtx(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 2)

	// newest first
	assert.Equal(t, "plan.updated", resp.AuditLogs[0].Action)
	assert.Equal(t, "plan.created", resp.AuditLogs[1].Action)
	assert.Equal(t, "admin", resp.AuditLogs[0].ActorType)
	require.NotNil(t, resp.AuditLogs[1].TargetID)
	assert.Equal(t, target, *resp.AuditLogs[1].TargetID)
}

func TestRecordMasksSensitiveMetadata(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Record(staffCtx(), "payment.registered", "invoice", nil, map[string]any{
		"customer_email": "billing@acme.test",
		"amount":         "118.80",
	}))

	resp, err := svc.List(staffCtx(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	metadata := resp.AuditLogs[0].Metadata
	assert.Equal(t, "b****@acme.test", metadata["customer_email"])
	assert.Equal(t, "118.80", metadata["amount"])
}

func TestRecordRejectsEmptyAction(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Record(staffCtx(), "   ", "plan", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestRecordCapturesSystemActor(t *testing.T) {
	svc, _ := newTestService(t)

	require.NoError(t, svc.Record(context.Background(), "subscription.transitioned", "subscription", nil, nil))

	resp, err := svc.List(staffCtx(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, string(auditdomain.ActorTypeSystem), resp.AuditLogs[0].ActorType)
	assert.Nil(t, resp.AuditLogs[0].ActorID)
}

func TestListFilters(t *testing.T) {
	svc, clk := newTestService(t)

	require.NoError(t, svc.Record(staffCtx(), "plan.created", "plan", nil, nil))
	clk.Advance(time.Hour)
	require.NoError(t, svc.Record(staffCtx(), "invoice.cancelled", "invoice", nil, nil))

	resp, err := svc.List(staffCtx(), auditdomain.ListAuditLogRequest{Action: "plan.created"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "plan.created", resp.AuditLogs[0].Action)

	resp, err = svc.List(staffCtx(), auditdomain.ListAuditLogRequest{TargetType: "invoice"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "invoice.cancelled", resp.AuditLogs[0].Action)
}

func TestListRejectsInvalidInput(t *testing.T) {
	svc, clk := newTestService(t)

	customer := actorcontext.WithActor(context.Background(), actorcontext.Actor{Role: actorcontext.RoleCustomer})
	_, err := svc.List(customer, auditdomain.ListAuditLogRequest{})
	assert.ErrorIs(t, err, auditdomain.ErrPermissionDenied)

	now := clk.Now()
	earlier := now.Add(-time.Hour)
	_, err = svc.List(staffCtx(), auditdomain.ListAuditLogRequest{StartAt: &now, EndAt: &earlier})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)

	req := auditdomain.ListAuditLogRequest{}
	req.PageToken = "not-a-cursor"
	_, err = svc.List(staffCtx(), req)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
