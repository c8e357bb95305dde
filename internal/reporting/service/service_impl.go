package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/subora/internal/actorcontext"
	"github.com/smallbiznis/subora/internal/clock"
	reportingdomain "github.com/smallbiznis/subora/internal/reporting/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
}

func NewService(p Params) reportingdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("reporting.service"),
		clock: p.Clock,
	}
}

func (s *Service) GetOverview(ctx context.Context, req reportingdomain.OverviewRequest) (reportingdomain.OverviewResponse, error) {
	if err := requireStaff(ctx); err != nil {
		return reportingdomain.OverviewResponse{}, err
	}

	currency := normalizeCurrency(req.Currency)

	resp := reportingdomain.OverviewResponse{
		Currency:      currency,
		PendingAmount: decimal.Zero,
		PaidRevenue:   decimal.Zero,
	}

	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM subscriptions WHERE status = ?`,
		"active",
	).Scan(&resp.ActiveSubscriptions).Error; err != nil {
		return reportingdomain.OverviewResponse{}, err
	}

	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM subscriptions WHERE status = ?`,
		"draft",
	).Scan(&resp.DraftSubscriptions).Error; err != nil {
		return reportingdomain.OverviewResponse{}, err
	}

	var pending struct {
		Count int64
		Total decimal.Decimal
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS count, COALESCE(SUM(amount), 0) AS total
		 FROM invoices WHERE status = ? AND currency = ?`,
		"pending",
		currency,
	).Scan(&pending).Error; err != nil {
		return reportingdomain.OverviewResponse{}, err
	}
	resp.PendingInvoices = pending.Count
	resp.PendingAmount = pending.Total

	var revenue decimal.Decimal
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE currency = ?`,
		currency,
	).Scan(&revenue).Error; err != nil {
		return reportingdomain.OverviewResponse{}, err
	}
	resp.PaidRevenue = revenue

	return resp, nil
}

func (s *Service) GetRevenue(ctx context.Context, req reportingdomain.RevenueRequest) (reportingdomain.RevenueResponse, error) {
	if err := requireStaff(ctx); err != nil {
		return reportingdomain.RevenueResponse{}, err
	}

	start := req.Start
	end := req.End
	if end.IsZero() {
		end = s.clock.Now()
	}
	if start.IsZero() {
		start = end.AddDate(0, -1, 0)
	}
	if start.After(end) {
		return reportingdomain.RevenueResponse{}, reportingdomain.ErrInvalidTimeRange
	}

	currency := normalizeCurrency(req.Currency)

	var row struct {
		Count int64
		Total decimal.Decimal
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) AS count, COALESCE(SUM(amount), 0) AS total
		 FROM payments
		 WHERE currency = ? AND paid_at >= ? AND paid_at <= ?`,
		currency,
		start,
		end,
	).Scan(&row).Error; err != nil {
		return reportingdomain.RevenueResponse{}, err
	}

	return reportingdomain.RevenueResponse{
		Currency: currency,
		Total:    row.Total,
		Payments: row.Count,
		HasData:  row.Count > 0,
	}, nil
}

var agingBuckets = []reportingdomain.AgingBucket{
	{Label: "0-30", MinDays: 0, MaxDays: intPtr(30)},
	{Label: "31-60", MinDays: 31, MaxDays: intPtr(60)},
	{Label: "60+", MinDays: 61},
}

func intPtr(v int) *int { return &v }

// GetAging buckets pending invoices by how far past due they are.
func (s *Service) GetAging(ctx context.Context, req reportingdomain.AgingRequest) (reportingdomain.AgingResponse, error) {
	if err := requireStaff(ctx); err != nil {
		return reportingdomain.AgingResponse{}, err
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}
	currency := normalizeCurrency(req.Currency)

	resp := reportingdomain.AgingResponse{
		Currency: currency,
		AsOf:     asOf,
		Buckets:  make([]reportingdomain.AgingBucket, 0, len(agingBuckets)),
	}

	for _, bucket := range agingBuckets {
		// due_date <= asOf - minDays, and for bounded buckets
		// due_date > asOf - (maxDays+1)
		upper := asOf.AddDate(0, 0, -bucket.MinDays)

		query := `SELECT COUNT(1) AS count, COALESCE(SUM(amount), 0) AS total
			 FROM invoices
			 WHERE status = ? AND currency = ? AND due_date <= ?`
		args := []any{"pending", currency, upper}

		if bucket.MaxDays != nil {
			lower := asOf.AddDate(0, 0, -(*bucket.MaxDays + 1))
			query += ` AND due_date > ?`
			args = append(args, lower)
		}

		var row struct {
			Count int64
			Total decimal.Decimal
		}
		if err := s.db.WithContext(ctx).Raw(query, args...).Scan(&row).Error; err != nil {
			return reportingdomain.AgingResponse{}, err
		}

		resp.Buckets = append(resp.Buckets, reportingdomain.AgingBucket{
			Label:    bucket.Label,
			MinDays:  bucket.MinDays,
			MaxDays:  bucket.MaxDays,
			Invoices: row.Count,
			Amount:   row.Total,
		})
	}

	return resp, nil
}

func requireStaff(ctx context.Context) error {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok || !actor.IsStaff() {
		return reportingdomain.ErrPermissionDenied
	}
	return nil
}

func normalizeCurrency(value string) string {
	currency := strings.ToUpper(strings.TrimSpace(value))
	if currency == "" {
		return "USD"
	}
	return currency
}
