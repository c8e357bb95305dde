package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/smallbiznis/subora/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() subscriptiondomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, customer_id, customer_name, customer_email, plan_id, plan_name, tax_id, discount_id,
			status, currency, subtotal, discount_amount, tax_amount, amount,
			billing_period, billing_interval, start_date, next_billing_date,
			confirmed_at, activated_at, closed_at, cancelled_at, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.CustomerID,
		subscription.CustomerName,
		subscription.CustomerEmail,
		subscription.PlanID,
		subscription.PlanName,
		subscription.TaxID,
		subscription.DiscountID,
		subscription.Status,
		subscription.Currency,
		subscription.Subtotal,
		subscription.DiscountAmount,
		subscription.TaxAmount,
		subscription.Amount,
		subscription.BillingPeriod,
		subscription.BillingInterval,
		subscription.StartDate,
		subscription.NextBillingDate,
		subscription.ConfirmedAt,
		subscription.ActivatedAt,
		subscription.ClosedAt,
		subscription.CancelledAt,
		subscription.Metadata,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) UpdateLifecycle(ctx context.Context, db *gorm.DB, subscription *subscriptiondomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions
		 SET status = ?, confirmed_at = ?, activated_at = ?, closed_at = ?, cancelled_at = ?, updated_at = ?
		 WHERE id = ?`,
		subscription.Status,
		subscription.ConfirmedAt,
		subscription.ActivatedAt,
		subscription.ClosedAt,
		subscription.CancelledAt,
		subscription.UpdatedAt,
		subscription.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM subscriptions WHERE id = ?`,
		id,
	).Error
}

const subscriptionColumns = `id, customer_id, customer_name, customer_email, plan_id, plan_name, tax_id, discount_id,
	 status, currency, subtotal, discount_amount, tax_amount, amount,
	 billing_period, billing_interval, start_date, next_billing_date,
	 confirmed_at, activated_at, closed_at, cancelled_at, metadata, created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*subscriptiondomain.Subscription, error) {
	// sqlite locks the whole database per write transaction and has no
	// FOR UPDATE syntax.
	lock := " FOR UPDATE"
	if db.Dialector.Name() == "sqlite" {
		lock = ""
	}

	var subscription subscriptiondomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`+lock,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}
