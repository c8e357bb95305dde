package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/smallbiznis/subora/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() paymentdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *paymentdomain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, reference, invoice_id, customer_id, customer_email, currency, amount,
			method, status, paid_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.Reference,
		payment.InvoiceID,
		payment.CustomerID,
		payment.CustomerEmail,
		payment.Currency,
		payment.Amount,
		payment.Method,
		payment.Status,
		payment.PaidAt,
		payment.CreatedAt,
	).Error
}

func (r *repo) FindByInvoiceID(ctx context.Context, db *gorm.DB, invoiceID snowflake.ID) (*paymentdomain.Payment, error) {
	var payment paymentdomain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, reference, invoice_id, customer_id, customer_email, currency, amount,
		 method, status, paid_at, created_at
		 FROM payments WHERE invoice_id = ?`,
		invoiceID,
	).Scan(&payment).Error
	if err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}
