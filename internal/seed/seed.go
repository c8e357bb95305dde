// Package seed bootstraps a demo catalog so a fresh install has plans,
// taxes and discounts to subscribe against.
package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	discountdomain "github.com/smallbiznis/subora/internal/discount/domain"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	taxdomain "github.com/smallbiznis/subora/internal/tax/domain"
	"gorm.io/gorm"
)

// EnsureDemoCatalog inserts the demo plans, taxes and discounts when
// they are missing. Existing rows are left untouched, so it is safe to
// run on every startup.
func EnsureDemoCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensurePlans(tx, node); err != nil {
			return err
		}
		if err := ensureTaxes(tx, node); err != nil {
			return err
		}
		return ensureDiscounts(tx, node)
	})
}

func ensurePlans(tx *gorm.DB, node *snowflake.Node) error {
	plans := []plandomain.Plan{
		{Code: "MONTHLY-BASIC", Name: "Monthly Basic", Price: decimal.NewFromInt(29), BillingPeriod: plandomain.BillingPeriodMonthly},
		{Code: "YEARLY-BASIC", Name: "Yearly Basic", Price: decimal.NewFromInt(290), BillingPeriod: plandomain.BillingPeriodYearly},
		{Code: "MONTHLY-PRO", Name: "Monthly Pro", Price: decimal.NewFromInt(99), BillingPeriod: plandomain.BillingPeriodMonthly},
		{Code: "YEARLY-PRO", Name: "Yearly Pro", Price: decimal.NewFromInt(990), BillingPeriod: plandomain.BillingPeriodYearly},
	}

	for _, plan := range plans {
		var existing plandomain.Plan
		if err := tx.Where("code = ?", plan.Code).First(&existing).Error; err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		plan.ID = node.Generate()
		plan.BillingInterval = 1
		plan.Active = true
		if err := tx.Create(&plan).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureTaxes(tx *gorm.DB, node *snowflake.Node) error {
	taxes := []taxdomain.TaxDefinition{
		{Name: "VAT", Percent: decimal.NewFromInt(20)},
		{Name: "Service Tax", Percent: decimal.NewFromInt(10)},
		{Name: "No Tax", Percent: decimal.Zero},
	}

	for _, tax := range taxes {
		var existing taxdomain.TaxDefinition
		if err := tx.Where("name = ?", tax.Name).First(&existing).Error; err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		tax.ID = node.Generate()
		tax.Kind = taxdomain.TaxKindPercent
		tax.Active = true
		if err := tx.Create(&tax).Error; err != nil {
			return err
		}
	}
	return nil
}

func ensureDiscounts(tx *gorm.DB, node *snowflake.Node) error {
	discounts := []discountdomain.Discount{
		{Code: "EARLY10", Name: "Early Bird", Type: discountdomain.DiscountTypePercent, Value: decimal.NewFromInt(10)},
		{Code: "FLAT50", Name: "Flat Fifty", Type: discountdomain.DiscountTypeFixed, Value: decimal.NewFromInt(50)},
	}

	for _, discount := range discounts {
		var existing discountdomain.Discount
		if err := tx.Where("code = ?", discount.Code).First(&existing).Error; err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		discount.ID = node.Generate()
		discount.Active = true
		if err := tx.Create(&discount).Error; err != nil {
			return err
		}
	}
	return nil
}
