package migration

import (
	auditdomain "github.com/smallbiznis/subora/internal/audit/domain"
	"github.com/smallbiznis/subora/internal/config"
	customerdomain "github.com/smallbiznis/subora/internal/customer/domain"
	discountdomain "github.com/smallbiznis/subora/internal/discount/domain"
	invoicedomain "github.com/smallbiznis/subora/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/subora/internal/payment/domain"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	"github.com/smallbiznis/subora/internal/seed"
	subscriptiondomain "github.com/smallbiznis/subora/internal/subscription/domain"
	taxdomain "github.com/smallbiznis/subora/internal/tax/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// non-postgres targets (sqlite in dev) sync the schema
			// from the models instead
			if err := conn.AutoMigrate(
				&plandomain.Plan{},
				&taxdomain.TaxDefinition{},
				&discountdomain.Discount{},
				&customerdomain.Customer{},
				&subscriptiondomain.Subscription{},
				&invoicedomain.Invoice{},
				&paymentdomain.Payment{},
				&auditdomain.AuditLog{},
			); err != nil {
				return err
			}
		}

		if cfg.SeedDemoData {
			return seed.EnsureDemoCatalog(conn)
		}
		return nil
	}),
)
