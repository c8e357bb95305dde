package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/subora/internal/audit"
	auditdomain "github.com/smallbiznis/subora/internal/audit/domain"
	"github.com/smallbiznis/subora/internal/authorization"
	"github.com/smallbiznis/subora/internal/config"
	"github.com/smallbiznis/subora/internal/customer"
	customerdomain "github.com/smallbiznis/subora/internal/customer/domain"
	"github.com/smallbiznis/subora/internal/discount"
	discountdomain "github.com/smallbiznis/subora/internal/discount/domain"
	"github.com/smallbiznis/subora/internal/invoice"
	invoicedomain "github.com/smallbiznis/subora/internal/invoice/domain"
	"github.com/smallbiznis/subora/internal/observability"
	obsmiddleware "github.com/smallbiznis/subora/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/subora/internal/observability/metrics"
	obstracing "github.com/smallbiznis/subora/internal/observability/tracing"
	"github.com/smallbiznis/subora/internal/payment"
	paymentdomain "github.com/smallbiznis/subora/internal/payment/domain"
	"github.com/smallbiznis/subora/internal/plan"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	"github.com/smallbiznis/subora/internal/providers"
	"github.com/smallbiznis/subora/internal/reporting"
	reportingdomain "github.com/smallbiznis/subora/internal/reporting/domain"
	"github.com/smallbiznis/subora/internal/subscription"
	subscriptiondomain "github.com/smallbiznis/subora/internal/subscription/domain"
	"github.com/smallbiznis/subora/internal/tax"
	taxdomain "github.com/smallbiznis/subora/internal/tax/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	providers.Module,
	plan.Module,
	tax.Module,
	discount.Module,
	customer.Module,
	subscription.Module,
	invoice.Module,
	payment.Module,
	reporting.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

// classifyErrorForLog mirrors the HTTP error mapping for request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	switch {
	case status >= http.StatusInternalServerError:
		return "internal_error", code
	case payload.Type == "validation_error":
		return "validation_error", code
	default:
		return payload.Type, code
	}
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	authzSvc        authorization.Service
	auditSvc        auditdomain.Service
	planSvc         plandomain.Service
	taxSvc          taxdomain.Service
	discountSvc     discountdomain.Service
	customerSvc     customerdomain.Service
	subscriptionSvc subscriptiondomain.Service
	invoiceSvc      invoicedomain.Service
	paymentSvc      paymentdomain.Service
	reportingSvc    reportingdomain.Service
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	AuthzSvc        authorization.Service
	AuditSvc        auditdomain.Service
	PlanSvc         plandomain.Service
	TaxSvc          taxdomain.Service
	DiscountSvc     discountdomain.Service
	CustomerSvc     customerdomain.Service
	SubscriptionSvc subscriptiondomain.Service
	InvoiceSvc      invoicedomain.Service
	PaymentSvc      paymentdomain.Service
	ReportingSvc    reportingdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		authzSvc:        p.AuthzSvc,
		auditSvc:        p.AuditSvc,
		planSvc:         p.PlanSvc,
		taxSvc:          p.TaxSvc,
		discountSvc:     p.DiscountSvc,
		customerSvc:     p.CustomerSvc,
		subscriptionSvc: p.SubscriptionSvc,
		invoiceSvc:      p.InvoiceSvc,
		paymentSvc:      p.PaymentSvc,
		reportingSvc:    p.ReportingSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.ActorContext())

	// pricing preview has no object of its own; staff quote with it
	api.POST("/pricing/preview", s.authorize(authorization.ObjectPlan, authorization.ActionView), s.PreviewPricing)

	// -------- Plans --------
	api.GET("/plans", s.authorize(authorization.ObjectPlan, authorization.ActionView), s.ListPlans)
	api.POST("/plans", s.authorize(authorization.ObjectPlan, authorization.ActionCreate), s.CreatePlan)
	api.GET("/plans/:id", s.authorize(authorization.ObjectPlan, authorization.ActionView), s.GetPlanByID)
	api.PATCH("/plans/:id", s.authorize(authorization.ObjectPlan, authorization.ActionUpdate), s.UpdatePlan)
	api.POST("/plans/:id/deactivate", s.authorize(authorization.ObjectPlan, authorization.ActionUpdate), s.DeactivatePlan)

	// -------- Taxes --------
	api.GET("/taxes", s.authorize(authorization.ObjectTax, authorization.ActionView), s.ListTaxes)
	api.POST("/taxes", s.authorize(authorization.ObjectTax, authorization.ActionCreate), s.CreateTax)
	api.GET("/taxes/:id", s.authorize(authorization.ObjectTax, authorization.ActionView), s.GetTaxByID)
	api.PATCH("/taxes/:id", s.authorize(authorization.ObjectTax, authorization.ActionUpdate), s.UpdateTax)
	api.POST("/taxes/:id/disable", s.authorize(authorization.ObjectTax, authorization.ActionUpdate), s.DisableTax)

	// -------- Discounts --------
	api.GET("/discounts", s.authorize(authorization.ObjectDiscount, authorization.ActionView), s.ListDiscounts)
	api.POST("/discounts", s.authorize(authorization.ObjectDiscount, authorization.ActionCreate), s.CreateDiscount)
	api.GET("/discounts/:id", s.authorize(authorization.ObjectDiscount, authorization.ActionView), s.GetDiscountByID)
	api.PATCH("/discounts/:id", s.authorize(authorization.ObjectDiscount, authorization.ActionUpdate), s.UpdateDiscount)
	api.POST("/discounts/:id/disable", s.authorize(authorization.ObjectDiscount, authorization.ActionUpdate), s.DisableDiscount)

	// -------- Customers --------
	api.GET("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.ListCustomers)
	api.POST("/customers", s.authorize(authorization.ObjectCustomer, authorization.ActionCreate), s.CreateCustomer)
	api.GET("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionView), s.GetCustomerByID)
	api.PATCH("/customers/:id", s.authorize(authorization.ObjectCustomer, authorization.ActionUpdate), s.UpdateCustomer)

	// -------- Subscriptions --------
	// The route gate is coarse; ownership and the per-transition rules
	// are enforced again inside the subscription service.
	api.GET("/subscriptions", s.authorize(authorization.ObjectSubscription, authorization.ActionView), s.ListSubscriptions)
	api.POST("/subscriptions", s.authorize(authorization.ObjectSubscription, authorization.ActionCreate), s.CreateSubscription)
	api.GET("/subscriptions/:id", s.authorize(authorization.ObjectSubscription, authorization.ActionView), s.GetSubscriptionByID)
	api.POST("/subscriptions/:id/transition", s.authorize(authorization.ObjectSubscription, authorization.ActionTransition), s.TransitionSubscription)
	api.DELETE("/subscriptions/:id", s.authorize(authorization.ObjectSubscription, authorization.ActionDelete), s.DeleteSubscription)

	// -------- Invoices --------
	api.GET("/invoices", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.ListInvoices)
	api.GET("/invoices/:id", s.authorize(authorization.ObjectInvoice, authorization.ActionView), s.GetInvoiceByID)
	api.POST("/invoices/:id/cancel", s.authorize(authorization.ObjectInvoice, authorization.ActionCancel), s.CancelInvoice)
	api.GET("/invoices/:id/render", s.authorize(authorization.ObjectInvoice, authorization.ActionRender), s.RenderInvoice)
	api.GET("/invoices/:id/payment", s.authorize(authorization.ObjectPayment, authorization.ActionView), s.GetInvoicePayment)

	// -------- Payments --------
	api.POST("/payments", s.authorize(authorization.ObjectPayment, authorization.ActionRegister), s.RegisterPayment)

	// -------- Reports --------
	api.GET("/reports/overview", s.authorize(authorization.ObjectReport, authorization.ActionView), s.GetReportingOverview)
	api.GET("/reports/revenue", s.authorize(authorization.ObjectReport, authorization.ActionView), s.GetReportingRevenue)
	api.GET("/reports/aging", s.authorize(authorization.ObjectReport, authorization.ActionView), s.GetReportingAging)

	// -------- Audit Logs --------
	api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionView), s.ListAuditLogs)
}
