package authorization

import (
	"context"
	_ "embed"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/smallbiznis/subora/internal/actorcontext"
	auditdomain "github.com/smallbiznis/subora/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectPlan         = "plan"
	ObjectTax          = "tax"
	ObjectDiscount     = "discount"
	ObjectCustomer     = "customer"
	ObjectSubscription = "subscription"
	ObjectInvoice      = "invoice"
	ObjectPayment      = "payment"
	ObjectReport       = "report"
	ObjectAuditLog     = "audit_log"
)

const (
	ActionView       = "view"
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionTransition = "transition"
	ActionCancel     = "cancel"
	ActionRegister   = "register"
	ActionRender     = "render"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role actorcontext.Role, object string, action string) error {
	if _, ok := actorcontext.ParseRole(string(role)); !ok {
		return ErrInvalidActor
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject := "role:" + string(role)
	allowed, err := s.enforcer.Enforce(subject, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.auditDenied(ctx, string(role), object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) auditDenied(ctx context.Context, role string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := object
	_ = s.auditSvc.Record(ctx, "authorization.denied", "authorization", &targetID, map[string]any{
		"role":   role,
		"object": object,
		"action": action,
	})
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	staffObjects := []string{
		ObjectPlan,
		ObjectTax,
		ObjectDiscount,
		ObjectCustomer,
		ObjectSubscription,
		ObjectInvoice,
		ObjectPayment,
		ObjectReport,
	}

	policies := [][]string{
		// customers read their own data; ownership is re-checked in the
		// feature services
		{"role:customer", ObjectCustomer, ActionView},
		{"role:customer", ObjectSubscription, ActionView},
		{"role:customer", ObjectSubscription, ActionTransition},
		{"role:customer", ObjectInvoice, ActionView},
		{"role:customer", ObjectInvoice, ActionRender},
		{"role:customer", ObjectPayment, ActionView},

		// destructive operations stay admin-only
		{"role:admin", ObjectSubscription, ActionDelete},
		{"role:admin", ObjectAuditLog, ActionView},
		{"role:internal", ObjectAuditLog, ActionView},
	}

	for _, object := range staffObjects {
		for _, action := range []string{ActionView, ActionCreate, ActionUpdate, ActionTransition, ActionCancel, ActionRegister, ActionRender} {
			policies = append(policies,
				[]string{"role:admin", object, action},
				[]string{"role:internal", object, action},
			)
		}
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
