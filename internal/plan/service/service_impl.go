package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/subora/internal/actorcontext"
	"github.com/smallbiznis/subora/internal/clock"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  plandomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  plandomain.Repository
}

func NewService(p serviceParams) plandomain.Service {
	return &Service{
		log:   p.Log.Named("plan.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req plandomain.CreateRequest) (*plandomain.Response, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	interval := 1
	if req.BillingInterval != nil {
		interval = *req.BillingInterval
	}

	now := s.clock.Now()
	record := &plandomain.Plan{
		ID:              s.genID.Generate(),
		Code:            slug.Make(name),
		Name:            name,
		Price:           req.Price,
		BillingPeriod:   normalizeBillingPeriod(req.BillingPeriod),
		BillingInterval: interval,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}

	resp := toResponse(record)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req plandomain.ListRequest) ([]plandomain.Response, error) {
	items, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, err
	}

	resp := make([]plandomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*plandomain.Response, error) {
	planID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, plandomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, plandomain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req plandomain.UpdateRequest) (*plandomain.Response, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}

	planID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, plandomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, plandomain.ErrNotFound
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.BillingPeriod != nil {
		item.BillingPeriod = normalizeBillingPeriod(*req.BillingPeriod)
	}
	if req.BillingInterval != nil {
		item.BillingInterval = *req.BillingInterval
	}

	item.UpdatedAt = s.clock.Now()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Deactivate(ctx context.Context, id string) (*plandomain.Response, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}

	planID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, plandomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, plandomain.ErrNotFound
	}

	item.Active = false
	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}

	resp := toResponse(item)
	return &resp, nil
}

func requireStaff(ctx context.Context) error {
	actor, ok := actorcontext.ActorFromContext(ctx)
	if !ok || !actor.IsStaff() {
		return plandomain.ErrPermissionDenied
	}
	return nil
}

func normalizeBillingPeriod(value plandomain.BillingPeriod) plandomain.BillingPeriod {
	return plandomain.BillingPeriod(strings.ToLower(strings.TrimSpace(string(value))))
}

func toResponse(plan *plandomain.Plan) plandomain.Response {
	return plandomain.Response{
		ID:              plan.ID.String(),
		Code:            plan.Code,
		Name:            plan.Name,
		Price:           plan.Price,
		BillingPeriod:   plan.BillingPeriod,
		BillingInterval: plan.BillingInterval,
		Active:          plan.Active,
		CreatedAt:       plan.CreatedAt,
		UpdatedAt:       plan.UpdatedAt,
	}
}
