package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/subora/internal/actorcontext"
	"github.com/smallbiznis/subora/internal/clock"
	discountdomain "github.com/smallbiznis/subora/internal/discount/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type serviceParams struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  discountdomain.Repository
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  discountdomain.Repository
}

func NewService(p serviceParams) discountdomain.Service {
	return &Service{
		log:   p.Log.Named("discount.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, req discountdomain.ListRequest) ([]discountdomain.Response, error) {
	filter := discountdomain.ListRequest{
		Code:    normalizeCode(req.Code),
		Active:  req.Active,
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]discountdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}

	return resp, nil
}

func (s *Service) Create(ctx context.Context, req discountdomain.CreateRequest) (*discountdomain.Response, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, discountdomain.ErrInvalidName
	}

	code := normalizeCode(req.Code)
	if code == "" {
		code = strings.ToUpper(slug.Make(name))
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	record := &discountdomain.Discount{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		Type:      normalizeType(req.Type),
		Value:     req.Value,
		Active:    active,
		CreatedAt: now,
		UpdatedAt: now,
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

func (s *Service) GetByID(ctx context.Context, id string) (*discountdomain.Response, error) {
	discountID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, discountdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, discountID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, discountdomain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req discountdomain.UpdateRequest) (*discountdomain.Response, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}

	discountID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, discountdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, discountID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, discountdomain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, discountdomain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Value != nil {
		item.Value = *req.Value
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

func (s *Service) Disable(ctx context.Context, id string) (*discountdomain.Response, error) {
	if err := requireStaff(ctx); err != nil {
		return nil, err
	}

	discountID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, discountdomain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, discountID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, discountdomain.ErrNotFound
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
		return discountdomain.ErrPermissionDenied
	}
	return nil
}

func toResponse(discount *discountdomain.Discount) discountdomain.Response {
	return discountdomain.Response{
		ID:        discount.ID.String(),
		Code:      discount.Code,
		Name:      discount.Name,
		Type:      discount.Type,
		Value:     discount.Value,
		Active:    discount.Active,
		CreatedAt: discount.CreatedAt,
		UpdatedAt: discount.UpdatedAt,
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeType(value discountdomain.DiscountType) discountdomain.DiscountType {
	return discountdomain.DiscountType(strings.ToLower(strings.TrimSpace(string(value))))
}
