package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/subora/internal/plan/domain"
	"github.com/smallbiznis/subora/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) plandomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, plan *plandomain.Plan) error {
	return r.db.WithContext(ctx).Create(plan).Error
}

func (r *repository) Update(ctx context.Context, plan *plandomain.Plan) error {
	return r.db.WithContext(ctx).Save(plan).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*plandomain.Plan, error) {
	var plan plandomain.Plan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) List(ctx context.Context, req plandomain.ListRequest) ([]plandomain.Plan, error) {
	var items []plandomain.Plan
	stmt := r.db.WithContext(ctx).Model(&plandomain.Plan{})

	if req.Active != nil {
		stmt = stmt.Where("active = ?", *req.Active)
	}

	stmt = option.WithSortBy("created_at asc").Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
