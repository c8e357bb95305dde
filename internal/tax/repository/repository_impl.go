package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	taxdomain "github.com/smallbiznis/subora/internal/tax/domain"
	"github.com/smallbiznis/subora/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) taxdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, def *taxdomain.TaxDefinition) error {
	return r.db.WithContext(ctx).Create(def).Error
}

func (r *repository) Update(ctx context.Context, def *taxdomain.TaxDefinition) error {
	return r.db.WithContext(ctx).Save(def).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*taxdomain.TaxDefinition, error) {
	var def taxdomain.TaxDefinition
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&def).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &def, nil
}

func (r *repository) List(ctx context.Context, filter taxdomain.ListRequest) ([]taxdomain.TaxDefinition, error) {
	var items []taxdomain.TaxDefinition
	stmt := r.db.WithContext(ctx).Model(&taxdomain.TaxDefinition{})

	if filter.Name != "" {
		stmt = stmt.Where("name = ?", filter.Name)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
