package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	discountdomain "github.com/smallbiznis/subora/internal/discount/domain"
	"github.com/smallbiznis/subora/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) discountdomain.Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, discount *discountdomain.Discount) error {
	return r.db.WithContext(ctx).Create(discount).Error
}

func (r *repository) Update(ctx context.Context, discount *discountdomain.Discount) error {
	return r.db.WithContext(ctx).Save(discount).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*discountdomain.Discount, error) {
	var discount discountdomain.Discount
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&discount).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*discountdomain.Discount, error) {
	var discount discountdomain.Discount
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&discount).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

func (r *repository) List(ctx context.Context, filter discountdomain.ListRequest) ([]discountdomain.Discount, error) {
	var items []discountdomain.Discount
	stmt := r.db.WithContext(ctx).Model(&discountdomain.Discount{})

	if filter.Code != "" {
		stmt = stmt.Where("code = ?", filter.Code)
	}
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at": true,
		"updated_at": true,
		"code":       true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
