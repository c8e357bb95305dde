package repository

import (
	"context"

	"github.com/smallbiznis/subora/pkg/db/option"
)

// Repository is a generic record store over a gorm model T. Feature
// repositories own writes with richer semantics; this store covers the
// query-by-example reads shared across services.
type Repository[T any] interface {
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	FindOne(ctx context.Context, query *T, opts ...option.QueryOption) (*T, error)
	Count(ctx context.Context, query *T) (int64, error)
}
