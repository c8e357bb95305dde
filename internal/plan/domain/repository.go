package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, plan *Plan) error
	Update(ctx context.Context, plan *Plan) error
	FindByID(ctx context.Context, id snowflake.ID) (*Plan, error)
	List(ctx context.Context, req ListRequest) ([]Plan, error)
}
