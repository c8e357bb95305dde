package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, discount *Discount) error
	Update(ctx context.Context, discount *Discount) error
	FindByID(ctx context.Context, id snowflake.ID) (*Discount, error)
	FindByCode(ctx context.Context, code string) (*Discount, error)
	List(ctx context.Context, filter ListRequest) ([]Discount, error)
}
