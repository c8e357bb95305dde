package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Create(ctx context.Context, def *TaxDefinition) error
	Update(ctx context.Context, def *TaxDefinition) error
	FindByID(ctx context.Context, id snowflake.ID) (*TaxDefinition, error)
	List(ctx context.Context, filter ListRequest) ([]TaxDefinition, error)
}
