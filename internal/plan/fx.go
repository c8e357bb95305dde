package plan

import (
	"github.com/smallbiznis/subora/internal/plan/repository"
	"github.com/smallbiznis/subora/internal/plan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("plan.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
