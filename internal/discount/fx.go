package discount

import (
	"github.com/smallbiznis/subora/internal/discount/repository"
	"github.com/smallbiznis/subora/internal/discount/service"
	"go.uber.org/fx"
)

var Module = fx.Module("discount.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
