package debtcase

import (
	"github.com/smallbiznis/collecta/internal/cache"
	"github.com/smallbiznis/collecta/internal/debtcase/repository"
	"github.com/smallbiznis/collecta/internal/debtcase/service"
	"go.uber.org/fx"
)

var Module = fx.Module("debtcase.service",
	fx.Provide(cache.NewContactCache),
	fx.Provide(repository.Provide),
	fx.Provide(repository.NewContactResolver),
	fx.Provide(service.NewService),
)
