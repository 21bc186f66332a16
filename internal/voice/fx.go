package voice

import (
	"github.com/smallbiznis/collecta/internal/voice/adapters"
	"github.com/smallbiznis/collecta/internal/voice/adapters/noop"
	"github.com/smallbiznis/collecta/internal/voice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("voice.service",
	fx.Provide(func() *adapters.Registry {
		return adapters.NewRegistry(noop.NewFactory())
	}),
	fx.Provide(service.NewService),
)
