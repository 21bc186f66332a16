package campaign

import (
	"github.com/smallbiznis/collecta/internal/campaign/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("campaign",
	fx.Provide(repository.Provide),
)
