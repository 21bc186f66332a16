package escalation

import (
	"github.com/smallbiznis/collecta/internal/escalation/engine"
	"github.com/smallbiznis/collecta/internal/escalation/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("escalation.engine",
	fx.Provide(repository.Provide),
	fx.Provide(engine.NewOrchestrator),
)
