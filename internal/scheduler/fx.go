package scheduler

import (
	"context"

	"github.com/smallbiznis/collecta/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(provideConfig),
	fx.Provide(NewScheduler),
	fx.Invoke(runScheduler),
)

func provideConfig(cfg config.Config) Config {
	return Config{
		Enabled:        cfg.Worker.Enabled,
		SweepInterval:  cfg.Worker.SweepInterval,
		DetectInterval: cfg.Worker.DetectInterval,
	}
}

func runScheduler(lc fx.Lifecycle, scheduler *Scheduler) {
	if !scheduler.cfg.Enabled {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go scheduler.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
