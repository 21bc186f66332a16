package scheduler

import "time"

// Config controls the background sweep and default detection cadence.
type Config struct {
	Enabled        bool
	SweepInterval  time.Duration
	DetectInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Enabled:        true,
		SweepInterval:  5 * time.Minute,
		DetectInterval: 30 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.SweepInterval <= 0 {
		c.SweepInterval = defaults.SweepInterval
	}

	if c.DetectInterval <= 0 {
		c.DetectInterval = defaults.DetectInterval
	}
	return c
}
