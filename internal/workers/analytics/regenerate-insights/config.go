// internal/workers/analytics/regenerate-insights/config.go
package regenerateinsights

import (
	"time"

	"hms-analytics/internal/common/config"
)

const defaultTimeout = 2 * time.Minute

type Config struct {
	FixturePath string
	Timeout     time.Duration
}

// LoadConfig reads the fixture path and the worker's job timeout from the application config.
func LoadConfig(cfg *config.Config) *Config {
	timeout := config.GetDuration(config.GetWorkerConfig(cfg, TaskType).Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Config{
		FixturePath: cfg.Source.FixturePath,
		Timeout:     timeout,
	}
}
