package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
)

// applyEnv overwrites every field tagged `env:"NAME"` that has a value in
// environment. Nested sections are walked; lists are comma separated. A nil
// environment reads the process environment.
func applyEnv(cfg *Config, environment map[string]string) error {
	if environment == nil {
		environment = env.ToMap(os.Environ())
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: environment}); err != nil {
		return fmt.Errorf("environment overrides: %w", err)
	}
	return nil
}
