// Package runtimeconfig loads the handful of knobs that bound a VM run
// (step count, call stack depth) from the environment, via caarlos0/env
// rather than hand-rolling flag/env parsing.
package runtimeconfig

import "github.com/caarlos0/env/v6"

// Config holds the limits a machine.VM enforces against runaway guest
// programs. Zero means unbounded, matching machine.VM's own zero-value
// defaults.
type Config struct {
	MaxSteps          int `env:"STALL_MAX_STEPS" envDefault:"0"`
	MaxCallStackDepth int `env:"STALL_MAX_CALL_DEPTH" envDefault:"0"`
}

// Load reads Config from the process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
