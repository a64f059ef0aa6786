package engine

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds engine configuration. Values come from the environment
// (HEARTH_* variables), optionally overlaid by a YAML file.
type Config struct {
	// Model is the default model identifier passed to the planner. Empty
	// means the client's default provider picks its catalog default.
	Model string `env:"HEARTH_MODEL" yaml:"model"`

	// Provider optionally pins the model provider.
	Provider string `env:"HEARTH_PROVIDER" yaml:"provider"`

	// RecursionLimit is the hard cap on planning iterations per run.
	// Reaching it is a fail-open stop, not an error.
	RecursionLimit int `env:"HEARTH_RECURSION_LIMIT" envDefault:"8" yaml:"recursion_limit"`

	// Debug enables verbose tracing of plan/execute/route transitions.
	Debug bool `env:"HEARTH_DEBUG" envDefault:"true" yaml:"debug"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		RecursionLimit: 8,
		Debug:          true,
	}
}

// ConfigFromEnv parses configuration from HEARTH_* environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse engine config: %w", err)
	}
	return cfg, nil
}

// ApplyFile overlays configuration from a YAML file. Zero-valued fields in
// the file leave the receiver untouched.
func (c *Config) ApplyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var overlay struct {
		Model          string `yaml:"model"`
		Provider       string `yaml:"provider"`
		RecursionLimit *int   `yaml:"recursion_limit"`
		Debug          *bool  `yaml:"debug"`
	}
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.RecursionLimit != nil {
		c.RecursionLimit = *overlay.RecursionLimit
	}
	if overlay.Debug != nil {
		c.Debug = *overlay.Debug
	}
	return nil
}

// normalize fills unset fields with defaults.
func (c *Config) normalize() {
	if c.RecursionLimit <= 0 {
		c.RecursionLimit = 8
	}
}
