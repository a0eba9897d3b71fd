// Package config assembles runtime configuration from defaults, an optional
// YAML file, FRAZA_* environment variables, and command-line flags, in that
// order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config is the full runtime configuration. The default settings apply to
// newly created users; existing users keep their own.
type Config struct {
	ListenAddr                    string  `koanf:"listen_addr" validate:"required"`
	DatabasePath                  string  `koanf:"database_path" validate:"required"`
	DefaultIntervalMultiplier     float64 `koanf:"default_interval_multiplier" validate:"gte=1,lte=10"`
	DefaultInitialIntervalMinutes int     `koanf:"default_initial_interval_minutes" validate:"gte=1,lte=1440"`
}

const envPrefix = "FRAZA_"

var defaults = map[string]any{
	"listen_addr":                      ":8080",
	"database_path":                    "fraza.db",
	"default_interval_multiplier":      2.0,
	"default_initial_interval_minutes": 5,
}

// Load builds the configuration. path may be empty (no config file); flags
// may be nil. Invalid configuration fails loudly rather than being clamped.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
