package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if DUELO_CONFIG is set
//  3. env (prefix DUELO_), with a .env file loaded first if present
func Load(ctx context.Context) (*Config, error) {
	base := New()

	// A .env file, when present, feeds the env provider below. Absence
	// is not an error.
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv("DUELO_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: DUELO_BASE_K, DUELO_SAVE_DEBOUNCE_MS, ...
	// Map env keys like DUELO_BASE_K -> base_k (flat keys, underscores
	// preserved to match the koanf tags on the struct).
	envProvider := env.Provider("DUELO_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "duelo_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects configurations the engine cannot run with.
func (c *Config) validate() error {
	switch {
	case c.DataFile == "":
		return fmt.Errorf("%w: data_file must not be empty", ErrInvalidConfig)
	case c.BaseK <= 0:
		return fmt.Errorf("%w: base_k must be positive", ErrInvalidConfig)
	case c.UndoDepth < 0:
		return fmt.Errorf("%w: undo_depth must not be negative", ErrInvalidConfig)
	case c.SaveDebounceMS <= 0:
		return fmt.Errorf("%w: save_debounce_ms must be positive", ErrInvalidConfig)
	case c.UpsetProbeProbability < 0 || c.UpsetProbeProbability > 1:
		return fmt.Errorf("%w: upset_probe_probability must be in [0,1]", ErrInvalidConfig)
	}
	return nil
}
