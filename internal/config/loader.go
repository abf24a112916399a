package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if TIMESYNC_CONFIG is set
//  3. env (prefix TIMESYNC_)
func Load(_ context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("TIMESYNC_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: TIMESYNC_ADDR, TIMESYNC_DATABASE_URL, ...
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("TIMESYNC_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "timesync_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	switch {
	case cfg.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case cfg.DefaultCandidateCount < 1:
		return fmt.Errorf("%w: default_candidate_count must be >= 1", ErrInvalidConfig)
	case cfg.MaxCandidateCount < cfg.DefaultCandidateCount:
		return fmt.Errorf("%w: max_candidate_count must be >= default_candidate_count", ErrInvalidConfig)
	case cfg.DefaultMinPerGroup < 1:
		return fmt.Errorf("%w: default_min_per_group must be >= 1", ErrInvalidConfig)
	case cfg.SessionDeadlineMinutes < 1:
		return fmt.Errorf("%w: session_deadline_minutes must be >= 1", ErrInvalidConfig)
	}
	return nil
}
