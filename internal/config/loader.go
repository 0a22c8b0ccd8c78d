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

const (
	// EnvConfigPath names the env var holding the YAML config path.
	EnvConfigPath = "LIVELOX_CONFIG"
	envPrefix     = "LIVELOX_"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if LIVELOX_CONFIG is set
//  3. env (prefix LIVELOX_)
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, os.Getenv(EnvConfigPath))
}

// LoadFrom is Load with an explicit file path. An empty path skips the file layer.
func LoadFrom(ctx context.Context, path string) (*Config, error) {
	base := New(ctx)

	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: file %s: %v", ErrLoadConfig, path, err)
		}
	}

	// LIVELOX_FUZZY_FLOOR -> fuzzy_floor (flat keys, underscores kept).
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, strings.ToLower(envPrefix))
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges the pipeline relies on.
func (c *Config) Validate() error {
	switch {
	case c.FuzzyFloor <= 0 || c.FuzzyFloor > 1:
		return fmt.Errorf("%w: fuzzy_floor must be in (0,1], got %v", ErrInvalidConfig, c.FuzzyFloor)
	case c.FuzzyMargin < 0 || c.FuzzyMargin >= 1:
		return fmt.Errorf("%w: fuzzy_margin must be in [0,1), got %v", ErrInvalidConfig, c.FuzzyMargin)
	case c.ContentDedupeWindow <= 0 || c.SignalDedupeWindow <= 0:
		return fmt.Errorf("%w: dedupe windows must be positive", ErrInvalidConfig)
	case c.SeasonWeight < 0 || c.RecentWeight < 0 || c.SeasonWeight+c.RecentWeight == 0:
		return fmt.Errorf("%w: blend weights must be non-negative and not both zero", ErrInvalidConfig)
	case c.LeaguePace <= 0 || c.ReferenceDRtg <= 0:
		return fmt.Errorf("%w: league_pace and reference_drtg must be positive", ErrInvalidConfig)
	case c.WorkerCount < 1 || c.QueueSize < 1:
		return fmt.Errorf("%w: worker_count and queue_size must be positive", ErrInvalidConfig)
	case c.NearLockStartHour < 0 || c.NearLockStartHour > 23 || c.NearLockEndHour < 0 || c.NearLockEndHour > 23:
		return fmt.Errorf("%w: near-lock hours must be in 0..23", ErrInvalidConfig)
	case c.DatabasePath == "":
		return fmt.Errorf("%w: database_path must not be empty", ErrInvalidConfig)
	}

	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}

	for name, tier := range c.SourceTiers {
		if tier < 1 || tier > 3 {
			return fmt.Errorf("%w: source_tiers[%s] must be 1..3, got %d", ErrInvalidConfig, name, tier)
		}
	}
	for _, group := range [][]KeywordRule{c.StatusKeywords, c.MinutesKeywords, c.LineupKeywords} {
		for _, r := range group {
			if strings.TrimSpace(r.Phrase) == "" || strings.TrimSpace(r.Classification) == "" {
				return fmt.Errorf("%w: keyword rules need phrase and classification", ErrInvalidConfig)
			}
		}
	}
	if strings.TrimSpace(c.MetricsNamespace) == "" {
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	for i := 1; i < len(c.MetricsLatencyBuckets); i++ {
		if c.MetricsLatencyBuckets[i] <= c.MetricsLatencyBuckets[i-1] {
			return fmt.Errorf("%w: metrics_latency_buckets must be strictly increasing", ErrInvalidConfig)
		}
	}
		for name, r := range c.Rules {
		if err := r.validate(); err != nil {
			return fmt.Errorf("%w: rules[%s]: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}

func (r RuleEffect) validate() error {
	switch strings.ToLower(strings.TrimSpace(r.Taxonomy)) {
	case "", "status", "minutes", "lineup":
	default:
		return fmt.Errorf("unknown taxonomy %q", r.Taxonomy)
	}
	switch strings.ToUpper(strings.TrimSpace(r.Confidence)) {
	case "", "HIGH", "MEDIUM", "LOW":
	default:
		return fmt.Errorf("unknown confidence %q", r.Confidence)
	}
	switch {
	case r.Severity < 0:
		return fmt.Errorf("severity must not be negative")
	case r.MinutesMultiplier != nil && *r.MinutesMultiplier < 0,
		r.LineupMultiplier != nil && *r.LineupMultiplier < 0:
		return fmt.Errorf("multipliers must not be negative")
	case r.MinutesCap != nil && *r.MinutesCap < 0:
		return fmt.Errorf("minutes_cap must not be negative")
	}
	return nil
}
