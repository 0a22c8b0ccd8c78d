// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
//   - New(ctx) builds a Config holding every default.
//   - Load(ctx) layers a YAML file and LIVELOX_* env vars over the defaults.
//   - Tables (aliases, keyword rules, rule effects) extend the built-in ones.
package config

import (
	"context"
	"runtime"
	"time"
)

// KeywordRule maps a phrase to a classification. Configured rules are
// consulted before the built-in table of the same taxonomy.
type KeywordRule struct {
	Phrase         string `koanf:"phrase"`
	Classification string `koanf:"classification"`
}

// RuleEffect overrides or adds one row of the assumption rule tables.
type RuleEffect struct {
	Taxonomy          string   `koanf:"taxonomy"`
	MinutesMultiplier *float64 `koanf:"minutes_multiplier"`
	MinutesCap        *int     `koanf:"minutes_cap"`
	LineupMultiplier  *float64 `koanf:"lineup_multiplier"`
	Confidence        string   `koanf:"confidence"`
	Severity          int      `koanf:"severity"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// DatabasePath is the SQLite file backing the assumption and projection
	// stores. ":memory:" keeps everything in process.
	DatabasePath string `koanf:"database_path"`

	// RedisAddr switches the deduplicator to Redis when set, so several
	// pollers share one window.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPrefix   string `koanf:"redis_prefix"`

	// WorkerCount sets the number of pipeline workers.
	WorkerCount int `koanf:"worker_count"`
	// QueueSize bounds the per-run item queue.
	QueueSize int `koanf:"queue_size"`
	// ProjectionConcurrency bounds projection fan-out.
	ProjectionConcurrency int `koanf:"projection_concurrency"`

	// DedupeMaxSize caps keys held per in-memory window (0 = unbounded).
	DedupeMaxSize int `koanf:"dedupe_max_size"`
	// ContentDedupeWindow suppresses re-ingesting the same item.
	ContentDedupeWindow time.Duration `koanf:"content_dedupe_window"`
	// SignalDedupeWindow suppresses repeated confirmations of one fact.
	SignalDedupeWindow time.Duration `koanf:"signal_dedupe_window"`

	// FuzzyFloor is the minimum similarity for a fuzzy match.
	FuzzyFloor float64 `koanf:"fuzzy_floor"`
	// FuzzyMargin is the minimum lead over the runner-up.
	FuzzyMargin float64 `koanf:"fuzzy_margin"`

	// SeasonWeight and RecentWeight blend season and last-N averages.
	SeasonWeight float64 `koanf:"season_weight"`
	RecentWeight float64 `koanf:"recent_weight"`
	// LeaguePace normalizes opponent pace.
	LeaguePace float64 `koanf:"league_pace"`
	// ReferenceDRtg is the numerator of the defense factor.
	ReferenceDRtg float64 `koanf:"reference_drtg"`

	// NearLockStartHour and NearLockEndHour bound the pre-lock window in
	// NearLockTimezone. Runs inside it are tagged in logs.
	NearLockStartHour int    `koanf:"near_lock_start_hour"`
	NearLockEndHour   int    `koanf:"near_lock_end_hour"`
	NearLockTimezone  string `koanf:"near_lock_timezone"`

	// SourceTiers maps source names to reliability tiers.
	SourceTiers map[string]int `koanf:"source_tiers"`
	// Aliases maps nicknames to canonical roster names.
	Aliases map[string]string `koanf:"aliases"`

	StatusKeywords  []KeywordRule `koanf:"status_keywords"`
	MinutesKeywords []KeywordRule `koanf:"minutes_keywords"`
	LineupKeywords  []KeywordRule `koanf:"lineup_keywords"`

	// Rules overrides or extends the classification effect tables.
	Rules map[string]RuleEffect `koanf:"rules"`

	// MetricsNamespace and MetricsSubsystem prefix every series.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsLatencyBuckets are the millisecond histogram buckets. Empty
	// keeps the built-in ones.
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
	// MetricsLabels are attached to every series, e.g. {season: "2026-27"}.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults. Context is accepted first to
// keep the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		DatabasePath:          "livelox.db",
		RedisPrefix:           "livelox:",
		WorkerCount:           runtime.NumCPU() * 2,
		QueueSize:             10_000,
		ProjectionConcurrency: runtime.NumCPU(),
		DedupeMaxSize:         500_000,
		ContentDedupeWindow:   24 * time.Hour,
		SignalDedupeWindow:    time.Hour,
		FuzzyFloor:            0.85,
		FuzzyMargin:           0.03,
		SeasonWeight:          0.6,
		RecentWeight:          0.4,
		LeaguePace:            100,
		ReferenceDRtg:         110,
		NearLockStartHour:     16,
		NearLockEndHour:       22,
		NearLockTimezone:      "America/New_York",
		SourceTiers: map[string]int{
			"official_nba_injury_report": 1,
			"underdog_nba_twitter":       2,
			"fantasylabs_nba_twitter":    2,
			"rotowire_rss":               2,
			"realgm_rss":                 2,
			"beat_writer_twitter":        3,
			"general_news_rss":           3,
		},
		Aliases:          map[string]string{},
		Rules:            map[string]RuleEffect{},
		MetricsNamespace: "livelox",
		MetricsSubsystem: "pipeline",
		MetricsLabels:    map[string]string{},
	}
}

// NearLock reports whether t falls inside the pre-lock window, when news
// moves fastest. An unknown timezone falls back to UTC.
func (c *Config) NearLock(t time.Time) bool {
	loc, err := time.LoadLocation(c.NearLockTimezone)
	if err != nil {
		loc = time.UTC
	}
	h := t.In(loc).Hour()
	return h >= c.NearLockStartHour && h <= c.NearLockEndHour
}
