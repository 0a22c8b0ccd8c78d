package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/everworldlife-netizen/Live-Lox-Model/internal/config"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/assumption"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/dedupe"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/normalize"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/projection"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/resolve"
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/signal"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/metrics"
)

// OptionsFromConfig translates cfg into service options. When cfg names a
// Redis server the dedupe windows live there, and the returned options
// close the client with the service.
func OptionsFromConfig(ctx context.Context, cfg *config.Config) ([]Option, error) {
	book := assumption.NewRuleBook(nil)
	for c, e := range ruleOverrides(cfg.Rules) {
		if !book.Set(c, e) {
			return nil, fmt.Errorf("%w: rules[%s] adds a classification without a taxonomy", config.ErrInvalidConfig, c)
		}
	}

	opts := []Option{
		WithWorkerCount(cfg.WorkerCount),
		WithQueueSize(cfg.QueueSize),
		WithAliases(resolve.NewAliasTable(cfg.Aliases)),
		WithNormalizerOptions(normalize.WithSourceTiers(cfg.SourceTiers)),
		WithParserOptions(parserOptions(cfg)...),
		WithResolverOptions(
			resolve.WithFuzzyFloor(cfg.FuzzyFloor),
			resolve.WithFuzzyMargin(cfg.FuzzyMargin),
		),
		WithEngineOptions(assumption.WithRuleBook(book)),
		WithProjectionOptions(
			projection.WithBlendWeights(cfg.SeasonWeight, cfg.RecentWeight),
			projection.WithLeaguePace(cfg.LeaguePace),
			projection.WithReferenceDRtg(cfg.ReferenceDRtg),
			projection.WithConcurrency(cfg.ProjectionConcurrency),
		),
	}

	windowOpts := func(name string) []dedupe.Option {
		window := cfg.ContentDedupeWindow
		if name == "signal" {
			window = cfg.SignalDedupeWindow
		}
		return []dedupe.Option{
			dedupe.WithName(name),
			dedupe.WithWindow(window),
			dedupe.WithMaxSize(cfg.DedupeMaxSize),
			dedupe.WithKeyPrefix(cfg.RedisPrefix),
		}
	}

	if cfg.RedisAddr == "" {
		return append(opts, WithFilter(dedupe.NewFilter(
			dedupe.NewInMemoryDeduper(windowOpts("content")...),
			dedupe.NewInMemoryDeduper(windowOpts("signal")...),
		))), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	return append(opts,
		WithFilter(dedupe.NewFilter(
			dedupe.NewRedisDeduper(client, windowOpts("content")...),
			dedupe.NewRedisDeduper(client, windowOpts("signal")...),
		)),
		WithCloser(client.Close),
	), nil
}

func parserOptions(cfg *config.Config) []signal.Option {
	var opts []signal.Option
	groups := []struct {
		taxonomy model.Taxonomy
		rules    []config.KeywordRule
	}{
		{model.TaxonomyStatus, cfg.StatusKeywords},
		{model.TaxonomyMinutes, cfg.MinutesKeywords},
		{model.TaxonomyLineup, cfg.LineupKeywords},
	}
	for _, g := range groups {
		if len(g.rules) == 0 {
			continue
		}
		rules := make([]signal.Rule, 0, len(g.rules))
		for _, r := range g.rules {
			rules = append(rules, signal.Rule{
				Phrase:         r.Phrase,
				Classification: model.Classification(strings.ToUpper(strings.TrimSpace(r.Classification))),
			})
		}
		opts = append(opts, signal.WithExtraRules(g.taxonomy, rules...))
	}
	return opts
}

// MetricsOptions maps the metrics_* keys onto manager options for
// metrics.Configure.
func MetricsOptions(cfg *config.Config) []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithLatencyBuckets(cfg.MetricsLatencyBuckets),
		metrics.WithConstLabels(cfg.MetricsLabels),
	}
}

func ruleOverrides(rules map[string]config.RuleEffect) map[model.Classification]assumption.Effect {
	out := make(map[model.Classification]assumption.Effect, len(rules))
	for name, r := range rules {
		out[model.Classification(strings.ToUpper(strings.TrimSpace(name)))] = assumption.Effect{
			Taxonomy:          model.Taxonomy(strings.ToLower(strings.TrimSpace(r.Taxonomy))),
			MinutesMultiplier: r.MinutesMultiplier,
			MinutesCap:        r.MinutesCap,
			LineupMultiplier:  r.LineupMultiplier,
			Confidence:        model.Confidence(strings.ToUpper(strings.TrimSpace(r.Confidence))),
			Severity:          r.Severity,
		}
	}
	return out
}
