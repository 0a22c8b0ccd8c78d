package resolve

import (
	"github.com/adrg/strutil"

	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

const (
	// DefaultFuzzyFloor is the minimum similarity accepted for a fuzzy match.
	DefaultFuzzyFloor = 0.85
	// DefaultFuzzyMargin is the minimum lead of the best candidate over the
	// runner-up.
	DefaultFuzzyMargin = 0.03
)

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithFuzzyFloor sets the similarity floor, in (0,1].
func WithFuzzyFloor(floor float64) Option {
	return func(r *Resolver) {
		if floor > 0 && floor <= 1 {
			r.floor = floor
		}
	}
}

// WithFuzzyMargin sets the ambiguity margin, in [0,1).
func WithFuzzyMargin(margin float64) Option {
	return func(r *Resolver) {
		if margin >= 0 && margin < 1 {
			r.margin = margin
		}
	}
}

// WithMetric swaps the string similarity metric.
func WithMetric(m strutil.StringMetric) Option {
	return func(r *Resolver) {
		if m != nil {
			r.metric = m
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}
