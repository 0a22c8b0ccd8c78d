package assumption

import (
	"time"

	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRuleBook sets the effect tables.
func WithRuleBook(b *RuleBook) Option {
	return func(e *Engine) {
		if b != nil {
			e.book = b
		}
	}
}

// WithClock sets the time source stamped into CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator sets how assumption IDs are minted.
func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) {
		if gen != nil {
			e.newID = gen
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}
