package normalize

import (
	"time"

	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

// Option applies a configuration option to the Normalizer.
type Option func(*Normalizer)

// WithSourceTiers sets the source name -> tier table.
func WithSourceTiers(tiers map[string]int) Option {
	return func(n *Normalizer) {
		for name, t := range tiers {
			n.tiers[name] = t
		}
	}
}

// WithClock sets the time source used when a payload carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		if now != nil {
			n.now = now
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}
