package projection

import (
	"time"

	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

// Default model constants.
const (
	DefaultSeasonWeight   = 0.6
	DefaultRecentWeight   = 0.4
	DefaultLeaguePace     = 100.0
	DefaultReferenceDRtg  = 110.0
	DefaultDRtgFloor      = 100.0
	DefaultStarterMinutes = 25.0
	DefaultBenchFactor    = 0.9
	DefaultCenterFactor   = 1.1
	DefaultUsageBaseline  = 0.2
	DefaultSDRatio        = 0.15
	DefaultSampleGames    = 20
	DefaultFastPaceRank   = 10
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBlendWeights sets the season and recent weights. Both must be
// non-negative and not both zero.
func WithBlendWeights(season, recent float64) Option {
	return func(e *Engine) {
		if season >= 0 && recent >= 0 && season+recent > 0 {
			e.seasonWeight = season
			e.recentWeight = recent
		}
	}
}

// WithLeaguePace sets the pace that maps to a factor of 1.0.
func WithLeaguePace(pace float64) Option {
	return func(e *Engine) {
		if pace > 0 {
			e.leaguePace = pace
		}
	}
}

// WithReferenceDRtg sets the numerator of the defense factor.
func WithReferenceDRtg(drtg float64) Option {
	return func(e *Engine) {
		if drtg > 0 {
			e.referenceDRtg = drtg
		}
	}
}

// WithDRtgFloor sets the smallest opponent rating used in the defense factor.
func WithDRtgFloor(floor float64) Option {
	return func(e *Engine) {
		if floor > 0 {
			e.drtgFloor = floor
		}
	}
}

// WithRoleFactor sets the starter threshold and the bench multiplier.
func WithRoleFactor(starterMinutes, benchFactor float64) Option {
	return func(e *Engine) {
		if starterMinutes >= 0 && benchFactor > 0 {
			e.starterMinutes = starterMinutes
			e.benchFactor = benchFactor
		}
	}
}

// WithCenterFactor sets the rebounding multiplier for centers.
func WithCenterFactor(f float64) Option {
	return func(e *Engine) {
		if f > 0 {
			e.centerFactor = f
		}
	}
}

// WithUsageBaseline sets the usage rate that means no assist adjustment.
func WithUsageBaseline(u float64) Option {
	return func(e *Engine) {
		if u > 0 {
			e.usageBaseline = u
		}
	}
}

// WithSDRatio sets minutes standard deviation as a share of minutes.
func WithSDRatio(r float64) Option {
	return func(e *Engine) {
		if r >= 0 {
			e.sdRatio = r
		}
	}
}

// WithSampleGames sets the games-played count for a trusted sample.
func WithSampleGames(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.sampleGames = n
		}
	}
}

// WithFastPaceRank sets the worst pace rank still considered fast.
func WithFastPaceRank(rank int) Option {
	return func(e *Engine) {
		if rank > 0 {
			e.fastPaceRank = rank
		}
	}
}

// WithConcurrency bounds ProjectBatch fan-out.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithClock sets the time source for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
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
