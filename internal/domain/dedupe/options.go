package dedupe

import (
	"time"

	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

const (
	// ContentWindow is how long an ingested item stays suppressed.
	ContentWindow = 24 * time.Hour
	// SignalWindow is how long a repeated player fact stays suppressed.
	SignalWindow = time.Hour
)

type settings struct {
	name    string
	window  time.Duration
	maxSize int
	prefix  string
	now     func() time.Time
	logger  logger.Logger
}

func defaultSettings() settings {
	return settings{
		name:    "content",
		window:  ContentWindow,
		maxSize: 50000,
		prefix:  "livelox:",
		now:     time.Now,
	}
}

// Option applies a configuration option to a Deduper.
type Option func(*settings)

// WithName labels the deduper in metrics, logs and Redis keys.
func WithName(name string) Option {
	return func(s *settings) {
		if name != "" {
			s.name = name
		}
	}
}

// WithWindow sets how long a key stays recorded.
func WithWindow(window time.Duration) Option {
	return func(s *settings) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithMaxSize sets the maximum number of keys to keep in memory.
// If maxSize > 0: the oldest key is evicted once the limit is reached.
// If maxSize <= 0: unbounded, keys leave only by expiry.
// Ignored by the Redis deduper.
func WithMaxSize(maxSize int) Option {
	return func(s *settings) {
		s.maxSize = maxSize
	}
}

// WithClock sets the time source of the in-memory deduper.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
