package repository

import "github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"

type storeConfig struct {
	logger logger.Logger
}

// Option applies a configuration option to a store.
type Option func(*storeConfig)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *storeConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func buildConfig(opts []Option) storeConfig {
	cfg := storeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("repository")
	}
	return cfg
}
