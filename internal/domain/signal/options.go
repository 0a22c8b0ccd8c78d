package signal

import (
	"github.com/everworldlife-netizen/Live-Lox-Model/internal/domain/model"
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

type parserConfig struct {
	tables []Table
	logger logger.Logger
}

// Option applies a configuration option to the Parser.
type Option func(*parserConfig)

// WithTables replaces the built-in tables entirely.
func WithTables(tables []Table) Option {
	return func(c *parserConfig) {
		if len(tables) > 0 {
			c.tables = tables
		}
	}
}

// WithExtraRules places rules ahead of the existing rules of a taxonomy,
// adding the taxonomy if it is not present yet.
func WithExtraRules(taxonomy model.Taxonomy, rules ...Rule) Option {
	return func(c *parserConfig) {
		if len(rules) == 0 {
			return
		}
		for i := range c.tables {
			if c.tables[i].Taxonomy == taxonomy {
				merged := make([]Rule, 0, len(rules)+len(c.tables[i].Rules))
				merged = append(merged, rules...)
				c.tables[i].Rules = append(merged, c.tables[i].Rules...)
				return
			}
		}
		c.tables = append(c.tables, Table{Taxonomy: taxonomy, Rules: rules})
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *parserConfig) {
		if l != nil {
			c.logger = l
		}
	}
}
