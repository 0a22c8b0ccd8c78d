// Package worker drains pipeline jobs from a queue through a Processor.
package worker

import (
	"github.com/everworldlife-netizen/Live-Lox-Model/pkg/logger"
)

// Option configures an InMemoryWorker. Pool options are applied to every
// worker it creates.
type Option func(*InMemoryWorker)

// WithName labels the worker in logs. The pool names its workers
// "worker-<n>" unless overridden.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger replaces the worker's logger.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
