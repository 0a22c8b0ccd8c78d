package config

import "errors"

var (
	// ErrInvalidConfig marks a value outside the range the pipeline accepts.
	ErrInvalidConfig = errors.New("config: invalid value")
	// ErrLoadConfig marks a file or environment layer that could not be read.
	ErrLoadConfig = errors.New("config: load failed")
)
