package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrDuplicate    = errors.New("projection already recorded")
	ErrInvalid      = errors.New("invalid record")
)
