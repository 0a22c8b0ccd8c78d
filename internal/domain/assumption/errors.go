package assumption

import "errors"

var (
	// ErrStore wraps failures of the assumption store.
	ErrStore = errors.New("assumption store")
	// ErrNoPlayer is returned for a signal without a resolved player.
	ErrNoPlayer = errors.New("signal has no player")
)
