package metrics

import "errors"

var (
	// ErrWriteTextfile wraps failures dumping the registry to disk.
	ErrWriteTextfile = errors.New("metrics: textfile write failed")
	// ErrNoTextfilePath is returned for an empty textfile path.
	ErrNoTextfilePath = errors.New("metrics: textfile path is empty")
	// ErrConfigure is returned when a manager cannot be built from options.
	ErrConfigure = errors.New("metrics: invalid manager options")
)
