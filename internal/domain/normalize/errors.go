package normalize

import "errors"

// Sentinel kinds for normalization errors.
var (
	ErrMalformedItem  = errors.New("malformed item")
	ErrInvalidTier    = errors.New("invalid source tier")
	ErrUnknownPayload = errors.New("unknown payload")
	ErrFeedParse      = errors.New("feed parse failed")
)
