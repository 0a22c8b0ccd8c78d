package resolve

import "errors"

// Resolution failures. They are reported to the caller and counted, never
// raised past the batch.
var (
	ErrUnresolved = errors.New("name not resolved")
	ErrAmbiguous  = errors.New("name is ambiguous")
)
