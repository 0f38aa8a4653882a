package fluence

import "errors"

// Failure classes surfaced by the engine. Callers match them with errors.Is;
// the wrapped message carries the scan/row context.
var (
	// ErrInvalidParameter reports a caller-supplied parameter outside its
	// supported range, such as a kernel truncation radius below 3 sigma.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrConsistency reports recorded scan data that contradicts the session
	// geometry, such as a row starting away from either scan area edge.
	ErrConsistency = errors.New("inconsistent scan data")

	// ErrMissingInput reports a required input that was not provided at all.
	ErrMissingInput = errors.New("missing input")
)
