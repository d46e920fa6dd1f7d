package errors

import "errors"

var (
	// ErrNotFound is the sentinel for missing resources: expired or unknown
	// exploration sessions and unknown faculty ids.
	ErrNotFound = errors.New("not found")
	// ErrNoCandidates signals that a search matched nothing after filtering
	// and exclusion. A legitimate outcome, not a server error.
	ErrNoCandidates = errors.New("no candidates")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
)
