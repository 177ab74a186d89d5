package engine

import (
	"errors"
	"fmt"
)

// Error taxonomy. Handlers map these onto responses: validation and
// not-found reject synchronously with a reason, conflicts are retried by
// the engine before surfacing, and already-applied requests come back as
// success-no-op rather than an error.
var (
	// ErrValidation: wrong turn, wrong phase, invalid target, missing
	// outstanding draw, already declared. No state was mutated; the
	// client may retry with corrected input.
	ErrValidation = errors.New("validation")

	// ErrNotFound: unknown game, or a target player that is not seated.
	ErrNotFound = errors.New("not found")
)

// validationf wraps ErrValidation with a user-visible reason.
func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// notFoundf wraps ErrNotFound with a reason.
func notFoundf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
