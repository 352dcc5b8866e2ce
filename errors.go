package strata

import (
	"errors"
	"fmt"
)

// ErrOutOfMemory is returned (wrapped) when a texture or buffer allocation
// fails. Callers should abandon the current frame; strata never retries.
var ErrOutOfMemory = errors.New("strata: out of memory")

// outOfMemory wraps an allocation failure so errors.Is(err, ErrOutOfMemory)
// holds while keeping the device's own error in the chain.
func outOfMemory(what string, w, h int, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s %dx%d", ErrOutOfMemory, what, w, h)
	}
	return fmt.Errorf("%w: %s %dx%d: %w", ErrOutOfMemory, what, w, h, cause)
}

// contractf panics with a descriptive message. Contract violations (drawing
// into a locked renderer, re-entrant sessions, unknown atlas keys, exceeding
// the vertex ceiling) are programmer errors, not recoverable values.
func contractf(format string, args ...any) {
	panic(fmt.Sprintf("strata: "+format, args...))
}
