package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidParameter means a nil or otherwise unusable argument was
	// passed to a state setter. Callers should treat it as a programming
	// error to fix, not a runtime condition to recover from.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotInitialized means an operation was attempted against a device
	// that never completed creation.
	ErrNotInitialized = errors.New("device not initialized")

	// ErrNoAdapter means no physical adapter could be found at all.
	ErrNoAdapter = errors.New("no suitable adapter found")

	ErrUnknown = errors.New("unknown")
)

// DeviceCreationError is fatal to the renderer: no adapter exists or device
// creation failed at every capability level attempted. It is not retryable
// within the same process.
type DeviceCreationError struct {
	Backend string
	Reason  error
}

func (e *DeviceCreationError) Error() string {
	return fmt.Sprintf("device creation failed on backend '%s': %v", e.Backend, e.Reason)
}

func (e *DeviceCreationError) Unwrap() error { return e.Reason }

// PipelineCreationError carries the backend's native error string. A
// pipeline that failed construction must never be drawn with.
type PipelineCreationError struct {
	Step   string
	Native string
}

func (e *PipelineCreationError) Error() string {
	return fmt.Sprintf("pipeline creation failed at %s: %s", e.Step, e.Native)
}
