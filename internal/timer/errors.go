package timer

import "errors"

// Domain errors for the timer package.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrStopped is returned when a signal is sent after the worker has exited.
	ErrStopped = errors.New("timer: service stopped")

	// ErrDisconnected is reported by Err when the worker's signal channel lost
	// its owner without Close being called. This is a lifecycle bug in the
	// owning code and the worker does not recover from it.
	ErrDisconnected = errors.New("timer: signal channel disconnected")

	// ErrInvalidTimeout is returned for a zero or negative timeout.
	ErrInvalidTimeout = errors.New("timer: timeout must be positive")

	// ErrNilCallback is returned when New is called without a callback.
	ErrNilCallback = errors.New("timer: callback is required")
)
