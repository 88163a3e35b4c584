package light

import "errors"

// Domain errors for light operations.
var (
	// ErrNoState is returned when no state message has been received yet.
	ErrNoState = errors.New("light: no state received")

	// ErrStateTimeout is returned when the bridge did not answer a
	// read_state command in time and nothing is cached.
	ErrStateTimeout = errors.New("light: state request timed out")

	// ErrInvalidState is returned for state messages that cannot be decoded.
	ErrInvalidState = errors.New("light: invalid state message")

	// ErrCommandFailed is returned when a command could not be published.
	ErrCommandFailed = errors.New("light: command failed")
)
