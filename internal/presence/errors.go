package presence

import "errors"

// Domain errors for presence operations.
var (
	// ErrUnknownCommand is returned for manual commands the controller
	// does not understand.
	ErrUnknownCommand = errors.New("presence: unknown command")

	// ErrInvalidCommand is returned for command payloads that cannot be decoded.
	ErrInvalidCommand = errors.New("presence: invalid command")
)
