package thermal

import "errors"

// Domain errors for thermal operations.
var (
	// ErrInvalidReading is returned when a sensor file does not hold an integer.
	ErrInvalidReading = errors.New("thermal: invalid sensor reading")

	// ErrInvalidOptions is returned by NewMonitor for unusable settings.
	ErrInvalidOptions = errors.New("thermal: invalid monitor options")
)
