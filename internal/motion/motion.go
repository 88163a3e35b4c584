package motion

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyStarted is returned when Events is called twice on one source.
var ErrAlreadyStarted = errors.New("motion: source already started")

// Edge is a transition of the sensor line.
type Edge string

const (
	// EdgeRising means the sensor detected motion.
	EdgeRising Edge = "rising"

	// EdgeFalling means the sensor stopped detecting motion.
	EdgeFalling Edge = "falling"
)

// Known reports whether e is a rising or falling edge.
func (e Edge) Known() bool {
	return e == EdgeRising || e == EdgeFalling
}

// Event is one edge reported by the sensor.
type Event struct {
	Edge Edge

	// At is when the bridge saw the edge, or when it was received if the
	// bridge sent no timestamp.
	At time.Time
}

// Source delivers sensor events.
type Source interface {
	// Events returns a channel of events. The channel is closed once ctx
	// is done.
	Events(ctx context.Context) (<-chan Event, error)
}
