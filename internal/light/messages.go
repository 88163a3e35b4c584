package light

import (
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/fade"
)

// Brightness limits.
const (
	// MinBrightness is the lowest brightness at which a bulb still emits
	// visible light: 2% of 0xFFFF, rounded.
	MinBrightness uint16 = 328

	// MaxBrightness is full brightness.
	MaxBrightness uint16 = 0xFFFF
)

// Command names understood by light bridges.
const (
	CommandSetColor  = "set_color"
	CommandReadState = "read_state"
)

// CommandMessage is sent from the controller to the bridge.
// Topic: graylogic/command/{protocol}/{address}
type CommandMessage struct {
	// ID correlates the command with log lines on both sides.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`
	DeviceID  string    `json:"device_id"`
	Command   string    `json:"command"`

	// Parameters is set for set_color only.
	Parameters *ColorParameters `json:"parameters,omitempty"`

	// Source indicates where the command originated ("presence").
	Source string `json:"source"`
}

// ColorParameters carries the target colour and transition of set_color.
type ColorParameters struct {
	Hue        uint16 `json:"hue"`
	Saturation uint16 `json:"saturation"`
	Brightness uint16 `json:"brightness"`
	Kelvin     uint16 `json:"kelvin"`
	DurationMS int64  `json:"duration_ms"`
}

// StateMessage is published (retained) by the bridge whenever the light
// changes or a read_state command arrives.
// Topic: graylogic/state/{protocol}/{address}
type StateMessage struct {
	Timestamp time.Time  `json:"timestamp"`
	DeviceID  string     `json:"device_id,omitempty"`
	Label     string     `json:"label,omitempty"`
	Power     bool       `json:"power"`
	Color     fade.Color `json:"color"`
}

func newColorParameters(c fade.Color, d time.Duration) *ColorParameters {
	return &ColorParameters{
		Hue:        c.Hue,
		Saturation: c.Saturation,
		Brightness: c.Brightness,
		Kelvin:     c.Kelvin,
		DurationMS: d.Milliseconds(),
	}
}
