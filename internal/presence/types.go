package presence

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-presence/internal/fade"
	"github.com/nerrad567/gray-logic-presence/internal/timer"
)

// Event is one recorded timer action.
type Event struct {
	ID             string    `json:"id"`
	DeviceID       string    `json:"device_id"`
	Action         string    `json:"action"`
	Restarted      bool      `json:"restarted"`
	AlreadyStopped bool      `json:"already_stopped"`
	Note           string    `json:"note,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Notes describing what the controller did with the light.
const (
	NoteDimmed     = "dimmed"
	NoteRestored   = "restored"
	NoteOverridden = "left alone, light changed during fade"
	NoteFullOn     = "full brightness"
	NoteExtended   = "countdown extended"
	NoteHeld       = "held"
	NoteLightError = "light error"
)

// Status is a snapshot of the controller for the API and the retained
// MQTT state topic.
type Status struct {
	DeviceID       string        `json:"device_id"`
	Running        bool          `json:"running"`
	Timeout        time.Duration `json:"-"`
	TimeoutString  string        `json:"timeout"`
	LastAction     *Event        `json:"last_action,omitempty"`
	FadeInProgress bool          `json:"fade_in_progress"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// GestureEvent is published when a thermal touch gesture changes the light.
type GestureEvent struct {
	DeviceID     string    `json:"device_id"`
	Temperatures []float64 `json:"temperatures"`
	Brightness   uint16    `json:"brightness"`
	Error        string    `json:"error,omitempty"`
	At           time.Time `json:"at"`
}

// fadeRecord is the fade started by the last timeout.
type fadeRecord struct {
	before    fade.Color
	target    fade.Color
	startedAt time.Time
	duration  time.Duration
}

// inProgress reports whether the fade is still running at now.
func (f *fadeRecord) inProgress(now time.Time) bool {
	return f != nil && now.Sub(f.startedAt) < f.duration
}

func newEvent(deviceID string, action timer.Action, note string) Event {
	return Event{
		ID:             "prs-" + uuid.NewString(),
		DeviceID:       deviceID,
		Action:         string(action.Kind),
		Restarted:      action.Restarted,
		AlreadyStopped: action.AlreadyStopped,
		Note:           note,
		CreatedAt:      action.At.UTC(),
	}
}
