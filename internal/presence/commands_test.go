package presence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-presence/internal/timer"
)

type recordingBus struct {
	topic   string
	handler mqtt.MessageHandler
	err     error
}

func (b *recordingBus) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	if b.err != nil {
		return b.err
	}
	b.topic = topic
	b.handler = handler
	return nil
}

func TestHandleCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
		want    timer.ActionKind
	}{
		{"start", `{"command":"start"}`, nil, timer.ActionStarted},
		{"start is case insensitive", `{"command":" START "}`, nil, timer.ActionStarted},
		{"release", `{"command":"release"}`, nil, timer.ActionStarted},
		{"hold", `{"command":"hold"}`, nil, timer.ActionStopped},
		{"unknown", `{"command":"dance"}`, ErrUnknownCommand, ""},
		{"invalid json", `{command`, ErrInvalidCommand, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, defaultPresence())

			err := h.ctrl.HandleCommand("graylogic/core/presence/hallway/command", []byte(tt.payload))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				h.none(t, 30*time.Millisecond)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, string(tt.want), h.next(t).Action)
		})
	}
}

func TestHandleCommand_NoteCausesNoAction(t *testing.T) {
	h := newHarness(t, defaultPresence())

	require.NoError(t, h.ctrl.HandleCommand("t", []byte(`{"command":"note","note":"cleaner in hallway"}`)))
	h.none(t, 50*time.Millisecond)
	assert.True(t, h.ctrl.Status().Running)
}

func TestSubscribeCommands(t *testing.T) {
	h := newHarness(t, defaultPresence())
	bus := &recordingBus{}

	require.NoError(t, h.ctrl.SubscribeCommands(bus, 1))
	assert.Equal(t, "graylogic/core/presence/hallway/command", bus.topic)

	require.NoError(t, bus.handler(bus.topic, []byte(`{"command":"start"}`)))
	assert.True(t, h.next(t).Restarted)
}

func TestSubscribeCommands_Error(t *testing.T) {
	h := newHarness(t, defaultPresence())

	err := h.ctrl.SubscribeCommands(&recordingBus{err: errors.New("not connected")}, 1)
	assert.Error(t, err)
}
