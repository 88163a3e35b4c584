package presence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
)

// Manual command names.
const (
	// CommandStart reports activity, like motion.
	CommandStart = "start"

	// CommandHold stops the countdown and keeps the light as it is.
	CommandHold = "hold"

	// CommandRelease resumes the countdown after a hold.
	CommandRelease = "release"

	// CommandNote passes free text through the timer.
	CommandNote = "note"
)

// CommandMessage is a manual command.
// Topic: graylogic/core/presence/{device_id}/command
type CommandMessage struct {
	Command string `json:"command"`
	Note    string `json:"note,omitempty"`
}

// CommandBus is the subset of the MQTT client used to receive commands.
type CommandBus interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Execute applies a manual command.
func (c *Controller) Execute(cmd CommandMessage) error {
	switch strings.ToLower(strings.TrimSpace(cmd.Command)) {
	case CommandStart, CommandRelease:
		return c.Start()
	case CommandHold:
		return c.Stop()
	case CommandNote:
		return c.Note(cmd.Note)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Command)
	}
}

// HandleCommand decodes and executes a command received over MQTT.
func (c *Controller) HandleCommand(topic string, payload []byte) error {
	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}

	c.logger.Info("presence command received", "topic", topic, "command", cmd.Command)
	return c.Execute(cmd)
}

// SubscribeCommands subscribes HandleCommand to this controller's command topic.
func (c *Controller) SubscribeCommands(bus CommandBus, qos byte) error {
	topic := c.topics.PresenceCommand(c.deviceID)
	if err := bus.Subscribe(topic, qos, c.HandleCommand); err != nil {
		return fmt.Errorf("subscribing to %s: %w", topic, err)
	}
	return nil
}
