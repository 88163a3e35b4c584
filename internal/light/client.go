package light

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-presence/internal/fade"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
)

// commandSource tags every command published by this package.
const commandSource = "presence"

// Client reads and changes the colour of one light.
type Client interface {
	// State returns the light's current colour.
	State(ctx context.Context) (fade.Color, error)

	// SetColor changes the light to color over duration.
	SetColor(ctx context.Context, color fade.Color, duration time.Duration) error
}

// Bus is the subset of the MQTT client used by MQTTClient.
// This allows mocking in tests.
type Bus interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger defines the logging interface for the light client.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures an MQTTClient.
type Options struct {
	// Config identifies the light and its bridge.
	Config config.LightConfig

	// Bus is the MQTT connection. Required.
	Bus Bus

	// QoS is used for commands and the state subscription.
	QoS byte

	// Logger is optional.
	Logger Logger
}

// MQTTClient implements Client over a light bridge on MQTT.
type MQTTClient struct {
	bus          Bus
	qos          byte
	deviceID     string
	commandTopic string
	stateTopic   string
	stateTimeout time.Duration
	logger       Logger

	mu         sync.Mutex
	state      *StateMessage
	receivedAt time.Time
	// updated is closed and replaced every time a state message arrives.
	updated chan struct{}
}

// NewMQTTClient subscribes to the light's state topic and returns a client.
//
// Returns:
//   - *MQTTClient: Ready client; call Close to unsubscribe
//   - error: If the bus is missing or the subscription fails
func NewMQTTClient(opts Options) (*MQTTClient, error) {
	if opts.Bus == nil {
		return nil, fmt.Errorf("MQTT bus is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	stateTimeout := opts.Config.StateTimeout
	if stateTimeout <= 0 {
		stateTimeout = 2 * time.Second
	}

	topics := mqtt.Topics{}
	c := &MQTTClient{
		bus:          opts.Bus,
		qos:          opts.QoS,
		deviceID:     opts.Config.DeviceID,
		commandTopic: topics.BridgeCommand(opts.Config.Protocol, opts.Config.Address),
		stateTopic:   topics.BridgeState(opts.Config.Protocol, opts.Config.Address),
		stateTimeout: stateTimeout,
		logger:       logger,
		updated:      make(chan struct{}),
	}

	if err := c.bus.Subscribe(c.stateTopic, c.qos, c.handleState); err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", c.stateTopic, err)
	}

	return c, nil
}

// Close unsubscribes from the state topic.
func (c *MQTTClient) Close() error {
	return c.bus.Unsubscribe(c.stateTopic)
}

// State asks the bridge for a fresh state and waits up to the configured
// state timeout for it. When the bridge stays silent the cached state is
// returned instead; ErrStateTimeout is returned only when nothing is cached.
func (c *MQTTClient) State(ctx context.Context) (fade.Color, error) {
	c.mu.Lock()
	updated := c.updated
	c.mu.Unlock()

	if err := c.send(CommandReadState, nil); err != nil {
		return fade.Color{}, err
	}

	timer := time.NewTimer(c.stateTimeout)
	defer timer.Stop()

	select {
	case <-updated:
		return c.Cached()
	case <-ctx.Done():
		return fade.Color{}, ctx.Err()
	case <-timer.C:
		color, err := c.Cached()
		if errors.Is(err, ErrNoState) {
			return fade.Color{}, ErrStateTimeout
		}
		c.logger.Warn("light state refresh timed out, using cached state",
			"device_id", c.deviceID,
			"timeout", c.stateTimeout,
		)
		return color, nil
	}
}

// Cached returns the most recent state without contacting the bridge.
func (c *MQTTClient) Cached() (fade.Color, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == nil {
		return fade.Color{}, ErrNoState
	}
	return c.state.Color, nil
}

// LastUpdate returns when the last state message arrived (zero if never).
func (c *MQTTClient) LastUpdate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receivedAt
}

// SetColor publishes a set_color command.
func (c *MQTTClient) SetColor(ctx context.Context, color fade.Color, duration time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if duration < 0 {
		duration = 0
	}

	if err := c.send(CommandSetColor, newColorParameters(color, duration)); err != nil {
		return err
	}

	c.logger.Debug("light colour set",
		"device_id", c.deviceID,
		"color", color.String(),
		"duration", duration,
	)
	return nil
}

func (c *MQTTClient) send(command string, params *ColorParameters) error {
	msg := CommandMessage{
		ID:         uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		DeviceID:   c.deviceID,
		Command:    command,
		Parameters: params,
		Source:     commandSource,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: encoding %s: %w", ErrCommandFailed, command, err)
	}

	if err := c.bus.Publish(c.commandTopic, payload, c.qos, false); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCommandFailed, command, err)
	}
	return nil
}

// handleState caches a state message from the bridge.
func (c *MQTTClient) handleState(_ string, payload []byte) error {
	var msg StateMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}

	c.mu.Lock()
	c.state = &msg
	c.receivedAt = time.Now()
	close(c.updated)
	c.updated = make(chan struct{})
	c.mu.Unlock()

	return nil
}
