package motion

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
)

// eventBuffer is the capacity of the events channel.
const eventBuffer = 16

// Bus is the subset of the MQTT client used by MQTTSource.
type Bus interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger defines the logging interface for the motion source.
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

// EdgeMessage is published by the GPIO bridge for every edge.
type EdgeMessage struct {
	Edge      string    `json:"edge"`
	Pin       int       `json:"pin,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
}

// MQTTSource reads sensor edges from a GPIO bridge.
type MQTTSource struct {
	bus    Bus
	topic  string
	qos    byte
	logger Logger

	mu      sync.Mutex
	started bool
	closed  bool
	events  chan Event
}

// NewMQTTSource creates a source for the sensor identified by cfg.
func NewMQTTSource(bus Bus, cfg config.MotionConfig, qos byte) *MQTTSource {
	return &MQTTSource{
		bus:    bus,
		topic:  mqtt.Topics{}.BridgeState(cfg.Protocol, cfg.Address),
		qos:    qos,
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the source.
func (s *MQTTSource) SetLogger(logger Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Topic returns the topic the source subscribes to.
func (s *MQTTSource) Topic() string {
	return s.topic
}

// Events subscribes to the bridge and returns the event channel.
// When ctx is done the source unsubscribes and closes the channel.
// A source can be started once.
func (s *MQTTSource) Events(ctx context.Context) (<-chan Event, error) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	s.started = true
	s.events = make(chan Event, eventBuffer)
	s.mu.Unlock()

	if err := s.bus.Subscribe(s.topic, s.qos, s.handleMessage); err != nil {
		s.shutdown()
		return nil, fmt.Errorf("subscribing to %s: %w", s.topic, err)
	}

	s.logger.Info("motion source subscribed", "topic", s.topic)

	go func() {
		<-ctx.Done()
		if err := s.bus.Unsubscribe(s.topic); err != nil {
			s.logger.Warn("motion source unsubscribe failed", "topic", s.topic, "error", err)
		}
		s.shutdown()
	}()

	return s.events, nil
}

func (s *MQTTSource) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// handleMessage decodes one bridge message. Unknown edge names are still
// delivered so the consumer can log them.
func (s *MQTTSource) handleMessage(_ string, payload []byte) error {
	var msg EdgeMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decoding motion edge: %w", err)
	}

	evt := Event{
		Edge: Edge(strings.ToLower(strings.TrimSpace(msg.Edge))),
		At:   msg.Timestamp,
	}
	if evt.At.IsZero() {
		evt.At = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}

	select {
	case s.events <- evt:
	default:
		s.logger.Warn("motion event dropped, consumer too slow", "edge", evt.Edge)
	}
	return nil
}
