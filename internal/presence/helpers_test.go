package presence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/gray-logic-presence/internal/fade"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-presence/internal/motion"
)

var warmWhite = fade.Color{Hue: 0, Saturation: 0, Brightness: 40000, Kelvin: 3000}

type setCall struct {
	color    fade.Color
	duration time.Duration
}

// fakeLight is a light that jumps straight to every colour it is given.
type fakeLight struct {
	mu       sync.Mutex
	color    fade.Color
	stateErr error
	setErr   error
	calls    []setCall
}

func (l *fakeLight) State(context.Context) (fade.Color, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stateErr != nil {
		return fade.Color{}, l.stateErr
	}
	return l.color, nil
}

func (l *fakeLight) SetColor(_ context.Context, color fade.Color, d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.setErr != nil {
		return l.setErr
	}
	l.calls = append(l.calls, setCall{color, d})
	l.color = color
	return nil
}

func (l *fakeLight) set(color fade.Color) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = color
}

func (l *fakeLight) failState(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stateErr = err
}

func (l *fakeLight) setCalls() []setCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]setCall(nil), l.calls...)
}

type publishedMsg struct {
	topic    string
	payload  any
	retained bool
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []publishedMsg
	err  error
}

func (p *fakePublisher) PublishJSON(topic string, v any, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, publishedMsg{topic, v, retained})
	return nil
}

func (p *fakePublisher) byTopic(topic string) []publishedMsg {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []publishedMsg
	for _, m := range p.msgs {
		if m.topic == topic {
			out = append(out, m)
		}
	}
	return out
}

// fakeHub collects broadcasts; presence actions are also sent on events.
type fakeHub struct {
	mu       sync.Mutex
	gestures []GestureEvent
	events   chan Event
}

func newFakeHub() *fakeHub {
	return &fakeHub{events: make(chan Event, 64)}
}

func (h *fakeHub) Broadcast(channel string, payload any) {
	switch channel {
	case ChannelPresenceAction:
		h.events <- payload.(Event)
	case ChannelThermalGesture:
		h.mu.Lock()
		h.gestures = append(h.gestures, payload.(GestureEvent))
		h.mu.Unlock()
	}
}

type telemetryPoint struct {
	kind       string
	action     string
	brightness uint16
}

type fakeTelemetry struct {
	mu     sync.Mutex
	points []telemetryPoint
}

func (f *fakeTelemetry) WritePresenceAction(_, action string, _, _ bool, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, telemetryPoint{kind: "action", action: action})
}

func (f *fakeTelemetry) WriteLightCommand(_, reason string, brightness uint16, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, telemetryPoint{kind: "light", action: reason, brightness: brightness})
}

func (f *fakeTelemetry) snapshot() []telemetryPoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]telemetryPoint(nil), f.points...)
}

// memoryRepository is an in-memory Repository.
type memoryRepository struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *memoryRepository) Record(_ context.Context, e *Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, *e)
	return nil
}

func (r *memoryRepository) Recent(_ context.Context, deviceID string, limit int) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Event{}
	for i := len(r.events) - 1; i >= 0 && len(out) < clampLimit(limit); i-- {
		if r.events[i].DeviceID == deviceID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

// chanSource is a motion.Source fed by the test.
type chanSource struct {
	ch  chan motion.Event
	err error
}

func (s *chanSource) Events(ctx context.Context) (<-chan motion.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ch, nil
}

type harness struct {
	ctrl      *Controller
	light     *fakeLight
	publisher *fakePublisher
	hub       *fakeHub
	telemetry *fakeTelemetry
	repo      *memoryRepository
	registry  *prometheus.Registry
}

func defaultPresence() config.PresenceConfig {
	return config.PresenceConfig{
		Timeout:       time.Hour,
		FadeDuration:  time.Second,
		WakeDuration:  time.Second,
		DimBrightness: 328,
	}
}

func newHarness(t *testing.T, cfg config.PresenceConfig) *harness {
	t.Helper()

	h := &harness{
		light:     &fakeLight{color: warmWhite},
		publisher: &fakePublisher{},
		hub:       newFakeHub(),
		telemetry: &fakeTelemetry{},
		repo:      &memoryRepository{},
		registry:  prometheus.NewRegistry(),
	}

	ctrl, err := New(Options{
		DeviceID:          "hallway",
		Presence:          cfg,
		GestureBrightness: 6554,
		Light:             h.light,
		Repository:        h.repo,
		Publisher:         h.publisher,
		Broadcaster:       h.hub,
		Telemetry:         h.telemetry,
		Metrics:           NewMetrics(h.registry),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctrl.Close() })

	h.ctrl = ctrl
	return h
}

// next waits for the next reported action.
func (h *harness) next(t *testing.T) Event {
	t.Helper()
	select {
	case e := <-h.hub.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("no presence action reported")
		return Event{}
	}
}

// none asserts that no action is reported within d.
func (h *harness) none(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case e := <-h.hub.events:
		t.Fatalf("unexpected presence action %+v", e)
	case <-time.After(d):
	}
}

// metricValue returns a counter or gauge value from the registry, or 0.
func (h *harness) metricValue(t *testing.T, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := h.registry.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

var (
	errLightOffline = errors.New("bridge offline")
	topics          = mqtt.Topics{}
)
