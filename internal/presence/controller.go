package presence

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-presence/internal/fade"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-presence/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-presence/internal/light"
	"github.com/nerrad567/gray-logic-presence/internal/motion"
	"github.com/nerrad567/gray-logic-presence/internal/timer"
)

// Websocket channels the controller broadcasts on.
const (
	ChannelPresenceAction = "presence.action"
	ChannelThermalGesture = "thermal.gesture"
)

const (
	// gestureTransition is how quickly a touch gesture changes the light.
	gestureTransition = 100 * time.Millisecond

	// fallbackKelvin is used when full brightness must be set without a
	// known colour.
	fallbackKelvin = 3000

	// sideEffectTimeout bounds repository writes from the timer callback.
	sideEffectTimeout = 5 * time.Second
)

// Publisher publishes JSON messages. *mqtt.Client satisfies it.
type Publisher interface {
	PublishJSON(topic string, v any, retained bool) error
}

// Broadcaster pushes events to live clients. *api.Hub satisfies it.
type Broadcaster interface {
	Broadcast(channel string, payload any)
}

// Telemetry writes time-series points. *influxdb.Client satisfies it.
type Telemetry interface {
	WritePresenceAction(deviceID, action string, restarted, alreadyStopped bool, at time.Time)
	WriteLightCommand(deviceID, reason string, brightness uint16, duration time.Duration)
}

// Logger defines the logging interface for the controller. It is also
// handed to the timer.
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

// Options configures a Controller. Only DeviceID, Presence and Light are
// required; every side channel is optional.
type Options struct {
	DeviceID string
	Presence config.PresenceConfig

	// GestureBrightness is applied when a thermal gesture is detected.
	GestureBrightness uint16

	Light       light.Client
	Repository  Repository
	Publisher   Publisher
	Broadcaster Broadcaster
	Telemetry   Telemetry
	Metrics     *Metrics
	Logger      Logger
}

// Controller connects motion, the timer and the light.
//
// Thread Safety:
//   - All exported methods are safe for concurrent use.
//   - Timer actions are handled one at a time on the timer's worker.
type Controller struct {
	deviceID          string
	fadeDuration      time.Duration
	wakeDuration      time.Duration
	dimBrightness     uint16
	gestureBrightness uint16

	light       light.Client
	repo        Repository
	publisher   Publisher
	broadcaster Broadcaster
	telemetry   Telemetry
	metrics     *Metrics
	logger      Logger
	topics      mqtt.Topics
	now         func() time.Time

	timer *timer.Service[string]

	// timeout mirrors the timer's timeout so the callback can report it
	// without touching the timer handle.
	timeout atomic.Int64

	// ctx is cancelled by Close and bounds light calls.
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
	closeErr  error

	mu        sync.Mutex
	fade      *fadeRecord
	lastEvent *Event
}

// New creates a Controller and arms its timer. Unless motion arrives
// first, the light is dimmed once the presence timeout elapses.
func New(opts Options) (*Controller, error) {
	if opts.DeviceID == "" {
		return nil, fmt.Errorf("device ID is required")
	}
	if opts.Light == nil {
		return nil, fmt.Errorf("light client is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Controller{
		deviceID:          opts.DeviceID,
		fadeDuration:      opts.Presence.FadeDuration,
		wakeDuration:      opts.Presence.WakeDuration,
		dimBrightness:     opts.Presence.DimBrightness,
		gestureBrightness: opts.GestureBrightness,
		light:             opts.Light,
		repo:              opts.Repository,
		publisher:         opts.Publisher,
		broadcaster:       opts.Broadcaster,
		telemetry:         opts.Telemetry,
		metrics:           opts.Metrics,
		logger:            logger,
		now:               time.Now,
		ctx:               ctx,
		cancel:            cancel,
	}
	if c.dimBrightness == 0 {
		c.dimBrightness = light.MinBrightness
	}
	c.timeout.Store(int64(opts.Presence.Timeout))

	svc, err := timer.New[string](opts.Presence.Timeout, c.handleAction,
		timer.WithLogger(logger),
		timer.WithName(opts.DeviceID),
		timer.WithRedundantStopNotify(opts.Presence.NotifyRedundantStop),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("creating presence timer: %w", err)
	}
	c.timer = svc

	c.metrics.setTimeout(opts.Presence.Timeout)
	c.metrics.setRunning(true)

	return c, nil
}

// DeviceID returns the controller's device ID.
func (c *Controller) DeviceID() string {
	return c.deviceID
}

// Start reports activity: it extends a running countdown or wakes the
// light after a timeout.
func (c *Controller) Start() error {
	return c.timer.Start()
}

// Stop holds the light as it is until the next Start.
func (c *Controller) Stop() error {
	return c.timer.Stop()
}

// Note passes free text through the timer. It is logged by the worker and
// does not affect the countdown.
func (c *Controller) Note(text string) error {
	return c.timer.Signal(text)
}

// SetTimeout changes the idle timeout from the next countdown on.
func (c *Controller) SetTimeout(d time.Duration) error {
	if err := c.timer.SetTimeout(d); err != nil {
		return err
	}
	c.timeout.Store(int64(d))
	c.metrics.setTimeout(d)

	c.logger.Info("presence timeout changed", "device_id", c.deviceID, "timeout", d)
	c.publishState(c.timer.IsRunning())
	return nil
}

// Timeout returns the current idle timeout.
func (c *Controller) Timeout() time.Duration {
	return time.Duration(c.timeout.Load())
}

// Status returns a snapshot of the controller.
func (c *Controller) Status() Status {
	return c.status(c.timer.IsRunning())
}

// Recent returns the latest recorded events, newest first.
func (c *Controller) Recent(ctx context.Context, limit int) ([]Event, error) {
	if c.repo == nil {
		return []Event{}, nil
	}
	return c.repo.Recent(ctx, c.deviceID, limit)
}

// HandleMotion maps a sensor edge to a timer signal. Both edges restart
// the countdown, so it runs from the last moment motion was seen.
// Unknown edges are passed on as notes.
func (c *Controller) HandleMotion(evt motion.Event) error {
	if evt.Edge.Known() {
		c.logger.Debug("motion edge", "device_id", c.deviceID, "edge", evt.Edge)
		return c.timer.Start()
	}
	return c.timer.Signal("unknown motion edge: " + string(evt.Edge))
}

// Run feeds events from source into the timer until ctx is done, the
// source closes or the controller is closed. It fails only when the timer
// worker died.
func (c *Controller) Run(ctx context.Context, source motion.Source) error {
	events, err := source.Events(ctx)
	if err != nil {
		return fmt.Errorf("starting motion source: %w", err)
	}

	c.logger.Info("presence controller running", "device_id", c.deviceID, "timeout", c.Timeout())

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.timer.Done():
			if err := c.timer.Err(); err != nil {
				return fmt.Errorf("presence timer exited: %w", err)
			}
			return nil
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			if err := c.HandleMotion(evt); err != nil {
				return fmt.Errorf("handling motion edge: %w", err)
			}
		}
	}
}

// HandleGesture reacts to a thermal touch gesture by setting the light to
// the gesture brightness, keeping its other channels.
// It matches thermal.GestureFunc.
func (c *Controller) HandleGesture(temps []float64) {
	evt := GestureEvent{
		DeviceID:     c.deviceID,
		Temperatures: temps,
		Brightness:   c.gestureBrightness,
		At:           c.now().UTC(),
	}

	current, err := c.light.State(c.ctx)
	if err == nil {
		err = c.light.SetColor(c.ctx, current.WithBrightness(c.gestureBrightness), gestureTransition)
	}
	c.metrics.observeLightCommand("gesture", err)
	c.metrics.observeGesture()

	if err != nil {
		evt.Error = err.Error()
		c.logger.Warn("thermal gesture light change failed", "device_id", c.deviceID, "error", err)
	} else {
		c.logger.Info("thermal gesture", "device_id", c.deviceID, "brightness", c.gestureBrightness)
		if c.telemetry != nil {
			c.telemetry.WriteLightCommand(c.deviceID, "gesture", c.gestureBrightness, gestureTransition)
		}
	}

	if c.publisher != nil {
		if err := c.publisher.PublishJSON(c.topics.CoreEvent(mqtt.EventThermalGesture), evt, false); err != nil {
			c.metrics.observeSideEffectError("mqtt")
			c.logger.Warn("publishing thermal gesture failed", "error", err)
		}
	}
	if c.broadcaster != nil {
		c.broadcaster.Broadcast(ChannelThermalGesture, evt)
	}
}

// Done is closed when the timer worker exits.
func (c *Controller) Done() <-chan struct{} {
	return c.timer.Done()
}

// Close stops the timer after it has handled every pending signal, then
// cancels in-flight light calls. It is safe to call more than once.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.timer.Close()
		c.cancel()
	})
	return c.closeErr
}

// handleAction is the timer callback.
func (c *Controller) handleAction(action timer.Action) {
	var note string

	switch action.Kind {
	case timer.ActionTimedOut:
		note = c.dim()
	case timer.ActionStarted:
		if action.Restarted {
			note = NoteExtended
		} else {
			note = c.wake()
		}
	case timer.ActionStopped:
		note = NoteHeld
	}

	c.report(newEvent(c.deviceID, action, note), action.Kind == timer.ActionStarted)
}

// dim remembers the current colour and fades to the dim level.
func (c *Controller) dim() string {
	before, err := c.light.State(c.ctx)
	if err != nil {
		c.metrics.observeLightCommand("dim", err)
		c.logger.Warn("reading light before dimming failed", "device_id", c.deviceID, "error", err)
		return NoteLightError
	}

	target := before.WithBrightness(c.dimBrightness)
	err = c.light.SetColor(c.ctx, target, c.fadeDuration)
	c.metrics.observeLightCommand("dim", err)
	if err != nil {
		c.logger.Warn("dimming light failed", "device_id", c.deviceID, "error", err)
		return NoteLightError
	}

	if c.telemetry != nil {
		c.telemetry.WriteLightCommand(c.deviceID, "dim", target.Brightness, c.fadeDuration)
	}

	c.mu.Lock()
	c.fade = &fadeRecord{
		before:    before,
		target:    target,
		startedAt: c.now(),
		duration:  c.fadeDuration,
	}
	c.mu.Unlock()

	c.logger.Info("light dimming",
		"device_id", c.deviceID,
		"from", before.String(),
		"to", target.String(),
		"duration", c.fadeDuration,
	)
	return NoteDimmed
}

// wake restores the light after a timeout. A fade that no longer matches
// the light's colour means someone changed it, and it is left alone.
func (c *Controller) wake() string {
	c.mu.Lock()
	rec := c.fade
	c.fade = nil
	c.mu.Unlock()

	if rec == nil {
		return c.fullOn()
	}

	current, err := c.light.State(c.ctx)
	if err != nil {
		c.metrics.observeLightCommand("restore", err)
		c.logger.Warn("reading light before restore failed", "device_id", c.deviceID, "error", err)
		return NoteLightError
	}

	if rec.duration > 0 && !fade.MatchesFade(rec.before, rec.target, current, c.now().Sub(rec.startedAt), rec.duration) {
		c.metrics.observeWake("overridden")
		c.logger.Info("light changed during fade, not restoring",
			"device_id", c.deviceID,
			"expected_from", rec.before.String(),
			"expected_to", rec.target.String(),
			"current", current.String(),
		)
		return NoteOverridden
	}

	err = c.light.SetColor(c.ctx, rec.before, c.wakeDuration)
	c.metrics.observeLightCommand("restore", err)
	if err != nil {
		c.logger.Warn("restoring light failed", "device_id", c.deviceID, "error", err)
		return NoteLightError
	}
	c.metrics.observeWake("restored")

	if c.telemetry != nil {
		c.telemetry.WriteLightCommand(c.deviceID, "restore", rec.before.Brightness, c.wakeDuration)
	}
	c.logger.Info("light restored", "device_id", c.deviceID, "color", rec.before.String())
	return NoteRestored
}

// fullOn sets full brightness, keeping the light's other channels when
// they can be read.
func (c *Controller) fullOn() string {
	current, err := c.light.State(c.ctx)
	if err != nil {
		c.logger.Debug("light state unavailable, using default colour", "device_id", c.deviceID, "error", err)
		current = fade.Color{Kelvin: fallbackKelvin}
	}

	err = c.light.SetColor(c.ctx, current.WithBrightness(light.MaxBrightness), c.wakeDuration)
	c.metrics.observeLightCommand("full_on", err)
	if err != nil {
		c.logger.Warn("setting full brightness failed", "device_id", c.deviceID, "error", err)
		return NoteLightError
	}
	c.metrics.observeWake("full_on")

	if c.telemetry != nil {
		c.telemetry.WriteLightCommand(c.deviceID, "full_on", light.MaxBrightness, c.wakeDuration)
	}
	return NoteFullOn
}

// report fans an event out to every side channel. Failures are logged and
// counted, never returned to the timer.
func (c *Controller) report(event Event, running bool) {
	c.metrics.observeAction(event.Action, event.Restarted)
	c.metrics.setRunning(running)

	if c.repo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		if err := c.repo.Record(ctx, &event); err != nil {
			c.metrics.observeSideEffectError("repository")
			c.logger.Warn("recording presence event failed", "error", err)
		}
		cancel()
	}

	c.mu.Lock()
	last := event
	c.lastEvent = &last
	c.mu.Unlock()

	if c.telemetry != nil {
		c.telemetry.WritePresenceAction(c.deviceID, event.Action, event.Restarted, event.AlreadyStopped, event.CreatedAt)
	}

	if c.publisher != nil {
		if err := c.publisher.PublishJSON(c.topics.CoreEvent(mqtt.EventPresenceAction), event, false); err != nil {
			c.metrics.observeSideEffectError("mqtt")
			c.logger.Warn("publishing presence action failed", "error", err)
		}
	}
	c.publishState(running)

	if c.broadcaster != nil {
		c.broadcaster.Broadcast(ChannelPresenceAction, event)
	}

	c.logger.Info("presence action",
		"device_id", c.deviceID,
		"action", event.Action,
		"restarted", event.Restarted,
		"already_stopped", event.AlreadyStopped,
		"note", event.Note,
	)
}

// publishState publishes the retained controller state.
func (c *Controller) publishState(running bool) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishJSON(c.topics.PresenceState(c.deviceID), c.status(running), true); err != nil {
		c.metrics.observeSideEffectError("mqtt")
		c.logger.Warn("publishing presence state failed", "error", err)
	}
}

func (c *Controller) status(running bool) Status {
	now := c.now()
	timeout := c.Timeout()

	c.mu.Lock()
	defer c.mu.Unlock()

	var last *Event
	if c.lastEvent != nil {
		e := *c.lastEvent
		last = &e
	}

	return Status{
		DeviceID:       c.deviceID,
		Running:        running,
		Timeout:        timeout,
		TimeoutString:  timeout.String(),
		LastAction:     last,
		FadeInProgress: c.fade.inProgress(now),
		UpdatedAt:      now.UTC(),
	}
}
