package timer

import "time"

// SignalKind identifies the kind of message sent to the worker.
type SignalKind string

const (
	// SignalStart keeps a running timer alive or wakes an idle one.
	SignalStart SignalKind = "start"

	// SignalStop ends the current countdown without a timeout.
	SignalStop SignalKind = "stop"

	// SignalTerminate asks the worker to exit. Sent by Close.
	SignalTerminate SignalKind = "terminate"

	// SignalCustom carries a caller-defined payload. It is observed but
	// causes no state change.
	SignalCustom SignalKind = "custom"
)

// Signal is a message moved from a producer to the worker.
type Signal[T any] struct {
	Kind    SignalKind
	Payload T
}

// ActionKind identifies a state transition reported to the callback.
type ActionKind string

const (
	// ActionStarted reports a Start signal. See Action.Restarted.
	ActionStarted ActionKind = "started"

	// ActionTimedOut reports that the countdown expired.
	ActionTimedOut ActionKind = "timed_out"

	// ActionStopped reports a Stop signal. See Action.AlreadyStopped.
	ActionStopped ActionKind = "stopped"
)

// Action describes one state transition of the worker.
type Action struct {
	Kind ActionKind

	// Restarted is set on ActionStarted when the timer was already running,
	// i.e. the countdown was extended rather than woken after a timeout.
	Restarted bool

	// AlreadyStopped is set on ActionStopped when the timer was idle.
	AlreadyStopped bool

	// At is when the worker produced the action.
	At time.Time
}

// Callback receives Actions on the worker goroutine.
type Callback func(Action)

// Logger defines the logging interface for the timer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Option configures a Service.
type Option func(*options)

type options struct {
	name                string
	logger              Logger
	notifyRedundantStop bool
}

// WithLogger sets the logger used by the worker.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName sets a name attached to every log line, useful when several
// timers share a logger.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithRedundantStopNotify controls whether a Stop received while idle still
// invokes the callback (with AlreadyStopped set). Disabled by default.
func WithRedundantStopNotify(enabled bool) Option {
	return func(o *options) {
		o.notifyRedundantStop = enabled
	}
}
