package timer

import (
	"runtime"
	"sync"
	"time"
)

// workerState is the worker's position in the state machine.
type workerState int

const (
	stateRunning workerState = iota
	stateIdle
	stateExit
)

// Service is the handle to a timer worker.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Dropping the last reference to a Service without calling Close is a
//     lifecycle bug; the worker then exits with ErrDisconnected.
type Service[T any] struct {
	w *worker[T]
}

// worker holds everything the worker goroutine touches. It never references
// the Service, so an abandoned Service can be garbage collected and its
// cleanup can disconnect the queue.
type worker[T any] struct {
	queue               *queue[T]
	callback            Callback
	logger              Logger
	name                string
	notifyRedundantStop bool

	// mu guards timeout, running and err. It is held for single reads and
	// writes only, never across a wait or a callback.
	mu      sync.RWMutex
	timeout time.Duration
	running bool
	err     error

	done chan struct{}
}

// New creates a Service and starts its worker.
//
// The timer is armed immediately: unless Start arrives first, the callback
// receives ActionTimedOut after timeout.
//
// Parameters:
//   - timeout: Initial idle timeout, must be positive
//   - callback: Invoked on the worker goroutine for every Action
//   - opts: Optional settings (logger, name, redundant stop notification)
//
// Returns:
//   - *Service[T]: Running service; call Close when done
//   - error: ErrInvalidTimeout or ErrNilCallback
func New[T any](timeout time.Duration, callback Callback, opts ...Option) (*Service[T], error) {
	if timeout <= 0 {
		return nil, ErrInvalidTimeout
	}
	if callback == nil {
		return nil, ErrNilCallback
	}

	o := options{logger: noopLogger{}}
	for _, opt := range opts {
		opt(&o)
	}

	w := &worker[T]{
		queue:               newQueue[T](),
		callback:            callback,
		logger:              o.logger,
		name:                o.name,
		notifyRedundantStop: o.notifyRedundantStop,
		timeout:             timeout,
		running:             true,
		done:                make(chan struct{}),
	}
	go w.run()

	s := &Service[T]{w: w}
	runtime.AddCleanup(s, func(q *queue[T]) { q.disconnect() }, w.queue)

	return s, nil
}

// Start keeps a running timer alive or wakes an idle one.
// It never blocks and returns ErrStopped once the worker has exited.
func (s *Service[T]) Start() error {
	return s.w.queue.send(Signal[T]{Kind: SignalStart})
}

// Stop ends the current countdown without a timeout.
func (s *Service[T]) Stop() error {
	return s.w.queue.send(Signal[T]{Kind: SignalStop})
}

// Signal sends a custom payload to the worker. It is logged at debug level
// and causes no state change.
func (s *Service[T]) Signal(payload T) error {
	return s.w.queue.send(Signal[T]{Kind: SignalCustom, Payload: payload})
}

// SetTimeout replaces the idle timeout. A wait already in progress keeps its
// deadline; the new value applies from the next wait.
func (s *Service[T]) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return ErrInvalidTimeout
	}
	s.w.mu.Lock()
	s.w.timeout = d
	s.w.mu.Unlock()
	return nil
}

// Timeout returns the current idle timeout.
func (s *Service[T]) Timeout() time.Duration {
	return s.w.currentTimeout()
}

// IsRunning reports whether the worker believes a countdown is active.
//
// The value is advisory: it may change as soon as it is read and must not be
// used for synchronisation.
func (s *Service[T]) IsRunning() bool {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.w.running
}

// Close asks the worker to exit and waits until it has.
//
// Every signal sent before Close is processed first. No Action is delivered
// after Close returns. Calling Close again is a no-op.
//
// Returns:
//   - error: ErrDisconnected if the worker had already failed, otherwise nil
func (s *Service[T]) Close() error {
	// ErrStopped here only means the worker is already gone.
	_ = s.w.queue.send(Signal[T]{Kind: SignalTerminate}) //nolint:errcheck // see above
	<-s.w.done
	return s.Err()
}

// Done returns a channel closed when the worker exits.
func (s *Service[T]) Done() <-chan struct{} {
	return s.w.done
}

// Err returns the reason the worker exited abnormally, or nil.
func (s *Service[T]) Err() error {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return s.w.err
}

// run is the worker loop.
func (w *worker[T]) run() {
	defer close(w.done)
	defer w.queue.markExited()

	state := stateRunning
	for state != stateExit {
		if state == stateRunning {
			state = w.waitRunning()
		} else {
			state = w.waitIdle()
		}
	}
}

// waitRunning waits for a signal with the current timeout as deadline.
// Custom signals do not move the deadline; Start re-enters with a fresh one.
func (w *worker[T]) waitRunning() workerState {
	deadline := time.NewTimer(w.currentTimeout())
	defer deadline.Stop()

	for {
		sig, res := w.queue.receive(deadline.C)
		switch res {
		case deadlineExpired:
			w.setRunning(false)
			w.emit(Action{Kind: ActionTimedOut})
			return stateIdle
		case disconnected:
			w.fail()
			return stateExit
		}

		switch sig.Kind {
		case SignalStart:
			w.emit(Action{Kind: ActionStarted, Restarted: true})
			return stateRunning
		case SignalStop:
			w.setRunning(false)
			w.emit(Action{Kind: ActionStopped})
			return stateIdle
		case SignalTerminate:
			return stateExit
		default:
			w.observe(sig)
		}
	}
}

// waitIdle blocks without a deadline until Start, Stop or Close.
func (w *worker[T]) waitIdle() workerState {
	for {
		sig, res := w.queue.receive(nil)
		if res == disconnected {
			w.fail()
			return stateExit
		}

		switch sig.Kind {
		case SignalStart:
			w.setRunning(true)
			w.emit(Action{Kind: ActionStarted, Restarted: false})
			return stateRunning
		case SignalStop:
			if w.notifyRedundantStop {
				w.emit(Action{Kind: ActionStopped, AlreadyStopped: true})
			}
		case SignalTerminate:
			return stateExit
		default:
			w.observe(sig)
		}
	}
}

// emit invokes the callback, recovering from panics so one bad action does
// not take the worker down.
func (w *worker[T]) emit(action Action) {
	action.At = time.Now()

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("timer callback panic recovered",
				"timer", w.name,
				"action", action.Kind,
				"panic", r,
			)
		}
	}()

	w.callback(action)
}

func (w *worker[T]) observe(sig Signal[T]) {
	w.logger.Debug("timer signal received",
		"timer", w.name,
		"kind", sig.Kind,
		"payload", sig.Payload,
	)
}

func (w *worker[T]) fail() {
	w.mu.Lock()
	w.err = ErrDisconnected
	w.running = false
	w.mu.Unlock()

	w.logger.Error("timer owner dropped without Close, worker exiting",
		"timer", w.name,
		"error", ErrDisconnected,
	)
}

func (w *worker[T]) currentTimeout() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.timeout
}

func (w *worker[T]) setRunning(running bool) {
	w.mu.Lock()
	w.running = running
	w.mu.Unlock()
}
