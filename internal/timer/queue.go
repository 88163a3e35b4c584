package timer

import (
	"sync"
	"time"
)

// receiveResult describes how a receive on the queue ended.
type receiveResult int

const (
	received receiveResult = iota
	deadlineExpired
	disconnected
)

// queue is the unbounded FIFO between producers and the worker.
//
// Producers never block. The worker blocks on ready, which holds at most one
// wake-up token; every receive drains pending items before waiting again, so
// a single token covers any number of sends.
type queue[T any] struct {
	mu     sync.Mutex
	items  []Signal[T]
	ready  chan struct{}
	closed bool // the owning handle is gone
	exited bool // the worker has returned; sends are rejected
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{
		ready: make(chan struct{}, 1),
	}
}

// send appends sig. It returns ErrStopped once the worker has exited or the
// owner has disconnected.
func (q *queue[T]) send(sig Signal[T]) error {
	q.mu.Lock()
	if q.exited || q.closed {
		q.mu.Unlock()
		return ErrStopped
	}
	q.items = append(q.items, sig)
	q.mu.Unlock()

	q.wake()
	return nil
}

// receive returns the oldest pending signal, waiting until one arrives,
// deadline fires, or the queue is disconnected. A nil deadline waits forever.
func (q *queue[T]) receive(deadline <-chan time.Time) (Signal[T], receiveResult) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			sig := q.items[0]
			q.items[0] = Signal[T]{}
			q.items = q.items[1:]
			if len(q.items) == 0 {
				q.items = nil
			}
			q.mu.Unlock()
			return sig, received
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return Signal[T]{}, disconnected
		}

		select {
		case <-q.ready:
		case <-deadline:
			return Signal[T]{}, deadlineExpired
		}
	}
}

// disconnect marks the owner as gone. Signals already queued are still
// delivered before the worker observes the disconnect.
func (q *queue[T]) disconnect() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.wake()
}

// markExited rejects all further sends.
func (q *queue[T]) markExited() {
	q.mu.Lock()
	q.exited = true
	q.items = nil
	q.mu.Unlock()
}

func (q *queue[T]) wake() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
