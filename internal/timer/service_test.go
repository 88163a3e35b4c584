package timer

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures actions delivered on the worker goroutine.
type recorder struct {
	ch chan Action
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Action, 1024)}
}

func (r *recorder) callback(a Action) {
	r.ch <- a
}

func (r *recorder) next(t *testing.T, within time.Duration) Action {
	t.Helper()
	select {
	case a := <-r.ch:
		return a
	case <-time.After(within):
		t.Fatalf("no action within %v", within)
		return Action{}
	}
}

func (r *recorder) none(t *testing.T, during time.Duration) {
	t.Helper()
	select {
	case a := <-r.ch:
		t.Fatalf("unexpected action %+v", a)
	case <-time.After(during):
	}
}

func (r *recorder) drain() []Action {
	var out []Action
	for {
		select {
		case a := <-r.ch:
			out = append(out, a)
		default:
			return out
		}
	}
}

func newService(t *testing.T, timeout time.Duration, cb Callback, opts ...Option) *Service[string] {
	t.Helper()
	svc, err := New[string](timeout, cb, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestNew_Validation(t *testing.T) {
	_, err := New[string](0, func(Action) {})
	assert.ErrorIs(t, err, ErrInvalidTimeout)

	_, err = New[string](-time.Second, func(Action) {})
	assert.ErrorIs(t, err, ErrInvalidTimeout)

	_, err = New[string](time.Second, nil)
	assert.ErrorIs(t, err, ErrNilCallback)
}

func TestService_ArmedOnConstruction(t *testing.T) {
	rec := newRecorder()
	svc := newService(t, time.Hour, rec.callback)

	assert.True(t, svc.IsRunning())
	assert.Equal(t, time.Hour, svc.Timeout())
}

func TestService_TimesOutOnceWithoutStart(t *testing.T) {
	rec := newRecorder()
	began := time.Now()
	svc := newService(t, 100*time.Millisecond, rec.callback)

	a := rec.next(t, time.Second)
	assert.Equal(t, ActionTimedOut, a.Kind)
	assert.GreaterOrEqual(t, time.Since(began), 90*time.Millisecond)
	assert.False(t, svc.IsRunning())

	rec.none(t, 300*time.Millisecond)
}

func TestService_RepeatedStartNeverTimesOut(t *testing.T) {
	rec := newRecorder()
	svc := newService(t, 150*time.Millisecond, rec.callback)

	const starts = 10
	for i := 0; i < starts; i++ {
		require.NoError(t, svc.Start())
		time.Sleep(30 * time.Millisecond)
	}
	require.NoError(t, svc.Close())

	actions := rec.drain()
	require.Len(t, actions, starts)
	for _, a := range actions {
		assert.Equal(t, ActionStarted, a.Kind)
		assert.True(t, a.Restarted)
	}
}

func TestService_StartAfterTimeoutReportsWake(t *testing.T) {
	rec := newRecorder()
	svc := newService(t, 50*time.Millisecond, rec.callback)

	assert.Equal(t, ActionTimedOut, rec.next(t, time.Second).Kind)

	require.NoError(t, svc.Start())
	a := rec.next(t, time.Second)
	assert.Equal(t, ActionStarted, a.Kind)
	assert.False(t, a.Restarted)
	assert.True(t, svc.IsRunning())

	require.NoError(t, svc.Start())
	a = rec.next(t, time.Second)
	assert.Equal(t, ActionStarted, a.Kind)
	assert.True(t, a.Restarted)

	assert.Equal(t, ActionTimedOut, rec.next(t, time.Second).Kind)
}

func TestService_CustomSignalKeepsDeadline(t *testing.T) {
	rec := newRecorder()
	began := time.Now()
	svc := newService(t, 200*time.Millisecond, rec.callback)

	for i := 0; i < 6; i++ {
		require.NoError(t, svc.Signal("motion-note"))
		time.Sleep(30 * time.Millisecond)
	}

	a := rec.next(t, time.Second)
	elapsed := time.Since(began)
	assert.Equal(t, ActionTimedOut, a.Kind)
	assert.GreaterOrEqual(t, elapsed, 190*time.Millisecond)
	assert.Less(t, elapsed, 330*time.Millisecond, "custom signals must not extend the deadline")
}

func TestService_CustomSignalWhileIdle(t *testing.T) {
	rec := newRecorder()
	svc := newService(t, 30*time.Millisecond, rec.callback)
	assert.Equal(t, ActionTimedOut, rec.next(t, time.Second).Kind)

	require.NoError(t, svc.Signal("ignored"))
	rec.none(t, 100*time.Millisecond)
	assert.False(t, svc.IsRunning())
}

func TestService_SetTimeoutAppliesToNextWait(t *testing.T) {
	rec := newRecorder()
	began := time.Now()
	svc := newService(t, 300*time.Millisecond, rec.callback)

	// Let the worker enter its first wait before changing the timeout.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, svc.SetTimeout(20*time.Millisecond))
	assert.Equal(t, 20*time.Millisecond, svc.Timeout())

	assert.Equal(t, ActionTimedOut, rec.next(t, time.Second).Kind)
	assert.GreaterOrEqual(t, time.Since(began), 280*time.Millisecond, "wait in progress keeps its deadline")

	require.NoError(t, svc.Start())
	assert.Equal(t, ActionStarted, rec.next(t, time.Second).Kind)

	woke := time.Now()
	assert.Equal(t, ActionTimedOut, rec.next(t, time.Second).Kind)
	assert.Less(t, time.Since(woke), 200*time.Millisecond)
}

func TestService_SetTimeoutRejectsNonPositive(t *testing.T) {
	svc := newService(t, time.Hour, func(Action) {})

	assert.ErrorIs(t, svc.SetTimeout(0), ErrInvalidTimeout)
	assert.Equal(t, time.Hour, svc.Timeout())
}

func TestService_Stop(t *testing.T) {
	rec := newRecorder()
	svc := newService(t, 50*time.Millisecond, rec.callback)

	require.NoError(t, svc.Stop())
	a := rec.next(t, time.Second)
	assert.Equal(t, ActionStopped, a.Kind)
	assert.False(t, a.AlreadyStopped)
	assert.False(t, svc.IsRunning())

	// Stopped timers do not time out, and a second Stop is silent by default.
	require.NoError(t, svc.Stop())
	rec.none(t, 150*time.Millisecond)

	require.NoError(t, svc.Start())
	a = rec.next(t, time.Second)
	assert.Equal(t, ActionStarted, a.Kind)
	assert.False(t, a.Restarted)
}

func TestService_RedundantStopNotify(t *testing.T) {
	rec := newRecorder()
	svc := newService(t, 30*time.Millisecond, rec.callback, WithRedundantStopNotify(true))

	assert.Equal(t, ActionTimedOut, rec.next(t, time.Second).Kind)

	require.NoError(t, svc.Stop())
	a := rec.next(t, time.Second)
	assert.Equal(t, ActionStopped, a.Kind)
	assert.True(t, a.AlreadyStopped)
}

func TestService_FIFOOrdering(t *testing.T) {
	rec := newRecorder()
	svc := newService(t, time.Hour, rec.callback)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Start())
		require.NoError(t, svc.Stop())
	}
	require.NoError(t, svc.Close())

	actions := rec.drain()
	require.Len(t, actions, 10)

	// The first Start extends the armed timer; later ones wake it from Stop.
	for i, a := range actions {
		if i%2 == 0 {
			assert.Equal(t, ActionStarted, a.Kind, "action %d", i)
			assert.Equal(t, i == 0, a.Restarted, "action %d", i)
		} else {
			assert.Equal(t, ActionStopped, a.Kind, "action %d", i)
			assert.False(t, a.AlreadyStopped, "action %d", i)
		}
	}
}

func TestService_CloseDrainsPendingSignals(t *testing.T) {
	var count atomic.Int32
	svc, err := New[int](time.Hour, func(Action) {
		time.Sleep(2 * time.Millisecond)
		count.Add(1)
	})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		require.NoError(t, svc.Signal(i))
		require.NoError(t, svc.Start())
	}
	require.NoError(t, svc.Close())

	assert.Equal(t, int32(50), count.Load())
	assert.ErrorIs(t, svc.Start(), ErrStopped)
	assert.ErrorIs(t, svc.Signal(1), ErrStopped)
	assert.NoError(t, svc.Close(), "second Close is a no-op")
}

func TestService_NoActionAfterClose(t *testing.T) {
	var count atomic.Int32
	svc, err := New[string](20*time.Millisecond, func(Action) { count.Add(1) })
	require.NoError(t, err)

	require.NoError(t, svc.Close())
	before := count.Load()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, before, count.Load())

	select {
	case <-svc.Done():
	default:
		t.Fatal("Done() not closed after Close()")
	}
}

func TestService_ConcurrentProducers(t *testing.T) {
	rec := newRecorder()
	svc, err := New[string](time.Hour, rec.callback)
	require.NoError(t, err)

	const producers, perProducer = 8, 50
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				assert.NoError(t, svc.Start())
			}
		}()
	}
	wg.Wait()
	require.NoError(t, svc.Close())

	actions := rec.drain()
	require.Len(t, actions, producers*perProducer)
	for _, a := range actions {
		assert.True(t, a.Restarted)
	}
}

func TestService_CallbackPanicRecovered(t *testing.T) {
	rec := newRecorder()
	var calls atomic.Int32
	svc := newService(t, 30*time.Millisecond, func(a Action) {
		if calls.Add(1) == 1 {
			panic("boom")
		}
		rec.callback(a)
	})

	// Give the first (panicking) timeout a chance to fire.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, svc.Start())

	a := rec.next(t, time.Second)
	assert.Equal(t, ActionStarted, a.Kind)
	assert.False(t, a.Restarted)
}

func TestService_DisconnectIsFatal(t *testing.T) {
	rec := newRecorder()
	svc, err := New[string](time.Hour, rec.callback)
	require.NoError(t, err)

	svc.w.queue.disconnect()

	select {
	case <-svc.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not exit after disconnect")
	}

	assert.ErrorIs(t, svc.Err(), ErrDisconnected)
	assert.False(t, svc.IsRunning())
	assert.ErrorIs(t, svc.Start(), ErrStopped)
	assert.ErrorIs(t, svc.Close(), ErrDisconnected)
	assert.Empty(t, rec.drain())
}

func TestService_DisconnectDeliversQueuedSignalsFirst(t *testing.T) {
	rec := newRecorder()
	svc, err := New[string](time.Hour, rec.callback)
	require.NoError(t, err)

	// Hold the worker inside a callback so the queue can be loaded.
	block := make(chan struct{})
	svc.w.callback = func(a Action) {
		<-block
		rec.callback(a)
	}
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())
	require.NoError(t, svc.Start())
	svc.w.queue.disconnect()
	close(block)

	<-svc.Done()
	assert.Len(t, rec.drain(), 3)
	assert.ErrorIs(t, svc.Err(), ErrDisconnected)
}
