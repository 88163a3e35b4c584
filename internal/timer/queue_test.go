package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := newQueue[int]()
	for i := 0; i < 100; i++ {
		require.NoError(t, q.send(Signal[int]{Kind: SignalCustom, Payload: i}))
	}

	for i := 0; i < 100; i++ {
		sig, res := q.receive(nil)
		require.Equal(t, received, res)
		assert.Equal(t, i, sig.Payload)
	}
}

func TestQueue_DeadlineExpires(t *testing.T) {
	q := newQueue[int]()
	deadline := time.NewTimer(20 * time.Millisecond)
	defer deadline.Stop()

	_, res := q.receive(deadline.C)
	assert.Equal(t, deadlineExpired, res)
}

func TestQueue_ReceiveWakesOnSend(t *testing.T) {
	q := newQueue[string]()
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = q.send(Signal[string]{Kind: SignalStart})
	}()

	sig, res := q.receive(nil)
	assert.Equal(t, received, res)
	assert.Equal(t, SignalStart, sig.Kind)
}

func TestQueue_Disconnect(t *testing.T) {
	q := newQueue[int]()
	require.NoError(t, q.send(Signal[int]{Kind: SignalStart}))
	q.disconnect()

	assert.ErrorIs(t, q.send(Signal[int]{Kind: SignalStart}), ErrStopped)

	_, res := q.receive(nil)
	assert.Equal(t, received, res, "queued signal delivered before disconnect")

	_, res = q.receive(nil)
	assert.Equal(t, disconnected, res)
}

func TestQueue_RejectsAfterExit(t *testing.T) {
	q := newQueue[int]()
	require.NoError(t, q.send(Signal[int]{Kind: SignalStart}))
	q.markExited()

	assert.ErrorIs(t, q.send(Signal[int]{Kind: SignalStart}), ErrStopped)
}
