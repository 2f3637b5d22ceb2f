package countdown

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tick = 5 * time.Millisecond

func TestCountdown_FiresOnce(t *testing.T) {
	var fired atomic.Int32
	var ticks atomic.Int32
	done := make(chan struct{})

	c := New(3, tick)
	err := c.Start(
		func(remaining int) { ticks.Add(1) },
		func() { fired.Add(1); close(done) },
	)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("countdown never fired")
	}

	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, int32(3), ticks.Load(), "onTick for 3, 2, 1")
	assert.Equal(t, Idle, c.State())
}

func TestCountdown_TicksArriveInOrder(t *testing.T) {
	var mu sync.Mutex
	var seq []int
	done := make(chan struct{})

	c := New(3, time.Millisecond)
	err := c.Start(
		func(remaining int) {
			mu.Lock()
			seq = append(seq, remaining)
			mu.Unlock()
		},
		func() { close(done) },
	)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("countdown never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3, 2, 1}, seq, "starting value must be shown before the timer ticks")
}

func TestCountdown_SecondStartRejected(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{})

	c := New(3, tick)
	require.NoError(t, c.Start(nil, func() { fired.Add(1); close(done) }))

	err := c.Start(nil, func() { fired.Add(1) })
	assert.ErrorIs(t, err, ErrAlreadyCounting)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("countdown never fired")
	}
	// give a hypothetical second countdown time to misfire
	time.Sleep(5 * tick)
	assert.Equal(t, int32(1), fired.Load(), "only one capture per completed countdown")
}

func TestCountdown_CancelDiscardsWithoutFiring(t *testing.T) {
	var fired atomic.Int32

	c := New(3, 20*time.Millisecond)
	require.NoError(t, c.Start(nil, func() { fired.Add(1) }))
	c.Cancel()
	assert.Equal(t, Idle, c.State())

	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load(), "teardown mid-countdown must not capture")
}

func TestCountdown_CancelThenRestart(t *testing.T) {
	var fired atomic.Int32
	done := make(chan struct{})

	c := New(2, tick)
	require.NoError(t, c.Start(nil, func() { fired.Add(1) }))
	c.Cancel()

	require.NoError(t, c.Start(nil, func() { fired.Add(1); close(done) }))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("restarted countdown never fired")
	}
	assert.Equal(t, int32(1), fired.Load())
}

func TestCountdown_CancelWhileIdleIsNoop(t *testing.T) {
	c := New(3, tick)
	c.Cancel()
	assert.Equal(t, Idle, c.State())
}
