package app

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunsImmediatelyAndStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs int32
	done := make(chan error, 1)
	go func() {
		done <- Scheduler{Interval: time.Hour}.Run(ctx, func(context.Context) {
			atomic.AddInt32(&runs, 1)
		})
	}()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&runs))
}

func TestScheduler_NeverOverlaps(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var active, maxActive, runs int32
	task := func(context.Context) {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(15 * time.Millisecond) // longer than the interval
		atomic.AddInt32(&active, -1)
		if atomic.AddInt32(&runs, 1) >= 4 {
			cancel()
		}
	}

	err := Scheduler{Interval: 5 * time.Millisecond}.Run(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&maxActive))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(4))
}

func TestScheduler_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := Scheduler{Interval: time.Millisecond}.Run(ctx, func(context.Context) { called = true })
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestScheduler_InvalidInterval(t *testing.T) {
	err := Scheduler{}.Run(context.Background(), func(context.Context) {})
	assert.ErrorIs(t, err, errInvalidInterval)
}
