package workerpool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolRespectsLimit(t *testing.T) {
	p := New(nil, 2)
	defer p.Close()

	var current, peak atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.True(t, p.Submit(func(context.Context) {
			defer wg.Done()
			n := current.Add(1)
			for {
				old := peak.Load()
				if n <= old || peak.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
		}))
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 2, p.Limit())
}

func TestSubmitDoesNotBlockWhileSaturated(t *testing.T) {
	p := New(nil, 1)
	defer p.Close()

	release := make(chan struct{})
	require.True(t, p.Submit(func(context.Context) { <-release }))

	done := make(chan struct{})
	go func() {
		p.Submit(func(context.Context) {})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a saturated pool")
	}
	require.Eventually(t, func() bool { return p.Waiting() == 1 }, time.Second, 5*time.Millisecond)
	close(release)
}

func TestCloseCancelsTasksAndRefusesNewOnes(t *testing.T) {
	p := New(nil, 4)

	cancelled := make(chan struct{})
	require.True(t, p.Submit(func(ctx context.Context) {
		<-ctx.Done()
		close(cancelled)
	}))

	p.Close()
	select {
	case <-cancelled:
	default:
		t.Fatal("task context was not cancelled by Close")
	}

	assert.False(t, p.Submit(func(context.Context) {}))
	p.Close()
}

func TestCloseRunsQueuedTasksWithCancelledContext(t *testing.T) {
	p := New(nil, 1)

	release := make(chan struct{})
	require.True(t, p.Submit(func(ctx context.Context) {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}))
	require.Eventually(t, func() bool { return p.Running() == 1 }, time.Second, 5*time.Millisecond)

	var queuedErr atomic.Value
	var ran atomic.Bool
	require.True(t, p.Submit(func(ctx context.Context) {
		ran.Store(true)
		queuedErr.Store(ctx.Err())
	}))
	require.Eventually(t, func() bool { return p.Waiting() == 1 }, time.Second, 5*time.Millisecond)

	p.Close()
	close(release)

	require.True(t, ran.Load(), "a task accepted before Close must still run")
	assert.ErrorIs(t, queuedErr.Load().(error), context.Canceled)
	assert.Zero(t, p.Running())
	assert.Zero(t, p.Waiting())
}

func TestPanickingTaskDoesNotKillPool(t *testing.T) {
	p := New(nil, 1)
	defer p.Close()

	require.True(t, p.Submit(func(context.Context) { panic("boom") }))

	ran := make(chan struct{})
	require.True(t, p.Submit(func(context.Context) { close(ran) }))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("pool stopped running tasks after a panic")
	}
}
