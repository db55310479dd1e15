package tickwait_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/b97tsk/tickwait"
)

func TestSemaphore(t *testing.T) {
	t.Run("Bounds", func(t *testing.T) {
		h := newHarness(t)
		sema := tickwait.NewSemaphore(2)
		running, peak := 0, 0
		for range 5 {
			h.s.Spawn(func(co *tickwait.Coroutine) {
				tickwait.Wait(co, sema.Acquire(1))
				defer sema.Release(1)
				running++
				peak = max(peak, running)
				co.DelayFrames(2)
				running--
			})
		}
		require.Equal(t, 2, running)
		h.frames(10)
		require.Zero(t, running)
		require.Equal(t, 2, peak)
		require.Zero(t, h.s.Coroutines())
		require.True(t, sema.TryAcquire(2))
	})
	t.Run("Oversized", func(t *testing.T) {
		sema := tickwait.NewSemaphore(1)
		w := sema.Acquire(2)
		require.False(t, w.IsCompleted())
		require.True(t, sema.TryAcquire(1))
	})
	t.Run("CompletedOnce", func(t *testing.T) {
		sema := tickwait.NewSemaphore(3)
		w := sema.Acquire(2)
		require.True(t, w.IsCompleted())
		require.True(t, w.IsCompleted())
		require.False(t, sema.TryAcquire(2))
		require.True(t, sema.TryAcquire(1))
	})
	t.Run("StoppedWaiter", func(t *testing.T) {
		// A waiter stopped before acquiring holds nothing.
		h := newHarness(t)
		sema := tickwait.NewSemaphore(1)
		require.True(t, sema.TryAcquire(1))
		co := h.s.Spawn(func(co *tickwait.Coroutine) {
			tickwait.Wait(co, sema.Acquire(1))
			t.Error("acquired by a stopped coroutine")
		})
		h.frame()
		co.Stop()
		sema.Release(1)
		h.frames(2)
		require.True(t, sema.TryAcquire(1))
	})
	t.Run("ReleaseTooMuch", func(t *testing.T) {
		sema := tickwait.NewSemaphore(1)
		require.PanicsWithValue(t, "tickwait(Semaphore): released more than held", func() { sema.Release(1) })
		require.Panics(t, func() { sema.Acquire(-1) })
	})
}
