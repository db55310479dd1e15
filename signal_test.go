package tickwait_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/b97tsk/tickwait"
)

func TestSignal(t *testing.T) {
	t.Run("Generations", func(t *testing.T) {
		var sig tickwait.Signal
		before := sig.Wait()
		require.False(t, before.IsCompleted())
		sig.Notify()
		after := sig.Wait()
		require.True(t, before.IsCompleted())
		require.False(t, after.IsCompleted())
		sig.Notify()
		require.True(t, after.IsCompleted())
	})
	t.Run("Broadcast", func(t *testing.T) {
		h := newHarness(t)
		var sig tickwait.Signal
		var woken []int
		for i := range 3 {
			h.s.Spawn(func(co *tickwait.Coroutine) {
				tickwait.Wait(co, sig.Wait(), tickwait.InPhase(tickwait.PostUpdate))
				woken = append(woken, i)
			})
		}
		h.frames(2)
		require.Empty(t, woken)
		sig.Notify()
		h.frame()
		require.Equal(t, []int{0, 1, 2}, woken)
	})
	t.Run("FromAnotherGoroutine", func(t *testing.T) {
		h := newHarness(t)
		var sig tickwait.Signal
		co := h.s.Spawn(func(co *tickwait.Coroutine) {
			tickwait.Wait(co, sig.Wait())
		})
		go func() {
			time.Sleep(5 * time.Millisecond)
			sig.Notify()
		}()
		for range 1000 {
			if co.Ended() {
				break
			}
			h.frame()
			time.Sleep(time.Millisecond)
		}
		require.True(t, co.Ended())
	})
}

func TestState(t *testing.T) {
	t.Run("GetSet", func(t *testing.T) {
		s := tickwait.NewState(1)
		require.Equal(t, 1, s.Get())
		w := s.Changed()
		require.False(t, w.IsCompleted())
		s.Set(2)
		s.Update(func(v int) int { return v * 10 })
		require.Equal(t, 20, s.Get())
		require.True(t, w.IsCompleted())
		require.Equal(t, 20, w.Result())
	})
	t.Run("Coroutine", func(t *testing.T) {
		h := newHarness(t)
		hp := tickwait.NewState(100)
		var seen []int
		co := h.s.Spawn(func(co *tickwait.Coroutine) {
			for {
				v := tickwait.WaitValue[int](co, hp.Changed())
				seen = append(seen, v)
				if v <= 0 {
					return
				}
			}
		})
		h.frame()
		hp.Set(70)
		h.frame()
		hp.Set(30)
		hp.Set(0)
		h.frame()
		require.Equal(t, []int{70, 0}, seen)
		require.True(t, co.Ended())
	})
}

func TestWaitGroup(t *testing.T) {
	t.Run("Counter", func(t *testing.T) {
		var wg tickwait.WaitGroup
		w := wg.Wait()
		require.True(t, w.IsCompleted())
		wg.Add(2)
		require.Equal(t, 2, wg.Count())
		require.False(t, w.IsCompleted())
		wg.Done()
		wg.Done()
		require.True(t, w.IsCompleted())
		require.PanicsWithValue(t, "tickwait(WaitGroup): negative counter", wg.Done)
	})
	t.Run("BackgroundJobs", func(t *testing.T) {
		h := newHarness(t)
		var wg tickwait.WaitGroup
		var mu sync.Mutex
		sum := 0
		co := h.s.Spawn(func(co *tickwait.Coroutine) {
			wg.Add(10)
			for i := range 10 {
				go func() {
					defer wg.Done()
					mu.Lock()
					sum += i
					mu.Unlock()
				}()
			}
			tickwait.Wait(co, wg.Wait())
		})
		for range 1000 {
			if co.Ended() {
				break
			}
			h.frame()
			time.Sleep(time.Millisecond)
		}
		require.True(t, co.Ended())
		mu.Lock()
		defer mu.Unlock()
		require.Equal(t, 45, sum)
	})
}
