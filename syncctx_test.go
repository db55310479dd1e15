package tickwait_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b97tsk/tickwait"
)

const noTick = -1

// probe records where a coroutine runs: whether on the main thread, and
// which phase (if any) is being ticked at the time.
type probe struct {
	ticking atomic.Int32
	seen    []step
}

type step struct {
	onMain bool
	phase  int32
}

func newProbe() *probe {
	p := new(probe)
	p.ticking.Store(noTick)
	return p
}

func (p *probe) record(co *tickwait.Coroutine) {
	p.seen = append(p.seen, step{co.OnMainThread(), p.ticking.Load()})
}

// frame is like harness.frame but publishes the phase being ticked.
func (p *probe) frame(h *harness) {
	h.t.Helper()
	h.clock.Advance(frameTime)
	for _, ph := range tickwait.Phases() {
		p.ticking.Store(int32(ph))
		err := h.s.Tick(ph)
		p.ticking.Store(noTick)
		require.NoError(h.t, err, "phase %v", ph)
	}
}

func TestThreadSwitching(t *testing.T) {
	pool := tickwait.NewPool(context.Background(), 2)
	defer func() { require.NoError(t, pool.Close()) }()

	h := newHarness(t, tickwait.WithExecutor(pool))
	p := newProbe()

	co := h.s.Spawn(func(co *tickwait.Coroutine) {
		p.record(co)
		co.SwitchToBackground()
		p.record(co)
		co.SwitchToBackground()
		p.record(co)
		co.SwitchToMainThread()
		p.record(co)
		co.SwitchToMainThread()
		p.record(co)
		co.NextFrame()
		p.record(co)
		co.SwitchToBackground()
		p.record(co)
		co.NextFrame()
		p.record(co)
	})

	for range 1000 {
		if co.Ended() {
			break
		}
		p.frame(h)
		time.Sleep(time.Millisecond)
	}
	require.True(t, co.Ended())
	require.NoError(t, co.Err())

	initialization := int32(tickwait.Initialization)
	update := int32(tickwait.Update)
	want := []step{
		{true, noTick},
		{false, noTick},
		{false, noTick},
		{true, initialization},
		{true, initialization},
		{true, update},
		{false, noTick},
		{true, update},
	}
	require.Len(t, p.seen, len(want))
	for i, w := range want {
		assert.Equal(t, w.onMain, p.seen[i].onMain, "step %d", i+1)
		if w.onMain {
			assert.Equal(t, w.phase, p.seen[i].phase, "step %d", i+1)
		}
	}
}

func TestSwitchToMainThread(t *testing.T) {
	t.Run("FastPath", func(t *testing.T) {
		h := newHarness(t)
		co := h.s.Spawn(func(co *tickwait.Coroutine) {
			co.SwitchToMainThread()
			co.SwitchToMainThread()
		})
		require.True(t, co.Ended())
	})
	t.Run("InlineExecutor", func(t *testing.T) {
		// An executor that runs jobs synchronously resumes the coroutine
		// before SwitchToBackground's caller regains control.
		var submitted int
		inline := tickwait.ExecutorFunc(func(f func()) {
			submitted++
			f()
		})
		h := newHarness(t, tickwait.WithExecutor(inline))
		p := newProbe()

		co := h.s.Spawn(func(co *tickwait.Coroutine) {
			co.SwitchToBackground()
			p.record(co)
			co.SwitchToMainThread()
			p.record(co)
		})
		require.Equal(t, 1, submitted)
		require.False(t, co.Ended())
		require.Len(t, p.seen, 1)
		require.False(t, p.seen[0].onMain)

		p.frame(h)
		require.True(t, co.Ended())
		require.Equal(t, step{true, int32(tickwait.Initialization)}, p.seen[1])
	})
	t.Run("ClosedScheduler", func(t *testing.T) {
		var hold func()
		gate := tickwait.ExecutorFunc(func(f func()) { hold = f })
		h := newHarness(t, tickwait.WithExecutor(gate))
		reached := false
		co := h.s.Spawn(func(co *tickwait.Coroutine) {
			co.SwitchToBackground()
			co.SwitchToMainThread()
			reached = true
		})
		require.NotNil(t, hold)
		require.NoError(t, h.s.Close())

		// Close resumed the coroutine to stop it; the executor's job
		// finds it already gone.
		require.True(t, co.Stopped())
		hold()
		require.False(t, reached)
	})
}
