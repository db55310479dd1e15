package tickwait_test

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/b97tsk/tickwait"
)

const frameTime = time.Second / 60

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// harness drives a scheduler by hand, one frame at a time.
type harness struct {
	t     testing.TB
	clock *tickwait.ManualClock
	s     *tickwait.Scheduler
}

func newHarness(t testing.TB, opts ...tickwait.Option) *harness {
	t.Helper()
	clock := tickwait.NewManualClock()
	opts = append([]tickwait.Option{tickwait.WithLogger(quietLogger())}, opts...)
	s := tickwait.NewScheduler(clock, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return &harness{t: t, clock: clock, s: s}
}

// frame starts a new frame and ticks every phase.
func (h *harness) frame() {
	h.t.Helper()
	h.clock.Advance(frameTime)
	for _, p := range tickwait.Phases() {
		require.NoError(h.t, h.s.Tick(p), "phase %v", p)
	}
}

func (h *harness) frames(n int) {
	h.t.Helper()
	for range n {
		h.frame()
	}
}

// skip advances the clock without ticking.
func (h *harness) skip(n int) {
	for range n {
		h.clock.Advance(frameTime)
	}
}

// flag is a predicate that can be flipped between polls.
type flag struct{ on bool }

func (f *flag) get() bool { return f.on }
