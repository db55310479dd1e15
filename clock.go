package tickwait

import (
	"math"
	"sync/atomic"
	"time"
)

// Clock supplies the frame counter and the time sources that built-in
// instructions measure against.
//
// All methods must be safe for concurrent use, since instructions may be
// created off the main thread.
type Clock interface {
	// FrameCount returns the number of frames started so far.
	FrameCount() uint64
	// Time returns the scaled simulation time since start.
	Time() time.Duration
	// UnscaledTime returns the simulation time since start, unaffected by
	// time scale.
	UnscaledTime() time.Duration
	// Realtime returns the wall-clock time since start.
	Realtime() time.Duration
}

// ManualClock is a [Clock] advanced explicitly by its host, usually once per
// frame by a [Loop].
// Its realtime source defaults to the wall clock.
type ManualClock struct {
	frame    atomic.Uint64
	scaled   atomic.Int64
	unscaled atomic.Int64
	scale    atomic.Uint64
	start    time.Time
	now      func() time.Time
}

// NewManualClock returns a [ManualClock] at frame zero with a time scale
// of 1.
func NewManualClock() *ManualClock {
	c := &ManualClock{start: time.Now(), now: time.Now}
	c.scale.Store(math.Float64bits(1))
	return c
}

// SetNow replaces the wall-clock source used by Realtime and resets the
// realtime origin to now().
//
// SetNow must be called before c is shared.
func (c *ManualClock) SetNow(now func() time.Time) {
	if now == nil {
		panic("tickwait: SetNow(nil)")
	}
	c.now = now
	c.start = now()
}

// Advance starts a new frame that lasted dt of unscaled time.
// Scaled time advances by dt multiplied by the current time scale.
func (c *ManualClock) Advance(dt time.Duration) {
	if dt < 0 {
		panic("tickwait: negative frame duration")
	}
	scaled := time.Duration(math.Round(float64(dt) * c.TimeScale()))
	c.unscaled.Add(int64(dt))
	c.scaled.Add(int64(scaled))
	c.frame.Add(1)
}

// SetTimeScale sets the factor applied to scaled time.
// A scale of 0 freezes scaled time.
func (c *ManualClock) SetTimeScale(scale float64) {
	if scale < 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		panic("tickwait: invalid time scale")
	}
	c.scale.Store(math.Float64bits(scale))
}

// TimeScale returns the factor applied to scaled time.
func (c *ManualClock) TimeScale() float64 {
	return math.Float64frombits(c.scale.Load())
}

func (c *ManualClock) FrameCount() uint64 {
	return c.frame.Load()
}

func (c *ManualClock) Time() time.Duration {
	return time.Duration(c.scaled.Load())
}

func (c *ManualClock) UnscaledTime() time.Duration {
	return time.Duration(c.unscaled.Load())
}

func (c *ManualClock) Realtime() time.Duration {
	return c.now().Sub(c.start)
}
