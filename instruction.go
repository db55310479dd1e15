package tickwait

import (
	"fmt"
	"time"

	"fortio.org/safecast"
)

// Instruction is the interface of any wait condition a [Continuation] can
// poll.
//
// IsCompleted reports whether the condition has been met.
// It is called at most once per occurrence of the continuation's phase, on
// the main thread, and must not block.
type Instruction interface {
	IsCompleted() bool
}

// InstructionPtr constrains P to be *T where *T implements [Instruction].
//
// It lets a [Continuation] store an instruction by value while still calling
// its pointer methods, so built-in instructions need no separate allocation.
type InstructionPtr[T any] interface {
	*T
	Instruction
}

// ValueInstruction is an [Instruction] that produces a result when it
// completes.
type ValueInstruction[R any] interface {
	Instruction
	Result() R
}

// ValueInstructionPtr is the [ValueInstruction] counterpart of
// [InstructionPtr].
type ValueInstructionPtr[T, R any] interface {
	*T
	ValueInstruction[R]
}

// Box returns a pointer to a copy of v.
// Useful for yielding built-in instructions from a legacy [Enumerator],
// which requires values that implement [Instruction] directly.
func Box[T any, P InstructionPtr[T]](v T) P {
	return &v
}

// FrameWait waits a number of frames.
// See [WaitFrames].
type FrameWait struct {
	clock     Clock
	initial   uint64
	remaining uint32
}

// WaitFrames returns a [FrameWait] that completes after being polled n
// times in frames later than the one it was created in.
// Polls in the creation frame do not count.
// A phase fired more than once per frame, such as FixedUpdate with a fixed
// timestep, can complete it within a single frame.
// If n <= 0, the returned FrameWait is already completed.
func WaitFrames(clock Clock, n int) FrameWait {
	w := FrameWait{clock: clock, initial: clock.FrameCount()}
	if n > 0 {
		remaining, err := safecast.Conv[uint32](n)
		if err != nil {
			panic(fmt.Sprintf("tickwait: frame count %d out of range", n))
		}
		w.remaining = remaining
	}
	return w
}

// NextFrame returns a [FrameWait] that completes in the next frame.
func NextFrame(clock Clock) FrameWait {
	return WaitFrames(clock, 1)
}

func (w *FrameWait) IsCompleted() bool {
	if w.remaining == 0 {
		return true
	}
	if w.clock.FrameCount() == w.initial {
		return false
	}
	w.remaining--
	return w.remaining == 0
}

// TimeSource selects which [Clock] reading a [TimeWait] measures against.
type TimeSource uint8

const (
	ScaledTime TimeSource = iota
	UnscaledTime
	Realtime
)

func (s TimeSource) now(c Clock) time.Duration {
	switch s {
	case ScaledTime:
		return c.Time()
	case UnscaledTime:
		return c.UnscaledTime()
	case Realtime:
		return c.Realtime()
	default:
		panic("tickwait: unknown time source")
	}
}

// TimeWait waits until a point in time.
// See [WaitSeconds].
type TimeWait struct {
	clock    Clock
	source   TimeSource
	deadline time.Duration
}

// WaitSeconds returns a [TimeWait] that completes once d of scaled time has
// elapsed since its creation.
// Scaled time stands still while the time scale is 0.
func WaitSeconds(clock Clock, d time.Duration) TimeWait {
	return WaitTime(clock, ScaledTime, d)
}

// WaitSecondsUnscaled is like [WaitSeconds] but ignores time scale.
func WaitSecondsUnscaled(clock Clock, d time.Duration) TimeWait {
	return WaitTime(clock, UnscaledTime, d)
}

// WaitSecondsRealtime is like [WaitSeconds] but measures wall-clock time.
func WaitSecondsRealtime(clock Clock, d time.Duration) TimeWait {
	return WaitTime(clock, Realtime, d)
}

// WaitTime returns a [TimeWait] that completes once d has elapsed on the
// given time source.
func WaitTime(clock Clock, source TimeSource, d time.Duration) TimeWait {
	return TimeWait{clock: clock, source: source, deadline: source.now(clock) + d}
}

func (w *TimeWait) IsCompleted() bool {
	return w.source.now(w.clock) >= w.deadline
}

// Until waits for a predicate to become true.
type Until struct {
	pred func() bool
}

// WaitUntil returns an [Until] that completes when pred returns true.
func WaitUntil(pred func() bool) Until {
	if pred == nil {
		panic("tickwait: WaitUntil(nil)")
	}
	return Until{pred: pred}
}

func (w *Until) IsCompleted() bool {
	return w.pred()
}

// While waits for a predicate to become false.
type While struct {
	pred func() bool
}

// WaitWhile returns a [While] that completes when pred returns false.
func WaitWhile(pred func() bool) While {
	if pred == nil {
		panic("tickwait: WaitWhile(nil)")
	}
	return While{pred: pred}
}

func (w *While) IsCompleted() bool {
	return !w.pred()
}

// YieldWait completes on its second query.
// Awaited through [Await] (or [Wait]), the first query is the fast-path
// check, so a YieldWait resumes on the next occurrence of its phase.
type YieldWait struct {
	queried bool
}

// Yield returns a new [YieldWait].
func Yield() YieldWait {
	return YieldWait{}
}

func (w *YieldWait) IsCompleted() bool {
	if !w.queried {
		w.queried = true
		return false
	}
	return true
}

// ValueChange waits for a value to change.
// See [WaitUntilValueChanged].
type ValueChange[T comparable] struct {
	get   func() T
	last  T
	value T
}

// WaitUntilValueChanged returns a [ValueChange] that completes when get
// returns something different from what it returned at creation.
// The new value is its result.
func WaitUntilValueChanged[T comparable](get func() T) ValueChange[T] {
	if get == nil {
		panic("tickwait: WaitUntilValueChanged(nil)")
	}
	return ValueChange[T]{get: get, last: get()}
}

func (w *ValueChange[T]) IsCompleted() bool {
	v := w.get()
	if v == w.last {
		return false
	}
	w.value = v
	return true
}

// Result returns the changed value.
func (w *ValueChange[T]) Result() T {
	return w.value
}

// Ref adapts a reference-typed [Instruction] (for example, a pointer to
// a user type) so it can be stored in a [Continuation].
type Ref[I Instruction] struct {
	inst I
}

// Poll returns a [Ref] wrapping inst.
func Poll[I Instruction](inst I) Ref[I] {
	return Ref[I]{inst: inst}
}

func (r *Ref[I]) IsCompleted() bool {
	return r.inst.IsCompleted()
}
