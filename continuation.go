package tickwait

import (
	"context"
	"reflect"
	"sync"
)

// Awaiter is the handshake between a suspendable unit of work and whatever
// it waits on.
//
// A caller first asks IsReady.
// If it reports true, the caller reads Result right away and never
// suspends.
// Otherwise the caller suspends and hands a resume callback to OnSuspend;
// the awaiter must invoke that callback exactly once, some time later, after
// which the caller reads Result.
type Awaiter[R any] interface {
	IsReady() bool
	OnSuspend(resume func())
	Result() R
}

// MainThreadResumer is an optional interface an [Awaiter] implements to
// report that it always invokes its resume callback on the main thread
// (the goroutine driving [Scheduler.Tick]).
//
// Awaiters that do not implement it are assumed to resume elsewhere.
type MainThreadResumer interface {
	ResumesOnMainThread() bool
}

// mainThreadRegistrar marks awaiters whose OnSuspend must run on the main
// thread.
type mainThreadRegistrar interface {
	registersOnMainThread()
}

// entry is what tick queues hold.
type entry interface {
	alive() bool
	poll() bool
	fire()
	abandon()
}

const (
	flagPolled = 1 << iota
	flagSuspended
	flagResumed
	flagAbandoned
	flagHasResult
	flagTaken
)

// A Continuation pairs one [Instruction], stored by value, with a slot for
// the callback that resumes whoever awaits it.
//
// A Continuation implements [Awaiter].
// Constructing one does not enqueue it; OnSuspend does.
// A Continuation can be awaited only once.
//
// Apart from IsReady, the methods of a Continuation must be called on the
// main thread.
type Continuation[T any, P InstructionPtr[T]] struct {
	inst    T
	sched   *Scheduler
	phase   Phase
	flag    uint8
	binding binding
	owner   *Coroutine
	resume  func()
}

// NewContinuation returns a [Continuation] that polls inst on s's default
// phase.
func NewContinuation[T any, P InstructionPtr[T]](s *Scheduler, inst T) *Continuation[T, P] {
	return new(Continuation[T, P]).init(s, inst)
}

func (c *Continuation[T, P]) init(s *Scheduler, inst T) *Continuation[T, P] {
	c.inst = inst
	c.sched = s
	c.phase = s.defaultPhase
	return c
}

func (c *Continuation[T, P]) configurable() {
	if c.flag&flagPolled != 0 {
		panic("tickwait: continuation configured after first poll")
	}
}

// OnPhase sets the phase on which c is polled.
// OnPhase panics if c has already been polled.
func (c *Continuation[T, P]) OnPhase(p Phase) {
	c.configurable()
	if !p.valid() {
		panic("tickwait: invalid phase")
	}
	c.phase = p
}

// BindTo binds c to l.
// Once l is no longer alive, c is dropped the next time it would be polled,
// and its awaiter is never resumed.
//
// BindTo replaces any binding set earlier, including one set by
// WithCancellation.
// BindTo panics if c has already been polled.
func (c *Continuation[T, P]) BindTo(l Liveness) {
	c.configurable()
	if l == nil {
		panic("tickwait: BindTo(nil)")
	}
	c.binding = binding{live: l}
}

// WithCancellation binds c to ctx.
// Once ctx is done, c is dropped the next time it would be polled, and its
// awaiter is never resumed.
//
// WithCancellation replaces any binding set earlier, including one set by
// BindTo.
// WithCancellation panics if c has already been polled.
func (c *Continuation[T, P]) WithCancellation(ctx context.Context) {
	c.configurable()
	if ctx == nil {
		panic("tickwait: WithCancellation(nil)")
	}
	c.binding = binding{ctx: ctx}
}

// Phase returns the phase on which c is polled.
func (c *Continuation[T, P]) Phase() Phase {
	return c.phase
}

// IsReady queries the instruction once.
// It never touches the scheduler.
func (c *Continuation[T, P]) IsReady() bool {
	c.flag |= flagPolled
	return c.binding.holds() && P(&c.inst).IsCompleted()
}

// OnSuspend stores resume and enqueues c on its phase.
// OnSuspend panics if c has already been awaited.
func (c *Continuation[T, P]) OnSuspend(resume func()) {
	c.suspend(resume, c)
}

func (c *Continuation[T, P]) suspend(resume func(), e entry) {
	if resume == nil {
		panic("tickwait: OnSuspend(nil)")
	}
	if c.flag&flagSuspended != 0 {
		panic("tickwait: continuation awaited twice")
	}
	c.flag |= flagPolled | flagSuspended
	c.resume = resume
	c.sched.enqueue(c.phase, e)
}

// Result returns the empty result of a plain wait.
func (c *Continuation[T, P]) Result() struct{} {
	return struct{}{}
}

// ResumesOnMainThread reports true: c resumes its awaiter from within Tick.
func (c *Continuation[T, P]) ResumesOnMainThread() bool { return true }

func (c *Continuation[T, P]) registersOnMainThread() {}

// Resumed reports whether c has completed and resumed its awaiter.
func (c *Continuation[T, P]) Resumed() bool {
	return c.flag&flagResumed != 0
}

// Abandoned reports whether c was dropped without resuming its awaiter.
func (c *Continuation[T, P]) Abandoned() bool {
	return c.flag&flagAbandoned != 0
}

func (c *Continuation[T, P]) alive() bool {
	if co := c.owner; co != nil && co.stopRequested.Load() {
		return false
	}
	return c.binding.holds()
}

func (c *Continuation[T, P]) poll() bool {
	return P(&c.inst).IsCompleted()
}

// fire must be the last thing that touches c: resume may recycle it.
func (c *Continuation[T, P]) fire() {
	if c.flag&flagResumed != 0 {
		panic("tickwait: continuation resumed twice")
	}
	c.flag |= flagResumed
	resume := c.resume
	c.resume = nil
	resume()
}

func (c *Continuation[T, P]) abandon() {
	c.flag |= flagAbandoned
	c.resume = nil
}

// A ValueContinuation is a [Continuation] whose instruction produces
// a result.
// The result is captured when the instruction completes and can be taken
// exactly once.
type ValueContinuation[T, R any, P ValueInstructionPtr[T, R]] struct {
	Continuation[T, P]
	result R
}

// NewValueContinuation returns a [ValueContinuation] that polls inst on s's
// default phase.
func NewValueContinuation[R, T any, P ValueInstructionPtr[T, R]](s *Scheduler, inst T) *ValueContinuation[T, R, P] {
	c := new(ValueContinuation[T, R, P])
	c.init(s, inst)
	return c
}

// IsReady is like [Continuation.IsReady], and captures the result on
// completion.
func (c *ValueContinuation[T, R, P]) IsReady() bool {
	if !c.Continuation.IsReady() {
		return false
	}
	c.capture()
	return true
}

// OnSuspend is like [Continuation.OnSuspend].
func (c *ValueContinuation[T, R, P]) OnSuspend(resume func()) {
	c.suspend(resume, c)
}

func (c *ValueContinuation[T, R, P]) poll() bool {
	if !c.Continuation.poll() {
		return false
	}
	c.capture()
	return true
}

func (c *ValueContinuation[T, R, P]) capture() {
	c.result = P(&c.inst).Result()
	c.flag |= flagHasResult
}

// Result returns the captured result.
// Result panics if c has not completed, or if the result has already been
// taken.
func (c *ValueContinuation[T, R, P]) Result() R {
	switch {
	case c.flag&flagHasResult == 0:
		panic("tickwait: result read before completion")
	case c.flag&flagTaken != 0:
		panic("tickwait: result taken twice")
	}
	c.flag |= flagTaken
	v := c.result
	var zero R
	c.result = zero
	return v
}

// WaitOption configures the [Continuation] built by [Wait] or [WaitValue].
// Options apply in order; a later binding replaces an earlier one.
type WaitOption struct {
	kind  uint8
	phase Phase
	live  Liveness
	ctx   context.Context
}

const (
	optPhase = iota + 1
	optLiveness
	optContext
)

// InPhase polls on p instead of the scheduler's default phase.
func InPhase(p Phase) WaitOption {
	return WaitOption{kind: optPhase, phase: p}
}

// BoundTo binds the wait to l. See [Continuation.BindTo].
func BoundTo(l Liveness) WaitOption {
	return WaitOption{kind: optLiveness, live: l}
}

// CancelledBy binds the wait to ctx. See [Continuation.WithCancellation].
func CancelledBy(ctx context.Context) WaitOption {
	return WaitOption{kind: optContext, ctx: ctx}
}

func (c *Continuation[T, P]) configure(opts []WaitOption) {
	for _, o := range opts {
		switch o.kind {
		case optPhase:
			c.OnPhase(o.phase)
		case optLiveness:
			c.BindTo(o.live)
		case optContext:
			c.WithCancellation(o.ctx)
		default:
			panic("tickwait: zero WaitOption")
		}
	}
}

var pools sync.Map // map[reflect.Type]*sync.Pool

func poolFor[N any]() *sync.Pool {
	t := reflect.TypeFor[N]()
	if p, ok := pools.Load(t); ok {
		return p.(*sync.Pool)
	}
	p, _ := pools.LoadOrStore(t, &sync.Pool{New: func() any { return new(N) }})
	return p.(*sync.Pool)
}

func acquire[N any]() *N {
	return poolFor[N]().Get().(*N)
}

func release[N any](n *N) {
	var zero N
	*n = zero
	poolFor[N]().Put(n)
}
