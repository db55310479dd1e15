package tickwait

import (
	"errors"
	"fmt"
	"iter"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// A Task is the body of a [Coroutine].
type Task func(co *Coroutine)

const (
	stateRunning = iota
	stateSuspended
	stateEnded
)

// stopSignal unwinds a stopped coroutine.
// Tasks must not recover it.
type stopSignal struct{}

type suspender interface {
	OnSuspend(resume func())
}

// A Coroutine is an execution of a [Task] that can suspend itself on an
// [Awaiter] and be resumed later, possibly on another goroutine.
//
// A coroutine is created by [Scheduler.Spawn], which runs its task right
// away, on the main thread, until the task first suspends.
// Whoever resumes a coroutine runs its task until the next suspension;
// resumer and task never run at the same time.
// When resumed by a continuation, a coroutine runs on the main thread,
// inside [Scheduler.Tick].
//
// The methods of a Coroutine that suspend (Await and friends) must only be
// called by its own task.
type Coroutine struct {
	id            uuid.UUID
	sched         *Scheduler
	state         atomic.Uint32
	stopRequested atomic.Bool
	stopped       bool
	onMain        bool
	next          func() (struct{}, bool)
	stop          func()
	yield         func(struct{}) bool
	awaiter       suspender
	resumeMain    func()
	resumeElse    func()
	onEnd         func(co *Coroutine)
	perr          *PanicError
	done          chan struct{}
}

func newCoroutine(s *Scheduler, t Task, onEnd func(co *Coroutine)) *Coroutine {
	co := &Coroutine{
		id:    uuid.New(),
		sched: s,
		onEnd: onEnd,
		done:  make(chan struct{}),
	}
	co.resumeMain = func() { co.resume(true) }
	co.resumeElse = func() { co.resume(false) }
	co.next, co.stop = iter.Pull(co.body(t))
	return co
}

// Spawn creates a [Coroutine] to run t and runs it immediately, on the
// calling goroutine, until t first suspends or returns.
// If t panics before suspending, Spawn panics too.
//
// Spawn must be called on the main thread.
// On a closed scheduler, Spawn returns a coroutine that has already been
// stopped, without running t.
func (s *Scheduler) Spawn(t Task) *Coroutine {
	return s.spawn(t, nil)
}

func (s *Scheduler) spawn(t Task, onEnd func(co *Coroutine)) *Coroutine {
	if t == nil {
		panic("tickwait: Spawn(nil)")
	}
	co := newCoroutine(s, t, onEnd)
	if s.closed.Load() {
		co.stopRequested.Store(true)
		co.stopped = true
		co.finish()
		return co
	}
	s.track(co)
	co.state.Store(stateRunning)
	co.onMain = true
	co.step()
	return co
}

func (co *Coroutine) body(t Task) iter.Seq[struct{}] {
	return func(yield func(struct{}) bool) {
		co.yield = yield
		defer func() {
			if v := recover(); v != nil {
				if _, ok := v.(stopSignal); ok {
					co.stopped = true
					return
				}
				co.perr = &PanicError{Value: v, Stack: debug.Stack()}
			}
		}()
		t(co)
	}
}

// suspend parks the task until a resumes it.
func (co *Coroutine) suspend(a suspender) {
	if co.state.Load() != stateRunning {
		panic("tickwait: coroutine suspended from outside its task")
	}
	if co.stopRequested.Load() {
		panic(stopSignal{})
	}
	co.awaiter = a
	if !co.yield(struct{}{}) || co.stopRequested.Load() {
		panic(stopSignal{})
	}
}

// step runs the task until it suspends or ends, then hands the resume
// callback to whatever it suspended on.
func (co *Coroutine) step() {
	if _, ok := co.next(); !ok {
		co.finish()
		return
	}

	a := co.awaiter
	co.awaiter = nil

	resume := co.resumeElse
	if r, ok := a.(MainThreadResumer); ok && r.ResumesOnMainThread() {
		resume = co.resumeMain
	}
	_, marshal := a.(mainThreadRegistrar)
	marshal = marshal && !co.onMain

	co.state.Store(stateSuspended)

	if co.stopRequested.Load() && co.state.CompareAndSwap(stateSuspended, stateRunning) {
		co.step()
		return
	}

	// From here on, co may already be running elsewhere; only its
	// immutable fields may be read.

	if marshal {
		s := co.sched
		if err := s.Post(func() { a.OnSuspend(resume) }); err != nil {
			s.logger.WithError(err).Debug("continuation not registered")
		}
		return
	}

	a.OnSuspend(resume)
}

func (co *Coroutine) resume(onMain bool) {
	if !co.state.CompareAndSwap(stateSuspended, stateRunning) {
		if co.stopRequested.Load() {
			return
		}
		panic("tickwait: coroutine resumed while not suspended")
	}
	co.onMain = onMain
	co.step()
}

func (co *Coroutine) halt(onMain bool) {
	co.stopRequested.Store(true)
	if co.state.CompareAndSwap(stateSuspended, stateRunning) {
		co.onMain = onMain
		co.step()
	}
}

func (co *Coroutine) finish() {
	co.stop()
	co.state.Store(stateEnded)
	co.sched.forget(co)
	close(co.done)
	if co.onEnd != nil {
		co.onEnd(co)
	}
	if pe := co.perr; pe != nil {
		if co.onMain {
			panic(pe)
		}
		pe.background = true
		co.logger().WithError(pe).Error("coroutine panicked off the main thread")
	}
}

func (co *Coroutine) logger() *logrus.Entry {
	return co.sched.logger.WithField("coroutine", co.id.String())
}

// Stop requests co to stop.
//
// If co is suspended, Stop resumes it on the calling goroutine: its task
// unwinds from the point of suspension, running deferred calls, and co
// ends.
// Otherwise co unwinds the next time its task tries to suspend.
// Whatever co was waiting on is then dropped.
//
// Stop is safe to call more than once, and from within co's own task.
func (co *Coroutine) Stop() {
	co.halt(false)
}

// ID returns the unique identifier of co, as used in log entries.
func (co *Coroutine) ID() uuid.UUID { return co.id }

// Scheduler returns the scheduler that spawned co.
func (co *Coroutine) Scheduler() *Scheduler { return co.sched }

// Done returns a channel that is closed when co ends.
func (co *Coroutine) Done() <-chan struct{} { return co.done }

// Ended reports whether co has ended.
func (co *Coroutine) Ended() bool {
	return co.state.Load() == stateEnded
}

// Stopped reports whether co ended because it was stopped.
// Stopped returns false while co has not ended.
func (co *Coroutine) Stopped() bool {
	select {
	case <-co.done:
		return co.stopped
	default:
		return false
	}
}

// Err returns why co ended abnormally: [ErrStopped] if it was stopped, or
// an error wrapping [ErrPanicked] and the [*PanicError] if it panicked.
// Err returns nil while co has not ended, or if its task returned.
func (co *Coroutine) Err() error {
	select {
	case <-co.done:
	default:
		return nil
	}
	switch {
	case co.perr != nil:
		return fmt.Errorf("%w: %w", ErrPanicked, co.perr)
	case co.stopped:
		return ErrStopped
	}
	return nil
}

// OnMainThread reports whether co is currently running on the main thread.
// It must only be called by co's own task.
func (co *Coroutine) OnMainThread() bool {
	return co.onMain
}

// Await suspends co until a is ready, and returns its result.
// If a is ready already, Await returns without suspending.
//
// When co is off the main thread and a must register on the main thread
// (as a [Continuation] does), the ready check is left to the scheduler and
// co always suspends.
func Await[R any](co *Coroutine, a Awaiter[R]) R {
	if _, ok := a.(mainThreadRegistrar); (!ok || co.onMain) && a.IsReady() {
		return a.Result()
	}
	co.suspend(a)
	return a.Result()
}

// Wait suspends co until inst completes.
//
// The [Continuation] wrapping inst comes from a pool and goes back to it
// once co resumes, so waiting in a loop does not allocate continuations.
func Wait[T any, P InstructionPtr[T]](co *Coroutine, inst T, opts ...WaitOption) {
	c := acquire[Continuation[T, P]]()
	c.init(co.sched, inst)
	c.owner = co
	c.configure(opts)
	Await[struct{}](co, c)
	release(c)
}

// WaitValue suspends co until inst completes, and returns its result.
// See [Wait].
func WaitValue[R, T any, P ValueInstructionPtr[T, R]](co *Coroutine, inst T, opts ...WaitOption) R {
	c := acquire[ValueContinuation[T, R, P]]()
	c.init(co.sched, inst)
	c.owner = co
	c.configure(opts)
	v := Await[R](co, c)
	release(c)
	return v
}

// Yield suspends co until the next occurrence of its phase.
func (co *Coroutine) Yield(opts ...WaitOption) {
	Wait(co, Yield(), opts...)
}

// NextFrame suspends co until the next frame.
func (co *Coroutine) NextFrame(opts ...WaitOption) {
	Wait(co, NextFrame(co.sched.clock), opts...)
}

// DelayFrames suspends co for n frames.
func (co *Coroutine) DelayFrames(n int, opts ...WaitOption) {
	Wait(co, WaitFrames(co.sched.clock, n), opts...)
}

// Delay suspends co for d of scaled time.
func (co *Coroutine) Delay(d time.Duration, opts ...WaitOption) {
	Wait(co, WaitSeconds(co.sched.clock, d), opts...)
}

// DelayUnscaled suspends co for d of unscaled time.
func (co *Coroutine) DelayUnscaled(d time.Duration, opts ...WaitOption) {
	Wait(co, WaitSecondsUnscaled(co.sched.clock, d), opts...)
}

// DelayRealtime suspends co for d of wall-clock time.
func (co *Coroutine) DelayRealtime(d time.Duration, opts ...WaitOption) {
	Wait(co, WaitSecondsRealtime(co.sched.clock, d), opts...)
}

// WaitUntil suspends co until pred returns true.
func (co *Coroutine) WaitUntil(pred func() bool, opts ...WaitOption) {
	Wait(co, WaitUntil(pred), opts...)
}

// WaitWhile suspends co until pred returns false.
func (co *Coroutine) WaitWhile(pred func() bool, opts ...WaitOption) {
	Wait(co, WaitWhile(pred), opts...)
}

// SpawnFunc is like [Scheduler.Spawn] but for a task that returns a value.
// The returned [Future] resolves with that value, or is rejected with
// [Coroutine.Err] if the task does not return.
func SpawnFunc[R any](s *Scheduler, f func(co *Coroutine) R) *Future[R] {
	if f == nil {
		panic("tickwait: SpawnFunc(nil)")
	}
	fut := NewFuture[R]()
	s.spawn(
		func(co *Coroutine) { fut.Resolve(f(co)) },
		func(co *Coroutine) {
			switch {
			case co.perr != nil:
				fut.Reject(fmt.Errorf("%w: %w", ErrPanicked, co.perr))
			case co.stopped:
				fut.Reject(ErrStopped)
			}
		},
	)
	return fut
}

// WhenAll spawns a coroutine for each of tasks and suspends co until all
// of them end.
// It returns the errors of those that did not return normally, joined.
//
// If co is off the main thread, WhenAll switches to it first.
func WhenAll(co *Coroutine, tasks ...Task) error {
	co.SwitchToMainThread()

	var wg WaitGroup
	children := make([]*Coroutine, 0, len(tasks))
	wg.Add(len(tasks))
	for _, t := range tasks {
		children = append(children, co.sched.spawn(t, func(*Coroutine) { wg.Done() }))
	}

	Wait(co, wg.Wait())

	var errs []error
	for _, child := range children {
		if err := child.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
