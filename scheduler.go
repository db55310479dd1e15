package tickwait

import (
	"errors"
	"runtime/debug"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// A Scheduler owns one FIFO tick queue per [Phase] and polls them when its
// host ticks.
//
// The goroutine that calls Tick is the main thread.
// Queues are only ever touched by the main thread; other goroutines hand
// work to it through Post.
//
// On each Tick, the Scheduler polls every continuation that was queued for
// that phase before the Tick began, in the order they were queued.
// A continuation whose binding no longer holds is dropped.
// A completed continuation is removed and its awaiter resumed, right there,
// on the main thread.
// The rest stay queued, in order, for the next occurrence of the phase.
// Continuations queued during a Tick are first polled on the next
// occurrence of the phase.
//
// A Scheduler has an explicit lifetime: create one with [NewScheduler],
// optionally attach it to a [Host], and Close it when done.
type Scheduler struct {
	id           uuid.UUID
	defaultPhase Phase
	clock        Clock
	executor     Executor
	logger       *logrus.Entry

	queues  [numPhases]queue[entry]
	ticking atomic.Bool
	closed  atomic.Bool

	mu    sync.Mutex
	inbox []func()
	spare []func()

	unsubscribe func()

	comu       sync.Mutex
	coroutines map[*Coroutine]struct{}
}

// An Option configures a [Scheduler].
type Option func(s *Scheduler)

// WithExecutor sets the [Executor] that runs work switched to the
// background.
// The default is [GoExecutor].
func WithExecutor(e Executor) Option {
	return func(s *Scheduler) {
		if e == nil {
			panic("tickwait: WithExecutor(nil)")
		}
		s.executor = e
	}
}

// WithDefaultPhase sets the phase new continuations are polled on.
// The default is [DefaultPhase].
func WithDefaultPhase(p Phase) Option {
	return func(s *Scheduler) {
		if !p.valid() {
			panic("tickwait: invalid phase")
		}
		s.defaultPhase = p
	}
}

// WithLogger sets the logger of the [Scheduler].
// The default is the package logger (see [SetLogger]).
func WithLogger(l *logrus.Logger) Option {
	return func(s *Scheduler) {
		if l == nil {
			panic("tickwait: WithLogger(nil)")
		}
		s.logger = l.WithField("scheduler", s.id.String())
	}
}

// NewScheduler creates a [Scheduler] whose built-in instructions measure
// frames and time with clock.
func NewScheduler(clock Clock, opts ...Option) *Scheduler {
	if clock == nil {
		panic("tickwait: NewScheduler with nil Clock")
	}
	s := &Scheduler{
		id:           uuid.New(),
		defaultPhase: DefaultPhase,
		clock:        clock,
		executor:     GoExecutor{},
		coroutines:   make(map[*Coroutine]struct{}),
	}
	s.logger = log.WithField("scheduler", s.id.String())
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the unique identifier of s, as used in its log entries.
func (s *Scheduler) ID() uuid.UUID { return s.id }

// Clock returns the clock of s.
func (s *Scheduler) Clock() Clock { return s.clock }

// Executor returns the executor of s.
func (s *Scheduler) Executor() Executor { return s.executor }

// DefaultPhase returns the phase new continuations are polled on.
func (s *Scheduler) DefaultPhase() Phase { return s.defaultPhase }

// Frame returns the current frame count of the clock of s.
func (s *Scheduler) Frame() uint64 { return s.clock.FrameCount() }

// Closed reports whether s has been closed.
func (s *Scheduler) Closed() bool { return s.closed.Load() }

// Tick polls the queue of phase p.
// For the immediate phase, Tick first runs the work posted through Post
// before this Tick began, in the order it was posted.
// Continuations those posts queue are first polled on the next Tick of the
// immediate phase.
//
// If an instruction, a post, or resumed code panics, Tick stops polling p
// for this tick and returns a [*PanicError].
// The entry that panicked is dropped; entries not yet polled stay queued in
// their original order.
//
// Tick must be called from a single goroutine, the main thread.
// Tick returns [ErrReentrantTick] if called while another Tick is in
// progress, and [ErrClosed] after Close.
// Tick panics if p is not a valid phase.
func (s *Scheduler) Tick(p Phase) error {
	if !p.valid() {
		panic("tickwait: invalid phase")
	}
	if s.closed.Load() {
		return ErrClosed
	}
	if !s.ticking.CompareAndSwap(false, true) {
		return ErrReentrantTick
	}
	defer s.ticking.Store(false)

	// Snapshot before running posts: what they enqueue waits for the next
	// occurrence of p.
	q := &s.queues[p]
	batch := q.detach()
	if p == ImmediatePhase {
		if err := s.drainInbox(); err != nil {
			q.reattach(batch)
			return err
		}
	}
	return s.pass(p, batch)
}

// pass polls batch, the entries detached from the queue of p.
func (s *Scheduler) pass(p Phase, batch []entry) (err error) {
	q := &s.queues[p]
	if len(batch) == 0 {
		q.reattach(batch)
		return nil
	}

	kept := batch[:0]
	i := 0
	fired := false

	defer func() {
		if i < len(batch) {
			v := recover()
			if v == nil {
				panic("tickwait: runtime.Goexit called during a tick")
			}
			err = newPanicError(p, v, debug.Stack())
			if !fired {
				batch[i].abandon()
			}
			s.logger.WithField("phase", p).WithError(err).Warn("dropped continuation that panicked")
			kept = append(kept, batch[i+1:]...)
		}
		clear(batch[len(kept):])
		q.reattach(kept)
	}()

	verbose := s.logger.Logger.IsLevelEnabled(logrus.DebugLevel)

	for ; i < len(batch); i++ {
		e := batch[i]
		fired = false
		switch {
		case !e.alive():
			e.abandon()
			if verbose {
				s.logger.WithField("phase", p).Debug("abandoned continuation")
			}
		case e.poll():
			fired = true
			e.fire()
		default:
			kept = append(kept, e)
		}
	}

	return nil
}

// enqueue never blocks.
// On a closed scheduler, e is abandoned immediately.
func (s *Scheduler) enqueue(p Phase, e entry) {
	if s.closed.Load() {
		e.abandon()
		return
	}
	s.queues[p].Push(e)
}

// Pending returns the number of continuations queued for phase p.
// Continuations being polled by an ongoing Tick of p are not counted.
func (s *Scheduler) Pending(p Phase) int {
	if !p.valid() {
		panic("tickwait: invalid phase")
	}
	return s.queues[p].Len()
}

// Post hands f to the main thread.
// f runs at the start of the next Tick of the immediate phase, before any
// continuation of that phase is polled.
// Posts run in the order they were posted.
//
// Post is safe for concurrent use.
// Post returns [ErrClosed] if s has been closed; f is then never run.
func (s *Scheduler) Post(f func()) error {
	if f == nil {
		panic("tickwait: Post(nil)")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrClosed
	}
	s.inbox = append(s.inbox, f)
	return nil
}

func (s *Scheduler) drainInbox() error {
	s.mu.Lock()
	posts := s.inbox
	s.inbox, s.spare = s.spare[:0], nil
	s.mu.Unlock()

	for i, f := range posts {
		if err := try(ImmediatePhase, f); err != nil {
			rest := posts[i+1:]
			s.mu.Lock()
			s.inbox = slices.Concat(rest, s.inbox)
			s.mu.Unlock()
			clear(posts)
			s.logger.WithError(err).WithField("requeued", len(rest)).Warn("post panicked")
			return err
		}
	}

	clear(posts)
	s.mu.Lock()
	if s.spare == nil {
		s.spare = posts[:0]
	}
	s.mu.Unlock()
	return nil
}

// Host is the interface of a per-frame update loop a [Scheduler] attaches
// to.
//
// Subscribe registers tick to be called once per phase, every frame, on the
// main thread, and returns a function that undoes the registration.
// An error returned by tick is the host's to handle.
type Host interface {
	Subscribe(tick func(Phase) error) (unsubscribe func())
}

// Attach subscribes s to h, so that h drives Tick.
// Attach returns [ErrAlreadyAttached] if s is attached already, and
// [ErrClosed] if s has been closed.
func (s *Scheduler) Attach(h Host) error {
	if h == nil {
		panic("tickwait: Attach(nil)")
	}
	if s.closed.Load() {
		return ErrClosed
	}
	if s.unsubscribe != nil {
		return ErrAlreadyAttached
	}
	s.unsubscribe = h.Subscribe(s.Tick)
	s.logger.Info("attached to host")
	return nil
}

// Detach undoes Attach.
// Detach returns [ErrNotAttached] if s is not attached.
func (s *Scheduler) Detach() error {
	if s.unsubscribe == nil {
		return ErrNotAttached
	}
	s.unsubscribe()
	s.unsubscribe = nil
	s.logger.Info("detached from host")
	return nil
}

// Close tears s down.
// It detaches s from its host, drops every queued continuation and every
// pending post, and stops every coroutine spawned by s that has not ended.
//
// Close must be called on the main thread, outside of Tick; otherwise it
// returns [ErrReentrantTick].
// Close returns the errors of coroutines that panicked while stopping.
// Calling Close more than once is a no-op.
func (s *Scheduler) Close() error {
	if !s.ticking.CompareAndSwap(false, true) {
		return ErrReentrantTick
	}
	defer s.ticking.Store(false)

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return nil
	}
	s.closed.Store(true)
	posts := len(s.inbox)
	s.inbox, s.spare = nil, nil
	s.mu.Unlock()

	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}

	abandoned := 0
	for p := range s.queues {
		s.queues[p].drain(func(e entry) {
			e.abandon()
			abandoned++
		})
	}

	s.comu.Lock()
	running := make([]*Coroutine, 0, len(s.coroutines))
	for co := range s.coroutines {
		running = append(running, co)
	}
	s.comu.Unlock()

	var errs []error
	for _, co := range running {
		if err := try(ImmediatePhase, func() { co.halt(true) }); err != nil {
			errs = append(errs, err)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"abandoned": abandoned,
		"posts":     posts,
		"stopped":   len(running),
	}).Info("scheduler closed")

	return errors.Join(errs...)
}

// Coroutines returns the number of coroutines spawned by s that have not
// ended.
func (s *Scheduler) Coroutines() int {
	s.comu.Lock()
	defer s.comu.Unlock()
	return len(s.coroutines)
}

func (s *Scheduler) track(co *Coroutine) {
	s.comu.Lock()
	s.coroutines[co] = struct{}{}
	s.comu.Unlock()
}

func (s *Scheduler) forget(co *Coroutine) {
	s.comu.Lock()
	delete(s.coroutines, co)
	s.comu.Unlock()
}
