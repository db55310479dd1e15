package tickwait

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"fortio.org/safecast"
)

// A Loop is a reference [Host]: a frame loop that advances a [ManualClock]
// and fires every phase, in order, once per frame.
//
// With a fixed timestep, FixedUpdate instead fires as many times as the
// accumulated frame time allows, possibly zero.
//
// A Loop is meant for tests, tools and headless simulations; a real
// application attaches its scheduler to its own update loop.
type Loop struct {
	clock     *ManualClock
	frameTime time.Duration
	fixedStep time.Duration
	fixedAcc  time.Duration

	// Paced makes Run sleep so that frames start frameTime apart in wall
	// clock time.
	Paced bool

	mu     sync.Mutex
	subs   []subscription
	nextID uint64
}

type subscription struct {
	id   uint64
	tick func(Phase) error
}

// NewLoop returns a [Loop] that advances clock by frameTime every frame.
func NewLoop(clock *ManualClock, frameTime time.Duration) *Loop {
	if clock == nil {
		panic("tickwait: NewLoop with nil clock")
	}
	if frameTime < 0 {
		panic("tickwait: negative frame time")
	}
	return &Loop{clock: clock, frameTime: frameTime}
}

// SetFixedTimestep sets the interval FixedUpdate fires at.
// A zero step fires FixedUpdate once per frame.
func (l *Loop) SetFixedTimestep(step time.Duration) {
	if step < 0 {
		panic("tickwait: negative fixed timestep")
	}
	l.fixedStep = step
	l.fixedAcc = 0
}

// Clock returns the clock l advances.
func (l *Loop) Clock() *ManualClock { return l.clock }

// Subscribe implements [Host].
// Subscribers are ticked in the order they subscribed.
func (l *Loop) Subscribe(tick func(Phase) error) (unsubscribe func()) {
	if tick == nil {
		panic("tickwait: Subscribe(nil)")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscription{id, tick})
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.subs = slices.DeleteFunc(l.subs, func(s subscription) bool { return s.id == id })
	}
}

// Frame runs one frame.
// Errors returned by subscribers do not stop the frame; Frame returns them,
// joined and annotated with the frame number.
func (l *Loop) Frame() error {
	l.clock.Advance(l.frameTime)
	frame := l.clock.FrameCount()

	var errs []error
	for _, p := range Phases() {
		n := 1
		if p == FixedUpdate && l.fixedStep > 0 {
			n = l.fixedSteps()
		}
		for range n {
			errs = append(errs, l.fire(p)...)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("frame %d: %w", frame, err)
	}
	return nil
}

func (l *Loop) fixedSteps() int {
	l.fixedAcc += l.frameTime
	steps := l.fixedAcc / l.fixedStep
	l.fixedAcc -= steps * l.fixedStep
	n, err := safecast.Conv[int](int64(steps))
	if err != nil {
		panic(fmt.Sprintf("tickwait: fixed step count: %v", err))
	}
	return n
}

func (l *Loop) fire(p Phase) []error {
	l.mu.Lock()
	subs := slices.Clone(l.subs)
	l.mu.Unlock()

	var errs []error
	for _, s := range subs {
		if err := s.tick(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Run runs frames until ctx is done, a frame fails, or n frames have run.
// If n <= 0, Run does not stop on its own.
func (l *Loop) Run(ctx context.Context, n int) error {
	var pace <-chan time.Time
	if l.Paced && l.frameTime > 0 {
		t := time.NewTicker(l.frameTime)
		defer t.Stop()
		pace = t.C
	}
	for i := 0; n <= 0 || i < n; i++ {
		if i != 0 && pace != nil {
			select {
			case <-pace:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := l.Frame(); err != nil {
			return err
		}
	}
	return nil
}
