package tickwait

import (
	"context"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
)

// An Executor runs functions somewhere other than the main thread.
//
// Submit must eventually call f exactly once.
// Submit must not block, and must be safe for concurrent use.
type Executor interface {
	Submit(f func())
}

// ExecutorFunc adapts an ordinary function to the [Executor] interface.
type ExecutorFunc func(f func())

func (e ExecutorFunc) Submit(f func()) { e(f) }

// GoExecutor runs each function on a new goroutine.
type GoExecutor struct{}

func (GoExecutor) Submit(f func()) { go f() }

// A Pool is an [Executor] with a fixed number of worker goroutines sharing
// a FIFO job queue.
//
// A job that panics does not take its worker down; the first panic of each
// worker is returned by Close as a [*PanicError].
// Once the Pool is closed, or its context is done, workers finish the jobs
// already queued and exit; later jobs run on goroutines of their own.
type Pool struct {
	mu     sync.Mutex
	cond   sync.Cond
	jobs   queue[func()]
	closed bool
	g      *errgroup.Group
	stop   func() bool
}

// NewPool starts a [Pool] of n workers.
// NewPool panics if n < 1.
func NewPool(ctx context.Context, n int) *Pool {
	if n < 1 {
		panic("tickwait: pool needs at least one worker")
	}
	g, ctx := errgroup.WithContext(ctx)
	p := &Pool{g: g}
	p.cond.L = &p.mu
	p.stop = context.AfterFunc(ctx, p.shutdown)
	for range n {
		g.Go(p.work)
	}
	return p
}

func (p *Pool) Submit(f func()) {
	if f == nil {
		panic("tickwait: Submit(nil)")
	}
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		log.Debug("pool closed; job runs on its own goroutine")
		go f()
		return
	}
	p.jobs.Push(f)
	p.cond.Signal()
	p.mu.Unlock()
}

// Close stops accepting jobs, waits for queued jobs to finish, and returns
// the panics they raised, if any.
func (p *Pool) Close() error {
	p.stop()
	p.shutdown()
	return p.g.Wait()
}

func (p *Pool) shutdown() {
	p.mu.Lock()
	p.closed = true
	p.cond.Broadcast()
	p.mu.Unlock()
}

func (p *Pool) take() (f func(), ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.jobs.Empty() && !p.closed {
		p.cond.Wait()
	}
	if p.jobs.Empty() {
		return nil, false
	}
	return p.jobs.Pop(), true
}

func (p *Pool) work() error {
	var first error
	for {
		f, ok := p.take()
		if !ok {
			return first
		}
		if err := run(f); err != nil {
			log.WithError(err).Error("pool job panicked")
			if first == nil {
				first = err
			}
		}
	}
}

func run(f func()) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v, Stack: debug.Stack(), background: true}
		}
	}()
	f()
	return nil
}
