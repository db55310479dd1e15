package tickwait

import (
	"context"
	"sync"
)

// A Future is a value that becomes available later, possibly on another
// goroutine.
//
// A Future implements [Awaiter].
// Unlike a [Continuation], it can be awaited any number of times; every
// waiter is resumed, in the order it registered, on the goroutine that
// settles the Future.
//
// A Future is safe for concurrent use.
type Future[R any] struct {
	mu      sync.Mutex
	settled bool
	value   R
	err     error
	waiters []func()
	done    chan struct{}
}

// NewFuture returns a pending [Future].
func NewFuture[R any]() *Future[R] {
	return &Future[R]{done: make(chan struct{})}
}

// Resolve settles f with v.
// Resolve reports whether it settled f; it does nothing if f has already
// been settled.
func (f *Future[R]) Resolve(v R) bool {
	return f.settle(v, nil)
}

// Reject settles f with err.
// Reject reports whether it settled f; it does nothing if f has already
// been settled.
func (f *Future[R]) Reject(err error) bool {
	if err == nil {
		panic("tickwait: Reject(nil)")
	}
	var zero R
	return f.settle(zero, err)
}

func (f *Future[R]) settle(v R, err error) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.value, f.err = v, err
	waiters := f.waiters
	f.waiters = nil
	close(f.done)
	f.mu.Unlock()

	for _, resume := range waiters {
		resume()
	}
	return true
}

// IsReady reports whether f has been settled.
func (f *Future[R]) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// OnSuspend arranges for resume to be called once f is settled.
// If f is settled already, OnSuspend calls resume right away.
func (f *Future[R]) OnSuspend(resume func()) {
	if resume == nil {
		panic("tickwait: OnSuspend(nil)")
	}
	f.mu.Lock()
	if !f.settled {
		f.waiters = append(f.waiters, resume)
		f.mu.Unlock()
		return
	}
	f.mu.Unlock()
	resume()
}

// Result returns the value f resolved with.
// Result returns the zero value if f was rejected, or is still pending.
func (f *Future[R]) Result() R {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Err returns the error f was rejected with, if any.
func (f *Future[R]) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Done returns a channel that is closed once f is settled.
func (f *Future[R]) Done() <-chan struct{} {
	return f.done
}

// Get blocks until f is settled or ctx is done.
// Get must not be called on the main thread while f depends on ticks to
// settle.
func (f *Future[R]) Get(ctx context.Context) (R, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.value, f.err
	case <-ctx.Done():
		var zero R
		return zero, ctx.Err()
	}
}

// AwaitFuture suspends co until f is settled, and returns its outcome.
func AwaitFuture[R any](co *Coroutine, f *Future[R]) (R, error) {
	v := Await[R](co, f)
	return v, f.Err()
}
