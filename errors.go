package tickwait

import "errors"

var (
	// ErrClosed is returned by operations on a closed [Scheduler].
	ErrClosed = errors.New("tickwait: scheduler closed")

	// ErrReentrantTick is returned when [Scheduler.Tick] or
	// [Scheduler.Close] is called while a tick is in progress.
	ErrReentrantTick = errors.New("tickwait: tick already in progress")

	// ErrNotAttached is returned by [Scheduler.Detach] when no host is
	// attached.
	ErrNotAttached = errors.New("tickwait: scheduler not attached to a host")

	// ErrAlreadyAttached is returned by [Scheduler.Attach] when a host is
	// already attached.
	ErrAlreadyAttached = errors.New("tickwait: scheduler already attached to a host")

	// ErrStopped rejects the [Future] of a coroutine that was stopped before
	// it returned.
	ErrStopped = errors.New("tickwait: coroutine stopped")

	// ErrPanicked rejects the [Future] of a coroutine that panicked.
	// The rejection also wraps the [*PanicError].
	ErrPanicked = errors.New("tickwait: coroutine panicked")
)
