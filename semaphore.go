package tickwait

// Semaphore provides a way to bound access to a resource shared by
// coroutines.
// The callers can request access with a given weight.
//
// Waiters are granted in the order they are polled, so a heavy waiter can be
// overtaken by lighter ones queued behind it.
//
// A Semaphore must only be used on the main thread.
type Semaphore struct {
	size int64
	cur  int64
}

// NewSemaphore creates a new weighted semaphore with the given maximum
// combined weight.
func NewSemaphore(n int64) *Semaphore {
	if n < 0 {
		panic("tickwait(Semaphore): negative size")
	}
	return &Semaphore{size: n}
}

// TryAcquire acquires a weight of n if it is available, and reports whether
// it did.
func (s *Semaphore) TryAcquire(n int64) bool {
	if n < 0 {
		panic("tickwait(Semaphore): negative weight")
	}
	if s.size-s.cur < n {
		return false
	}
	s.cur += n
	return true
}

// Acquire returns a [SemaphoreWait] that completes once a weight of n has
// been acquired from s.
// A weight larger than the size of s is never acquired.
func (s *Semaphore) Acquire(n int64) SemaphoreWait {
	if n < 0 {
		panic("tickwait(Semaphore): negative weight")
	}
	return SemaphoreWait{s: s, n: n}
}

// Release releases the semaphore with a weight of n.
func (s *Semaphore) Release(n int64) {
	if n < 0 {
		panic("tickwait(Semaphore): negative weight")
	}
	s.cur -= n
	if s.cur < 0 {
		panic("tickwait(Semaphore): released more than held")
	}
}

// SemaphoreWait waits to acquire from a [Semaphore].
type SemaphoreWait struct {
	s        *Semaphore
	n        int64
	acquired bool
}

func (w *SemaphoreWait) IsCompleted() bool {
	if !w.acquired {
		w.acquired = w.s.TryAcquire(w.n)
	}
	return w.acquired
}
