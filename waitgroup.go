package tickwait

import "sync/atomic"

// A WaitGroup waits for a collection of jobs to finish.
//
// A WaitGroup is safe for concurrent use.
type WaitGroup struct {
	n atomic.Int64
}

// Add adds delta, which may be negative, to the [WaitGroup] counter.
// If the [WaitGroup] counter is negative, Add panics.
func (wg *WaitGroup) Add(delta int) {
	if wg.n.Add(int64(delta)) < 0 {
		panic("tickwait(WaitGroup): negative counter")
	}
}

// Done decrements the [WaitGroup] counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Count returns the [WaitGroup] counter.
func (wg *WaitGroup) Count() int {
	return int(wg.n.Load())
}

// Wait returns a [WaitGroupWait] that completes when the [WaitGroup] counter
// is zero.
func (wg *WaitGroup) Wait() WaitGroupWait {
	return WaitGroupWait{wg: wg}
}

// WaitGroupWait waits for a [WaitGroup] counter to become zero.
type WaitGroupWait struct {
	wg *WaitGroup
}

func (w *WaitGroupWait) IsCompleted() bool {
	return w.wg.n.Load() == 0
}
