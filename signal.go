package tickwait

import "sync/atomic"

// A Signal is a broadcast event.
//
// Calling the Notify method of a Signal completes every [SignalWait] created
// from it before the call.
//
// A Signal is safe for concurrent use.
type Signal struct {
	gen atomic.Uint64
}

// Notify completes every [SignalWait] created from s so far.
func (s *Signal) Notify() {
	s.gen.Add(1)
}

// Wait returns a [SignalWait] that completes the next time s is notified.
func (s *Signal) Wait() SignalWait {
	return SignalWait{s: s, gen: s.gen.Load()}
}

// SignalWait waits for a [Signal] to be notified.
type SignalWait struct {
	s   *Signal
	gen uint64
}

func (w *SignalWait) IsCompleted() bool {
	return w.s.gen.Load() != w.gen
}
