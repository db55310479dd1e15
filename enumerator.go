package tickwait

import (
	"fmt"
	"iter"
)

// Enumerator is a legacy, iterator-style coroutine.
//
// Each MoveNext runs it to its next yield and reports whether it yielded;
// Current returns what it yielded.
// A yielded nil means "wait one poll", a yielded [Instruction] means "wait
// until it completes", and a yielded Enumerator means "run it to the end
// first".
type Enumerator interface {
	MoveNext() bool
	Current() any
}

// EnumeratorWait is an [Instruction] that drives an [Enumerator].
// See [FromEnumerator].
type EnumeratorWait struct {
	root    Enumerator
	nested  []Enumerator
	pending Instruction
	ended   bool
}

// FromEnumerator returns an [EnumeratorWait] that advances e by one step each
// time it is queried, and completes once e is exhausted.
//
// A yielded instruction is first queried on the next query, and e does not
// advance until it completes.
// A yielded Enumerator starts right away and runs to its end before e
// resumes; tracking it allocates.
// Yielding anything else panics.
func FromEnumerator(e Enumerator) EnumeratorWait {
	if e == nil {
		panic("tickwait: FromEnumerator(nil)")
	}
	return EnumeratorWait{root: e}
}

func (w *EnumeratorWait) top() Enumerator {
	if n := len(w.nested); n != 0 {
		return w.nested[n-1]
	}
	return w.root
}

func (w *EnumeratorWait) IsCompleted() bool {
	if w.ended {
		return true
	}
	if w.pending != nil {
		if !w.pending.IsCompleted() {
			return false
		}
		w.pending = nil
	}
	for {
		e := w.top()
		if !e.MoveNext() {
			if n := len(w.nested); n != 0 {
				w.nested[n-1] = nil
				w.nested = w.nested[:n-1]
				continue
			}
			w.ended = true
			return true
		}
		switch v := e.Current().(type) {
		case nil:
			return false
		case Instruction:
			w.pending = v
			return false
		case Enumerator:
			w.nested = append(w.nested, v)
		default:
			panic(fmt.Sprintf("tickwait: enumerator yielded unsupported %T", v))
		}
	}
}

// A SeqEnumerator is an [Enumerator] over an [iter.Seq].
// It lets a legacy enumerator be written as a range-over-func iterator.
type SeqEnumerator struct {
	next    func() (any, bool)
	stop    func()
	current any
}

// Enumerate returns a [SeqEnumerator] over seq.
// If the SeqEnumerator is abandoned before it is exhausted, call Stop to
// release seq.
func Enumerate(seq iter.Seq[any]) *SeqEnumerator {
	next, stop := iter.Pull(seq)
	return &SeqEnumerator{next: next, stop: stop}
}

func (e *SeqEnumerator) MoveNext() bool {
	v, ok := e.next()
	e.current = v
	if !ok {
		e.stop()
	}
	return ok
}

func (e *SeqEnumerator) Current() any { return e.current }

// Stop ends e early.
func (e *SeqEnumerator) Stop() {
	e.current = nil
	e.stop()
}

// An AwaiterEnumerator is a legacy wait object over an [Awaiter].
// See [ToEnumerator].
type AwaiterEnumerator[R any] struct {
	a      Awaiter[R]
	ready  bool
	result R
}

// ToEnumerator returns an [AwaiterEnumerator] whose MoveNext reports true
// while a is not ready.
// Once a is ready, MoveNext reports false and Current returns a's result.
//
// Whoever drives the returned Enumerator polls a through IsReady; it never
// calls a.OnSuspend.
func ToEnumerator[R any](a Awaiter[R]) *AwaiterEnumerator[R] {
	if a == nil {
		panic("tickwait: ToEnumerator(nil)")
	}
	return &AwaiterEnumerator[R]{a: a}
}

func (e *AwaiterEnumerator[R]) MoveNext() bool {
	if e.ready {
		return false
	}
	if !e.a.IsReady() {
		return true
	}
	e.ready = true
	e.result = e.a.Result()
	return false
}

// Current returns nil while waiting, and the result afterwards.
func (e *AwaiterEnumerator[R]) Current() any {
	if !e.ready {
		return nil
	}
	return e.result
}

// Result returns the result of the awaiter, or the zero value while
// waiting.
func (e *AwaiterEnumerator[R]) Result() R {
	return e.result
}

// StartEnumerator runs e to completion on the tick queues, like
// a coroutine would.
// The returned [Future] resolves once e is exhausted, or is rejected if the
// run is stopped or panics.
//
// StartEnumerator must be called on the main thread.
func (s *Scheduler) StartEnumerator(e Enumerator, opts ...WaitOption) *Future[struct{}] {
	w := FromEnumerator(e)
	return SpawnFunc(s, func(co *Coroutine) struct{} {
		Wait(co, w, opts...)
		return struct{}{}
	})
}
