package tickwait

import "sync"

// A State is a [Signal] that carries a value.
// To retrieve the value, call the Get method.
//
// Calling the Set method of a State updates the value and notifies the
// embedded Signal.
//
// A State is safe for concurrent use.
type State[T any] struct {
	Signal
	mu    sync.Mutex
	value T
}

// NewState creates a new [State] with its initial value set to v.
func NewState[T any](v T) *State[T] {
	return &State[T]{value: v}
}

// Get retrieves the value of s.
func (s *State[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set updates the value of s and notifies s.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	s.Notify()
}

// Update sets the value of s to f(s.Get()) and notifies s.
// f is called with s locked; it must not call other methods of s.
func (s *State[T]) Update(f func(v T) T) {
	s.mu.Lock()
	s.value = f(s.value)
	s.mu.Unlock()
	s.Notify()
}

// Changed returns a [StateWait] that completes the next time s is set.
// Its result is the value of s at completion.
func (s *State[T]) Changed() StateWait[T] {
	return StateWait[T]{SignalWait: s.Wait(), s: s}
}

// StateWait waits for a [State] to be set.
type StateWait[T any] struct {
	SignalWait
	s     *State[T]
	value T
}

func (w *StateWait[T]) IsCompleted() bool {
	if !w.SignalWait.IsCompleted() {
		return false
	}
	w.value = w.s.Get()
	return true
}

// Result returns the value of the State at completion.
func (w *StateWait[T]) Result() T {
	return w.value
}
