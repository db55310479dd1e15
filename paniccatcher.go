package tickwait

import (
	"fmt"
	"runtime/debug"
	"strings"
)

// PanicError is the error a [Scheduler] returns when an instruction, a
// cross-thread post, or code resumed by a continuation panics during
// [Scheduler.Tick].
// A [Pool] reports panicking jobs with it too.
type PanicError struct {
	Phase Phase // Phase being ticked; zero for a Pool job.
	Value any
	Stack []byte

	background bool
}

func newPanicError(p Phase, v any, stack []byte) *PanicError {
	if pe, ok := v.(*PanicError); ok {
		pe.Phase = p
		return pe
	}
	return &PanicError{Phase: p, Value: v, Stack: stack}
}

func (e *PanicError) Error() string {
	var b strings.Builder
	if e.background {
		b.WriteString("tickwait: panic in background job as follows:")
	} else {
		fmt.Fprintf(&b, "tickwait: panic during %v tick as follows:", e.Phase)
	}
	fmt.Fprintf(&b, "\npanic: %v", e.Value)
	if e.Stack != nil {
		b.WriteString("\n\n")
		b.Write(e.Stack)
	}
	return b.String()
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// try calls f and converts a panic into a [*PanicError].
func try(p Phase, f func()) (err *PanicError) {
	ok := false
	defer func() {
		if !ok {
			v := recover()
			if v == nil {
				panic("tickwait: runtime.Goexit called during a tick")
			}
			err = newPanicError(p, v, debug.Stack())
		}
	}()
	f()
	ok = true
	return nil
}
