package tickwait

import (
	"context"
	"sync/atomic"
)

// Liveness is the interface of any condition a pending [Continuation] can be
// bound to.
// Once Alive reports false, the continuation is dropped without being
// resumed.
//
// Alive is called on the main thread, once per poll.
type Liveness interface {
	Alive() bool
}

// A Lifetime is a [Liveness] that stays alive until destroyed.
//
// A Lifetime is safe for concurrent use.
type Lifetime struct {
	destroyed atomic.Bool
}

// NewLifetime returns a new, alive [Lifetime].
func NewLifetime() *Lifetime {
	return new(Lifetime)
}

// Alive reports whether l has not been destroyed yet.
func (l *Lifetime) Alive() bool {
	return !l.destroyed.Load()
}

// Destroy marks l as no longer alive.
// Destroy is idempotent.
func (l *Lifetime) Destroy() {
	l.destroyed.Store(true)
}

// binding is the condition a continuation must meet to keep waiting.
// At most one of live and ctx is set; the most recent configuration replaces
// any earlier one.
type binding struct {
	live Liveness
	ctx  context.Context
}

func (b *binding) holds() bool {
	switch {
	case b.live != nil:
		return b.live.Alive()
	case b.ctx != nil:
		return b.ctx.Err() == nil
	default:
		return true
	}
}
