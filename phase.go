package tickwait

import (
	"fmt"
	"strings"
)

// Phase identifies a fixed point in the host's per-frame update sequence.
//
// A host fires every phase once per frame, in the order the constants are
// declared.
type Phase uint8

const (
	// Initialization fires first in every frame.
	// Cross-thread posts (see [Scheduler.Post]) are drained here, before any
	// continuation queued for this phase is polled.
	Initialization Phase = iota
	// FixedUpdate is the physics step.
	FixedUpdate
	PreUpdate
	Update
	PostUpdate

	numPhases
)

const (
	// ImmediatePhase is the phase that receives work handed back to the main
	// thread.
	ImmediatePhase = Initialization
	// DefaultPhase is the phase a [Scheduler] uses unless configured
	// otherwise.
	DefaultPhase = Update
)

var phaseNames = [numPhases]string{
	Initialization: "initialization",
	FixedUpdate:    "fixed-update",
	PreUpdate:      "pre-update",
	Update:         "update",
	PostUpdate:     "post-update",
}

// Phases returns every phase in firing order.
func Phases() []Phase {
	return []Phase{Initialization, FixedUpdate, PreUpdate, Update, PostUpdate}
}

func (p Phase) valid() bool {
	return p < numPhases
}

func (p Phase) String() string {
	if !p.valid() {
		return fmt.Sprintf("Phase(%d)", uint8(p))
	}
	return phaseNames[p]
}

// ParsePhase parses a phase name as returned by [Phase.String].
func ParsePhase(s string) (Phase, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range phaseNames {
		if name == s {
			return Phase(p), nil
		}
	}
	return 0, fmt.Errorf("tickwait: unknown phase %q", s)
}

// MarshalText implements [encoding.TextMarshaler].
func (p Phase) MarshalText() ([]byte, error) {
	if !p.valid() {
		return nil, fmt.Errorf("tickwait: invalid phase %d", uint8(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (p *Phase) UnmarshalText(text []byte) error {
	v, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
