// Package tickwait is a library for suspending and resuming logic at fixed
// points of a host's per-frame update loop.
//
// A host, be it a game loop, a simulation or a UI toolkit, calls into its
// application once per phase, every frame.
// A [Scheduler] attaches to such a host and, on each [Scheduler.Tick], polls
// the wait conditions queued for that phase.
// The goroutine driving Tick is called the main thread.
//
// # Instructions and Continuations
//
// A wait condition is an [Instruction]: anything with an IsCompleted method.
// Built-in instructions wait for frames ([WaitFrames]), time ([WaitSeconds]
// and friends), predicates ([WaitUntil], [WaitWhile]), value changes
// ([WaitUntilValueChanged]), events ([Signal], [State], [WaitGroup]) and
// legacy enumerators ([FromEnumerator]).
//
// A [Continuation] stores one instruction by value, together with the
// callback that resumes whoever waits on it.
// It implements [Awaiter], the handshake used to suspend: IsReady checks
// the instruction once without involving the scheduler; if that fails,
// OnSuspend queues the continuation on its phase.
// A continuation is resumed at most once, and never on the tick it was
// queued in.
//
// # Coroutines
//
// A [Coroutine] runs a [Task] that can suspend on any [Awaiter]:
//
//	s.Spawn(func(co *tickwait.Coroutine) {
//		co.DelayFrames(3)
//		co.SwitchToBackground()
//		heavyWork()
//		co.SwitchToMainThread()
//		apply()
//	})
//
// [Wait] and the Coroutine methods built on it take their continuations from
// a pool, so a coroutine waiting in a loop does not allocate one per wait.
//
// # Lifetimes
//
// A continuation can be bound to a [Liveness] (such as a [Lifetime]) or to a
// [context.Context].
// Once the binding no longer holds, the continuation is dropped silently and
// its coroutine stays suspended until it is stopped, at the latest by
// [Scheduler.Close].
//
// # Threads
//
// Queues belong to the main thread.
// Other goroutines hand work to it with [Scheduler.Post]; posts run at the
// start of the next Tick of [ImmediatePhase].
// Work moved off the main thread runs on the scheduler's [Executor], by
// default one goroutine per job, or a fixed-size [Pool].
package tickwait
