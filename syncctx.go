package tickwait

// mainThreadHop resumes a coroutine on the main thread.
type mainThreadHop Coroutine

func (h *mainThreadHop) IsReady() bool {
	return (*Coroutine)(h).onMain
}

func (h *mainThreadHop) OnSuspend(resume func()) {
	s := (*Coroutine)(h).sched
	if err := s.Post(resume); err != nil {
		s.logger.WithError(err).Debug("main thread hop dropped")
	}
}

func (h *mainThreadHop) Result() struct{} { return struct{}{} }

func (h *mainThreadHop) ResumesOnMainThread() bool { return true }

// backgroundHop resumes a coroutine on the scheduler's executor.
type backgroundHop Coroutine

func (h *backgroundHop) IsReady() bool { return false }

func (h *backgroundHop) OnSuspend(resume func()) {
	(*Coroutine)(h).sched.executor.Submit(resume)
}

func (h *backgroundHop) Result() struct{} { return struct{}{} }

func (h *backgroundHop) ResumesOnMainThread() bool { return false }

// SwitchToMainThread moves co to the main thread.
//
// If co is on the main thread already, SwitchToMainThread returns
// immediately.
// Otherwise co resumes at the start of the next Tick of the immediate
// phase, before any continuation of that phase is polled.
func (co *Coroutine) SwitchToMainThread() {
	Await[struct{}](co, (*mainThreadHop)(co))
}

// SwitchToBackground moves co to the scheduler's [Executor].
// co always suspends, and resumes wherever the executor runs it.
func (co *Coroutine) SwitchToBackground() {
	Await[struct{}](co, (*backgroundHop)(co))
}
