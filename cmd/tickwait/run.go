package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/b97tsk/tickwait"
)

var (
	runFrames  uint
	runActors  uint
	runPaced   bool
	runWorkers int

	frameColor  = color.New(color.FgHiBlack)
	actorColor  = color.New(color.FgCyan, color.Bold)
	mainColor   = color.New(color.FgGreen)
	bgColor     = color.New(color.FgYellow)
	legacyColor = color.New(color.FgMagenta)
)

func init() {
	runCmd.Flags().UintVarP(&runFrames, "frames", "n", 120, "number of frames to run")
	runCmd.Flags().UintVar(&runActors, "actors", 3, "number of demo coroutines")
	runCmd.Flags().BoolVar(&runPaced, "paced", false, "run frames in real time")
	runCmd.Flags().IntVar(&runWorkers, "workers", -1, "background workers (overrides the config when >= 0)")
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate frames of a demo workload",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if runWorkers >= 0 {
			cfg.Workers = runWorkers
			if err := cfg.Validate(); err != nil {
				return err
			}
		}
		frames, err := safecast.Conv[int](runFrames)
		if err != nil {
			return fmt.Errorf("--frames: %w", err)
		}
		actors, err := safecast.Conv[int](runActors)
		if err != nil {
			return fmt.Errorf("--actors: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return simulate(ctx, cmd.OutOrStdout(), cfg, frames, actors)
	},
}

type tracer struct {
	mu    sync.Mutex
	w     io.Writer
	clock tickwait.Clock
}

func (t *tracer) printf(c *color.Color, who, format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	frameColor.Fprintf(t.w, "[%4d] ", t.clock.FrameCount())
	actorColor.Fprintf(t.w, "%-8s ", who)
	c.Fprintf(t.w, format, args...)
	fmt.Fprintln(t.w)
}

func simulate(ctx context.Context, w io.Writer, cfg tickwait.Config, frames, actors int) error {
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	logger := tickwait.Logger()
	logger.SetLevel(level)

	loop := cfg.NewLoop()
	loop.Paced = runPaced

	opts := cfg.Options()
	var pool *tickwait.Pool
	if cfg.Workers > 0 {
		pool = tickwait.NewPool(ctx, cfg.Workers)
		opts = append(opts, tickwait.WithExecutor(pool))
	}

	s := tickwait.NewScheduler(loop.Clock(), opts...)
	if err := s.Attach(loop); err != nil {
		return err
	}

	tr := &tracer{w: w, clock: loop.Clock()}
	ready := new(tickwait.Signal)
	slots := tickwait.NewSemaphore(2)

	for i := range actors {
		name := fmt.Sprintf("actor-%d", i)
		s.Spawn(func(co *tickwait.Coroutine) {
			tr.printf(mainColor, name, "spawned")
			co.DelayFrames(10 * (i + 1))
			tr.printf(mainColor, name, "waking up after %d frames", 10*(i+1))

			tickwait.Wait(co, slots.Acquire(1))
			co.SwitchToBackground()
			sum := 0
			for n := range 1000 * (i + 1) {
				sum += n
			}
			tr.printf(bgColor, name, "computed %d off the main thread", sum)

			co.SwitchToMainThread()
			slots.Release(1)
			tr.printf(mainColor, name, "back on the main thread")

			tickwait.Wait(co, ready.Wait(), tickwait.InPhase(tickwait.PostUpdate))
			tr.printf(mainColor, name, "signalled, done")
		})
	}

	doomed := tickwait.NewLifetime()
	s.Spawn(func(co *tickwait.Coroutine) {
		tr.printf(mainColor, "doomed", "waiting for a signal that never comes")
		tickwait.Wait(co, new(tickwait.Signal).Wait(), tickwait.BoundTo(doomed))
		tr.printf(mainColor, "doomed", "unreachable")
	})

	legacy := s.StartEnumerator(tickwait.Enumerate(func(yield func(any) bool) {
		tr.printf(legacyColor, "legacy", "step 1")
		if !yield(nil) {
			return
		}
		tr.printf(legacyColor, "legacy", "step 2")
		if !yield(tickwait.Box(tickwait.WaitFrames(loop.Clock(), 5))) {
			return
		}
		tr.printf(legacyColor, "legacy", "step 3, five frames later")
	}))

	s.Spawn(func(co *tickwait.Coroutine) {
		if _, err := tickwait.AwaitFuture(co, legacy); err != nil {
			tr.printf(legacyColor, "legacy", "failed: %v", err)
			return
		}
		tr.printf(legacyColor, "legacy", "finished")
		co.Delay(time.Second)
		doomed.Destroy()
		tr.printf(mainColor, "doomed", "destroyed")
		co.NextFrame()
		ready.Notify()
	})

	runErr := loop.Run(ctx, frames)

	closeErr := s.Close()
	if pool != nil {
		if err := pool.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	if runErr != nil {
		return runErr
	}
	return closeErr
}
