package tickwait_test

import (
	"context"
	"fmt"
	"time"

	"github.com/b97tsk/tickwait"
)

func Example() {
	// A Loop stands in for the host's update loop: 50 frames per second.
	loop := tickwait.NewLoop(tickwait.NewManualClock(), 20*time.Millisecond)

	s := tickwait.NewScheduler(loop.Clock(), tickwait.WithLogger(quietLogger()))
	defer s.Close()

	if err := s.Attach(loop); err != nil {
		fmt.Println(err)
		return
	}

	s.Spawn(func(co *tickwait.Coroutine) {
		fmt.Println("frame", s.Frame(), "start")
		co.DelayFrames(3)
		fmt.Println("frame", s.Frame(), "three frames later")
		co.Delay(time.Second)
		fmt.Println("frame", s.Frame(), "one second later")
	})

	if err := loop.Run(context.Background(), 100); err != nil {
		fmt.Println(err)
	}

	// Output:
	// frame 0 start
	// frame 3 three frames later
	// frame 53 one second later
}

// This example demonstrates how another goroutine hands work to the main
// thread.
func ExampleScheduler_Post() {
	s := tickwait.NewScheduler(tickwait.NewManualClock(), tickwait.WithLogger(quietLogger()))
	defer s.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Post(func() { fmt.Println("posted from a worker") })
	}()
	<-done

	fmt.Println("before tick")
	if err := s.Tick(tickwait.ImmediatePhase); err != nil {
		fmt.Println(err)
	}

	// Output:
	// before tick
	// posted from a worker
}

// This example demonstrates how a legacy enumerator waits on an awaiter.
func ExampleToEnumerator() {
	f := tickwait.NewFuture[string]()
	e := tickwait.ToEnumerator[string](f)

	for i := 0; e.MoveNext(); i++ {
		fmt.Println("waiting", i)
		if i == 1 {
			f.Resolve("ready")
		}
	}
	fmt.Println(e.Current())

	// Output:
	// waiting 0
	// waiting 1
	// ready
}

func ExampleState() {
	clock := tickwait.NewManualClock()
	s := tickwait.NewScheduler(clock, tickwait.WithLogger(quietLogger()))
	defer s.Close()

	tick := func() {
		clock.Advance(time.Second / 60)
		for _, p := range tickwait.Phases() {
			if err := s.Tick(p); err != nil {
				fmt.Println(err)
			}
		}
	}

	hp := tickwait.NewState(100)

	s.Spawn(func(co *tickwait.Coroutine) {
		for {
			v := tickwait.WaitValue[int](co, hp.Changed())
			fmt.Println("hp =", v)
			if v <= 0 {
				fmt.Println("game over")
				return
			}
		}
	})

	hp.Set(70)
	tick()
	hp.Update(func(v int) int { return v - 70 })
	tick()

	// Output:
	// hp = 70
	// hp = 0
	// game over
}

func ExampleWaitGroup() {
	clock := tickwait.NewManualClock()
	s := tickwait.NewScheduler(clock, tickwait.WithLogger(quietLogger()))
	defer s.Close()

	var (
		wg     tickwait.WaitGroup
		v1, v2 int
	)

	wg.Add(2)

	go func() {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond) // Heavy work #1 here.
		v1 = 15
	}()

	go func() {
		defer wg.Done()
		time.Sleep(50 * time.Millisecond) // Heavy work #2 here.
		v2 = 27
	}()

	co := s.Spawn(func(co *tickwait.Coroutine) {
		tickwait.Wait(co, wg.Wait())
		fmt.Println("v1 + v2 =", v1+v2)
	})

	for !co.Ended() {
		clock.Advance(time.Second / 60)
		if err := s.Tick(tickwait.Update); err != nil {
			fmt.Println(err)
			return
		}
		time.Sleep(time.Millisecond)
	}

	// Output:
	// v1 + v2 = 42
}
