package tickwait_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/b97tsk/tickwait"
)

func TestFuture(t *testing.T) {
	t.Run("SettleOnce", func(t *testing.T) {
		f := tickwait.NewFuture[string]()
		require.False(t, f.IsReady())
		require.True(t, f.Resolve("first"))
		require.False(t, f.Resolve("second"))
		require.False(t, f.Reject(errBoom))
		require.True(t, f.IsReady())
		require.Equal(t, "first", f.Result())
		require.NoError(t, f.Err())
	})
	t.Run("Reject", func(t *testing.T) {
		f := tickwait.NewFuture[int]()
		require.True(t, f.Reject(errBoom))
		require.ErrorIs(t, f.Err(), errBoom)
		require.Zero(t, f.Result())
		require.PanicsWithValue(t, "tickwait: Reject(nil)", func() { f.Reject(nil) })
	})
	t.Run("WaitersInOrder", func(t *testing.T) {
		f := tickwait.NewFuture[int]()
		var order []int
		for i := range 3 {
			f.OnSuspend(func() { order = append(order, i) })
		}
		require.Empty(t, order)
		f.Resolve(1)
		require.Equal(t, []int{0, 1, 2}, order)
	})
	t.Run("OnSuspendAfterSettle", func(t *testing.T) {
		f := tickwait.NewFuture[int]()
		f.Resolve(1)
		called := false
		f.OnSuspend(func() { called = true })
		require.True(t, called)
		require.Panics(t, func() { f.OnSuspend(nil) })
	})
	t.Run("Get", func(t *testing.T) {
		f := tickwait.NewFuture[int]()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		_, err := f.Get(ctx)
		require.ErrorIs(t, err, context.DeadlineExceeded)

		go f.Resolve(5)
		v, err := f.Get(context.Background())
		require.NoError(t, err)
		require.Equal(t, 5, v)
		<-f.Done()
	})
	t.Run("AwaitSettled", func(t *testing.T) {
		h := newHarness(t)
		f := tickwait.NewFuture[int]()
		f.Reject(errBoom)
		var err error
		co := h.s.Spawn(func(co *tickwait.Coroutine) {
			_, err = tickwait.AwaitFuture(co, f)
		})
		require.True(t, co.Ended())
		require.ErrorIs(t, err, errBoom)
	})
}
