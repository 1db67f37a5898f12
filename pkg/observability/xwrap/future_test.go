package xwrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_ResolveThenSubscribe(t *testing.T) {
	f := Resolved("hello")
	require.True(t, f.Done())

	var got any
	var gotErr error
	f.OnSettle(func(value any, err error) {
		got = value
		gotErr = err
	})
	assert.Equal(t, "hello", got)
	assert.NoError(t, gotErr)
}

func TestFuture_SubscribeThenResolve(t *testing.T) {
	f := NewFuture()
	require.False(t, f.Done())

	var got any
	f.OnSettle(func(value any, err error) { got = value })
	assert.Nil(t, got)

	f.Resolve(42)
	assert.Equal(t, 42, got)
}

func TestFuture_Reject(t *testing.T) {
	want := errors.New("boom")
	f := Rejected(want)

	var gotErr error
	f.OnSettle(func(_ any, err error) { gotErr = err })
	assert.Same(t, want, gotErr)
}

func TestFuture_SettleAtMostOnce(t *testing.T) {
	f := NewFuture()
	calls := 0
	f.OnSettle(func(any, error) { calls++ })

	f.Resolve(1)
	f.Resolve(2)
	f.Reject(errors.New("late"))

	assert.Equal(t, 1, calls)
	value, err := f.Await(context.Background())
	assert.Equal(t, 1, value)
	assert.NoError(t, err)
}

func TestFuture_CallbackOrder(t *testing.T) {
	f := NewFuture()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		f.OnSettle(func(any, error) { order = append(order, i) })
	}
	f.Resolve(nil)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestFuture_AwaitBlocksUntilSettle(t *testing.T) {
	f := NewFuture()
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Resolve("done")
	}()

	value, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", value)
}

func TestFuture_AwaitContextCancel(t *testing.T) {
	f := NewFuture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	// 取消只影响等待方，Future 本身未结算
	assert.False(t, f.Done())
}

func TestFuture_NilCallbackIgnored(t *testing.T) {
	f := NewFuture()
	assert.NotPanics(t, func() { f.OnSettle(nil) })
	f.Resolve(nil)
}
