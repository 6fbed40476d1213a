package yarp_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossblaser/yarp"
)

func record(v *yarp.Value) *[]any {
	seen := &[]any{}
	v.OnChange(func(x any) error {
		*seen = append(*seen, x)
		return nil
	})
	return seen
}

// a continuous Value reflects the last Set and reads never notify
func TestValueContinuous(t *testing.T) {
	v := yarp.NewValue(123)
	seen := record(v)

	assert.Equal(t, 123, v.Get())
	assert.Equal(t, 123, v.Get())
	assert.Empty(t, *seen)

	require.NoError(t, v.Set(321))
	assert.Equal(t, 321, v.Get())
	assert.Equal(t, []any{321}, *seen)
}

// an empty Value reads as NoValue before and after transient fires
func TestValueInstantaneous(t *testing.T) {
	v := yarp.NewEmpty()
	seen := record(v)

	assert.Equal(t, yarp.NoValue, v.Get())
	require.NoError(t, v.Emit(123))
	assert.Equal(t, []any{123}, *seen)
	assert.Equal(t, yarp.NoValue, v.Get())
}

// subscribers are notified in registration order
func TestValueNotificationOrder(t *testing.T) {
	v := yarp.NewEmpty()
	var order []string
	v.OnChange(func(any) error {
		order = append(order, "first")
		return nil
	})
	v.OnChange(func(any) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, v.Emit(nil))
	assert.Equal(t, []string{"first", "second"}, order)
}

// a failing subscriber aborts the rest of the list and the error unwinds
// to the mutating caller
func TestValueSubscriberErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	v := yarp.NewValue(0)

	var calls []string
	v.OnChange(func(any) error {
		calls = append(calls, "before")
		return nil
	})
	v.OnChange(func(any) error { return boom })
	v.OnChange(func(any) error {
		calls = append(calls, "after")
		return nil
	})

	err := v.Set(1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"before"}, calls)
	// The payload was already persisted before notification began.
	assert.Equal(t, 1, v.Get())
}

// a subscriber may mutate other Values; nested propagation completes on
// the call stack before the outer Set returns
func TestValueReentrantPropagation(t *testing.T) {
	a := yarp.NewValue(0)
	b := yarp.NewValue(0)

	var observed []int
	b.OnChange(func(x any) error {
		observed = append(observed, x.(int))
		return nil
	})
	a.OnChange(func(x any) error {
		return b.Set(x.(int) * 10)
	})

	require.NoError(t, a.Set(2))
	assert.Equal(t, []int{20}, observed)
	assert.Equal(t, 20, b.Get())
}

// subscribers registered during a notification do not receive it
func TestValueSubscribeDuringNotification(t *testing.T) {
	v := yarp.NewEmpty()
	var late []any
	v.OnChange(func(any) error {
		v.OnChange(func(x any) error {
			late = append(late, x)
			return nil
		})
		return nil
	})

	require.NoError(t, v.Emit(1))
	assert.Empty(t, late)

	require.NoError(t, v.Emit(2))
	// One late subscriber was added per notification so far.
	assert.Equal(t, []any{2}, late)
}

// a Value may notify itself recursively; there is deliberately no guard
func TestValueSelfEmitOnce(t *testing.T) {
	v := yarp.NewEmpty()
	fired := false
	v.OnChange(func(x any) error {
		if !fired {
			fired = true
			return v.Emit(x.(int) + 1)
		}
		return nil
	})

	require.NoError(t, v.Emit(1))
	assert.True(t, fired)
}
