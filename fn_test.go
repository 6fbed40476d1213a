package yarp_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mossblaser/yarp"
)

func sum(args ...any) (any, error) {
	total := 0
	for _, a := range args {
		total += a.(int)
	}
	return total, nil
}

// a continuous wrapper evaluates immediately and republishes on every
// upstream change
func TestLift(t *testing.T) {
	a := yarp.NewValue(1)
	b := yarp.NewValue(1)

	d, err := yarp.Lift(sum)(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Get())

	require.NoError(t, a.Set(5))
	assert.Equal(t, 6, d.Get())

	require.NoError(t, b.Set(10))
	assert.Equal(t, 15, d.Get())
}

// plain constants pass through unchanged alongside Value arguments
func TestLiftMixedConstants(t *testing.T) {
	a := yarp.NewValue(1)

	d, err := yarp.Lift(sum)(a, 100)
	require.NoError(t, err)
	assert.Equal(t, 101, d.Get())

	require.NoError(t, a.Set(2))
	assert.Equal(t, 102, d.Get())
}

// no initial evaluation happens while any Value argument is undefined
func TestLiftUndefinedArgument(t *testing.T) {
	a := yarp.NewValue(1)
	b := yarp.NewEmpty()

	calls := 0
	counted := func(args ...any) (any, error) {
		calls++
		return sum(args...)
	}

	d, err := yarp.Lift(counted)(a, b)
	require.NoError(t, err)
	assert.Equal(t, 0, calls)
	assert.Equal(t, yarp.NoValue, d.Get())

	require.NoError(t, b.Set(2))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, d.Get())
}

// an instantaneous wrapper never evaluates at construction and never
// persists its results
func TestLiftEvent(t *testing.T) {
	miles := yarp.NewEmpty()
	km := yarp.LiftEvent(func(args ...any) (any, error) {
		return float64(args[0].(int)) * 1.6, nil
	})(miles)

	seen := record(km)
	assert.Equal(t, yarp.NoValue, km.Get())
	assert.Empty(t, *seen)

	require.NoError(t, miles.Emit(30))
	assert.Equal(t, []any{48.0}, *seen)
	assert.Equal(t, yarp.NoValue, km.Get())
}

// the triggering argument's delivered payload is substituted for its
// persisted state
func TestLiftTransientSubstitution(t *testing.T) {
	a := yarp.NewValue(10)
	b := yarp.NewEmpty()

	d := yarp.LiftEvent(sum)(a, b)
	seen := record(d)

	// b has no persisted payload; the delivered 5 is used in its place.
	require.NoError(t, b.Emit(5))
	assert.Equal(t, []any{15}, *seen)
}

// a failing function surfaces from the construction-time evaluation
func TestLiftInitialError(t *testing.T) {
	boom := errors.New("boom")
	a := yarp.NewValue(1)

	_, err := yarp.Lift(func(...any) (any, error) { return nil, boom })(a)
	assert.ErrorIs(t, err, boom)
}

// a failing function unwinds to the upstream mutation and writes nothing
func TestLiftRecomputeError(t *testing.T) {
	boom := errors.New("boom")
	a := yarp.NewValue(1)

	fail := false
	d, err := yarp.Lift(func(args ...any) (any, error) {
		if fail {
			return nil, boom
		}
		return args[0], nil
	})(a)
	require.NoError(t, err)
	assert.Equal(t, 1, d.Get())

	fail = true
	assert.ErrorIs(t, a.Set(2), boom)
	assert.Equal(t, 1, d.Get())
}

// derived Values chain: a change at the root reaches the leaves before
// Set returns
func TestLiftChained(t *testing.T) {
	a := yarp.NewValue(1)
	double, err := yarp.Lift(func(args ...any) (any, error) {
		return args[0].(int) * 2, nil
	})(a)
	require.NoError(t, err)
	quad, err := yarp.Lift(func(args ...any) (any, error) {
		return args[0].(int) * 2, nil
	})(double)
	require.NoError(t, err)
	assert.Equal(t, 4, quad.Get())

	require.NoError(t, a.Set(3))
	assert.Equal(t, 12, quad.Get())
}

// container arguments holding Values are tracked as aggregates
func TestLiftContainerArgument(t *testing.T) {
	a := yarp.NewValue(1)
	b := yarp.NewValue(2)

	total, err := yarp.Lift(func(args ...any) (any, error) {
		return sum(args[0].([]any)...)
	})([]any{a, b, 4})
	require.NoError(t, err)
	assert.Equal(t, 7, total.Get())

	require.NoError(t, a.Set(10))
	assert.Equal(t, 16, total.Get())
}
