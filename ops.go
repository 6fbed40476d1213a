package yarp

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
)

// Lifted equivalents of the native operators and builtins, for composing
// graphs without writing throwaway Fns. Each takes Values and/or constants
// and returns a continuous derived Value, exactly as Lift would. Arithmetic
// stays integral when every operand is an integer and promotes to float64
// otherwise; Div always divides as float64.
var (
	Add = Lift(arith("add", func(a, b int64) int64 { return a + b }, func(a, b float64) float64 { return a + b }))
	Sub = Lift(arith("sub", func(a, b int64) int64 { return a - b }, func(a, b float64) float64 { return a - b }))
	Mul = Lift(arith("mul", func(a, b int64) int64 { return a * b }, func(a, b float64) float64 { return a * b }))
	Div = Lift(arith("div", nil, func(a, b float64) float64 { return a / b }))
	Mod = Lift(arith("mod", func(a, b int64) int64 { return a % b }, nil))

	Neg = Lift(unary("neg", func(a int64) int64 { return -a }, func(a float64) float64 { return -a }))
	Abs = Lift(unary("abs", func(a int64) int64 {
		if a < 0 {
			return -a
		}
		return a
	}, func(a float64) float64 {
		if a < 0 {
			return -a
		}
		return a
	}))

	Eq = Lift(func(args ...any) (any, error) {
		if err := arity("eq", args, 2); err != nil {
			return nil, err
		}
		return reflect.DeepEqual(args[0], args[1]), nil
	})
	Ne = Lift(func(args ...any) (any, error) {
		if err := arity("ne", args, 2); err != nil {
			return nil, err
		}
		return !reflect.DeepEqual(args[0], args[1]), nil
	})
	Lt = Lift(ordered("lt", func(c int) bool { return c < 0 }))
	Le = Lift(ordered("le", func(c int) bool { return c <= 0 }))
	Gt = Lift(ordered("gt", func(c int) bool { return c > 0 }))
	Ge = Lift(ordered("ge", func(c int) bool { return c >= 0 }))

	Not = Lift(func(args ...any) (any, error) {
		if err := arity("not", args, 1); err != nil {
			return nil, err
		}
		return !Truthy(args[0]), nil
	})

	Len = Lift(func(args ...any) (any, error) {
		if err := arity("len", args, 1); err != nil {
			return nil, err
		}
		switch c := args[0].(type) {
		case string:
			return len(c), nil
		case []any:
			return len(c), nil
		case map[string]any:
			return len(c), nil
		}
		return nil, fmt.Errorf("yarp: len of %T", args[0])
	})

	Index = Lift(func(args ...any) (any, error) {
		if err := arity("index", args, 2); err != nil {
			return nil, err
		}
		switch c := args[0].(type) {
		case []any:
			i, ok := asInt(args[1])
			if !ok || i < 0 || int(i) >= len(c) {
				return nil, fmt.Errorf("yarp: index %v out of range for %d elements", args[1], len(c))
			}
			return c[i], nil
		case map[string]any:
			k, ok := args[1].(string)
			if !ok {
				return nil, fmt.Errorf("yarp: map index must be a string, got %T", args[1])
			}
			if v, ok := c[k]; ok {
				return v, nil
			}
			return nil, fmt.Errorf("yarp: key %q not present", k)
		}
		return nil, fmt.Errorf("yarp: cannot index %T", args[0])
	})

	Contains = Lift(func(args ...any) (any, error) {
		if err := arity("contains", args, 2); err != nil {
			return nil, err
		}
		switch c := args[0].(type) {
		case string:
			s, ok := args[1].(string)
			return ok && strings.Contains(c, s), nil
		case []any:
			for _, e := range c {
				if reflect.DeepEqual(e, args[1]) {
					return true, nil
				}
			}
			return false, nil
		case map[string]any:
			k, ok := args[1].(string)
			if !ok {
				return false, nil
			}
			_, present := c[k]
			return present, nil
		}
		return nil, fmt.Errorf("yarp: cannot test containment in %T", args[0])
	})

	Sum = Lift(fold("sum", func(acc, x float64) float64 { return acc + x }, 0))
	Min = Lift(extremum("min", func(best, x float64) bool { return x < best }))
	Max = Lift(extremum("max", func(best, x float64) bool { return x > best }))

	Sorted = Lift(func(args ...any) (any, error) {
		if err := arity("sorted", args, 1); err != nil {
			return nil, err
		}
		elems, ok := args[0].([]any)
		if !ok {
			return nil, fmt.Errorf("yarp: sorted wants a []any, got %T", args[0])
		}
		out := make([]any, len(elems))
		copy(out, elems)
		var sortErr error
		sort.SliceStable(out, func(i, j int) bool {
			c, err := compare(out[i], out[j])
			if err != nil && sortErr == nil {
				sortErr = err
			}
			return c < 0
		})
		return out, sortErr
	})

	Str = Lift(func(args ...any) (any, error) {
		if err := arity("str", args, 1); err != nil {
			return nil, err
		}
		return fmt.Sprint(args[0]), nil
	})
)

// Truthy follows the original's notion of truth: NoValue, nil, false, zero
// numbers and empty strings/containers are false, everything else true.
func Truthy(x any) bool {
	switch x := x.(type) {
	case nil, noValue:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	if f, ok := asFloat(x); ok {
		return f != 0
	}
	return true
}

func arity(op string, args []any, want int) error {
	if len(args) != want {
		return fmt.Errorf("yarp: %s wants %d arguments, got %d", op, want, len(args))
	}
	return nil
}

func asInt(x any) (int64, bool) {
	switch x := x.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

func asFloat(x any) (float64, bool) {
	if i, ok := asInt(x); ok {
		return float64(i), true
	}
	switch x := x.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func arith(op string, i func(int64, int64) int64, f func(float64, float64) float64) Fn {
	return func(args ...any) (any, error) {
		if err := arity(op, args, 2); err != nil {
			return nil, err
		}
		if i != nil {
			if a, ok := asInt(args[0]); ok {
				if b, ok := asInt(args[1]); ok {
					return i(a, b), nil
				}
			}
		}
		if f == nil {
			return nil, fmt.Errorf("yarp: %s wants integers, got %T and %T", op, args[0], args[1])
		}
		a, ok := asFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("yarp: %s: non-numeric operand %T", op, args[0])
		}
		b, ok := asFloat(args[1])
		if !ok {
			return nil, fmt.Errorf("yarp: %s: non-numeric operand %T", op, args[1])
		}
		return f(a, b), nil
	}
}

func unary(op string, i func(int64) int64, f func(float64) float64) Fn {
	return func(args ...any) (any, error) {
		if err := arity(op, args, 1); err != nil {
			return nil, err
		}
		if a, ok := asInt(args[0]); ok {
			return i(a), nil
		}
		a, ok := asFloat(args[0])
		if !ok {
			return nil, fmt.Errorf("yarp: %s: non-numeric operand %T", op, args[0])
		}
		return f(a), nil
	}
}

// compare orders two numbers or two strings, returning -1, 0 or 1.
func compare(a, b any) (int, error) {
	if fa, ok := asFloat(a); ok {
		fb, ok := asFloat(b)
		if !ok {
			return 0, fmt.Errorf("yarp: cannot compare %T with %T", a, b)
		}
		switch {
		case fa < fb:
			return -1, nil
		case fa > fb:
			return 1, nil
		}
		return 0, nil
	}
	if sa, ok := a.(string); ok {
		sb, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("yarp: cannot compare %T with %T", a, b)
		}
		return strings.Compare(sa, sb), nil
	}
	return 0, fmt.Errorf("yarp: cannot compare %T values", a)
}

func ordered(op string, accept func(c int) bool) Fn {
	return func(args ...any) (any, error) {
		if err := arity(op, args, 2); err != nil {
			return nil, err
		}
		c, err := compare(args[0], args[1])
		if err != nil {
			return nil, err
		}
		return accept(c), nil
	}
}

func fold(op string, f func(acc, x float64) float64, init float64) Fn {
	return func(args ...any) (any, error) {
		if err := arity(op, args, 1); err != nil {
			return nil, err
		}
		elems, ok := args[0].([]any)
		if !ok {
			return nil, fmt.Errorf("yarp: %s wants a []any, got %T", op, args[0])
		}
		acc := init
		for _, e := range elems {
			x, ok := asFloat(e)
			if !ok {
				return nil, fmt.Errorf("yarp: %s: non-numeric element %T", op, e)
			}
			acc = f(acc, x)
		}
		return acc, nil
	}
}

func extremum(op string, better func(best, x float64) bool) Fn {
	return func(args ...any) (any, error) {
		if err := arity(op, args, 1); err != nil {
			return nil, err
		}
		elems, ok := args[0].([]any)
		if !ok || len(elems) == 0 {
			return nil, fmt.Errorf("yarp: %s wants a non-empty []any", op)
		}
		bestVal := elems[0]
		best, ok := asFloat(bestVal)
		if !ok {
			return nil, fmt.Errorf("yarp: %s: non-numeric element %T", op, elems[0])
		}
		for _, e := range elems[1:] {
			x, ok := asFloat(e)
			if !ok {
				return nil, fmt.Errorf("yarp: %s: non-numeric element %T", op, e)
			}
			if better(best, x) {
				best, bestVal = x, e
			}
		}
		return bestVal, nil
	}
}
