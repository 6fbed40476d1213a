package yarp

import "sort"

// SliceValue composes several values into one continuous Value whose
// payload is a []any mirroring the argument list. Elements may be Values
// (realized and tracked), nested containers holding Values, or plain
// constants copied through unchanged. The slice is recomputed whenever any
// contained Value changes, with the triggering element's delivered payload
// substituted in place.
func SliceValue(elems ...any) *Value {
	v, _ := Lift(assembleSlice)(elems...)
	return v
}

func assembleSlice(args ...any) (any, error) {
	out := make([]any, len(args))
	copy(out, args)
	return out, nil
}

// MapValue is SliceValue for string-keyed maps: the payload is a
// map[string]any with the same keys, each Value-typed entry realized. The
// key set is fixed at construction.
func MapValue(m map[string]any) *Value {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	vals := make([]any, len(keys))
	for i, k := range keys {
		vals[i] = m[k]
	}

	assemble := func(args ...any) (any, error) {
		out := make(map[string]any, len(keys))
		for i, k := range keys {
			out[k] = args[i]
		}
		return out, nil
	}
	v, _ := Lift(assemble)(vals...)
	return v
}

// EnsureValue normalizes x to a Value: Values pass through untouched,
// []any and map[string]any become aggregate Values over their contents,
// and anything else is wrapped as a continuous Value holding x.
func EnsureValue(x any) *Value {
	switch x := x.(type) {
	case *Value:
		return x
	case []any:
		return SliceValue(x...)
	case map[string]any:
		return MapValue(x)
	default:
		return NewValue(x)
	}
}
