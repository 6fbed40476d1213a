package yarp

import (
	"fmt"
	"reflect"
	"slices"
)

// MakeInstantaneous derives an instantaneous Value from src: every
// notification is forwarded transiently and nothing is ever persisted,
// regardless of how src itself is driven.
func MakeInstantaneous(src *Value) *Value {
	out := NewEmpty()
	traceEdge(src, out)
	src.OnChange(out.Emit)
	return out
}

// MakePersistent derives a continuous Value from src: every notification,
// transient or not, is persisted on the output. Until the first
// notification the output holds initial (use NoValue for none).
func MakePersistent(src *Value, initial any) *Value {
	out := NewValue(initial)
	traceEdge(src, out)
	src.OnChange(out.Set)
	return out
}

// NoRepeat suppresses notifications whose payload equals (structurally,
// reflect.DeepEqual) the previously notified payload. The output mirrors
// src's continuous state, so it behaves identically for continuous and
// instantaneous sources.
func NoRepeat(src *Value) *Value {
	last := src.Get()
	out := NewValue(last)
	traceEdge(src, out)
	src.OnChange(func(x any) error {
		if reflect.DeepEqual(x, last) {
			return nil
		}
		last = x
		out.store(src.Get())
		return out.Emit(x)
	})
	return out
}

// Window keeps a moving window of the last size notified payloads of src,
// published as a []any (continuous, oldest first). size is an int or a
// continuous Value of int, always at least 1; shrinking it truncates the
// window immediately, growing it does not resurrect dropped entries.
func Window(src *Value, size any) *Value {
	sv := EnsureValue(size)
	out := NewValue([]any{src.Get()})
	traceEdge(src, out)
	traceEdge(sv, out)

	src.OnChange(func(x any) error {
		buf := append(slices.Clone(out.Get().([]any)), x)
		if n := windowSize(sv); len(buf) > n {
			buf = buf[len(buf)-n:]
		}
		return out.Set(buf)
	})
	sv.OnChange(func(any) error {
		buf := out.Get().([]any)
		if n := windowSize(sv); len(buf) > n {
			return out.Set(slices.Clone(buf[len(buf)-n:]))
		}
		return nil
	})
	return out
}

func windowSize(sv *Value) int {
	n, ok := sv.Get().(int)
	if !ok || n < 1 {
		panic(fmt.Sprintf("yarp: window size must be an int >= 1, got %v", sv.Get()))
	}
	return n
}

// Filter republishes only the notifications of src whose payload satisfies
// pred, preserving src's mode. A nil pred keeps everything except NoValue.
// Swallowed changes produce no output at all; the output's continuous state
// still mirrors src's whenever a notification does pass.
func Filter(src *Value, pred func(any) bool) *Value {
	if pred == nil {
		pred = func(x any) bool { return x != NoValue }
	}
	var initial any = NoValue
	if cur := src.Get(); cur != NoValue && pred(cur) {
		initial = cur
	}
	out := NewValue(initial)
	traceEdge(src, out)
	src.OnChange(func(x any) error {
		if !pred(x) {
			return nil
		}
		out.store(src.Get())
		return out.Emit(x)
	})
	return out
}

// ReplaceNoValue republishes every notification of src unchanged except
// that a NoValue payload is replaced with def, in both the notified and the
// mirrored continuous state.
func ReplaceNoValue(src *Value, def any) *Value {
	repl := func(x any) any {
		if x == NoValue {
			return def
		}
		return x
	}
	out := NewValue(repl(src.Get()))
	traceEdge(src, out)
	src.OnChange(func(x any) error {
		out.store(repl(src.Get()))
		return out.Emit(repl(x))
	})
	return out
}
