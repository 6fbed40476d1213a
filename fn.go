package yarp

// Fn is an ordinary function made reactive by Lift or LiftEvent. It
// receives the current payload of every argument (constants unchanged,
// Values realized) and returns the derived payload. A returned error
// aborts the propagation that triggered the call.
type Fn func(args ...any) (any, error)

// Lift wraps f so that it may be called with a mix of *Value arguments and
// plain constants, returning a continuous derived Value. The derived Value
// is recomputed and republished (via Set) whenever any Value argument
// changes, with the just-delivered payload substituted for the triggering
// argument and Get() used for the rest. If every Value argument already has
// a payload at construction, one synchronous initial evaluation seeds the
// derived Value; an error from that evaluation is returned and no Value is
// produced.
func Lift(f Fn) func(args ...any) (*Value, error) {
	return func(args ...any) (*Value, error) {
		return makeLifted(f, true, args)
	}
}

// LiftEvent is like Lift but the derived Value is instantaneous: each
// upstream change produces one transient result (via Emit) and the derived
// Value never accumulates a payload. There is no initial evaluation, so
// construction cannot fail.
func LiftEvent(f Fn) func(args ...any) *Value {
	return func(args ...any) *Value {
		v, _ := makeLifted(f, false, args)
		return v
	}
}

type lifted struct {
	f        Fn
	args     []any // reactive slots hold *Value, the rest are as given
	reactive []int
	out      *Value
	persist  bool
}

func makeLifted(f Fn, persist bool, args []any) (*Value, error) {
	l := &lifted{
		f:       f,
		args:    make([]any, len(args)),
		out:     NewEmpty(),
		persist: persist,
	}
	for i, a := range args {
		rv, ok := asReactive(a)
		if !ok {
			l.args[i] = a
			continue
		}
		l.args[i] = rv
		l.reactive = append(l.reactive, i)
		idx := i
		rv.OnChange(func(x any) error { return l.recompute(idx, x) })
		traceEdge(rv, l.out)
	}

	if persist && l.allDefined() {
		res, err := l.f(l.snapshot()...)
		if err != nil {
			return nil, err
		}
		l.out.store(res)
	}
	return l.out, nil
}

// asReactive reports whether an argument should be subscribed to. Bare
// Values qualify directly; containers with Values buried inside are
// normalized into a single aggregate Value first. Everything else is a
// fixed constant.
func asReactive(a any) (*Value, bool) {
	if v, ok := a.(*Value); ok {
		return v, true
	}
	if containsValue(a) {
		return EnsureValue(a), true
	}
	return nil, false
}

func containsValue(a any) bool {
	switch a := a.(type) {
	case *Value:
		return true
	case []any:
		for _, e := range a {
			if containsValue(e) {
				return true
			}
		}
	case map[string]any:
		for _, e := range a {
			if containsValue(e) {
				return true
			}
		}
	}
	return false
}

func (l *lifted) allDefined() bool {
	for _, i := range l.reactive {
		if l.args[i].(*Value).Get() == NoValue {
			return false
		}
	}
	return true
}

// snapshot realizes the current argument list: Get() for every reactive
// argument, constants as given.
func (l *lifted) snapshot() []any {
	argv := make([]any, len(l.args))
	copy(argv, l.args)
	for _, i := range l.reactive {
		argv[i] = l.args[i].(*Value).Get()
	}
	return argv
}

func (l *lifted) recompute(trigger int, x any) error {
	argv := l.snapshot()
	argv[trigger] = x
	res, err := l.f(argv...)
	if err != nil {
		return err
	}
	if l.persist {
		return l.out.Set(res)
	}
	return l.out.Emit(res)
}
