// Package yarp is a reactive value graph: declare computed values as
// functions of other values and the minimum set of functions is re-executed
// whenever an upstream value changes.
//
// A Value carries either a continuous payload (durable, readable at any
// time via Get) or instantaneous payloads (momentary events delivered to
// subscribers via Emit and never stored). The distinction is a usage
// convention of the producer, not a type: combinators mirror whichever mode
// their source uses onto their output.
package yarp

// NoValue is the payload of a Value which has never been persisted. It is
// an ordinary (comparable) payload as far as the graph is concerned;
// reading an unset or instantaneous Value yields NoValue rather than an
// error.
var NoValue = noValue{}

type noValue struct{}

func (noValue) String() string { return "NoValue" }

// Callback receives each notified payload. A non-nil error aborts the
// remaining subscribers of the notifying Value and unwinds synchronously to
// whichever Set or Emit call triggered the propagation. There is no
// isolation between subscribers.
type Callback func(v any) error

// Value is the node type of the graph: an optional persisted payload plus
// an ordered list of subscribers. All methods assume the single logical
// thread of control described in the package documentation; none are safe
// for concurrent use.
type Value struct {
	payload   any
	callbacks []Callback
}

// NewValue returns a continuous Value holding initial.
func NewValue(initial any) *Value {
	v := &Value{payload: initial}
	traceNode(v)
	return v
}

// NewEmpty returns a Value with no payload. It reads as NoValue until a
// Set, and is the usual root for instantaneous event streams.
func NewEmpty() *Value {
	v := &Value{payload: NoValue}
	traceNode(v)
	return v
}

// Get returns the persisted payload, or NoValue if none has ever been set.
// It never notifies and never fails.
func (v *Value) Get() any { return v.payload }

// Set overwrites the persisted payload and synchronously notifies every
// subscriber with it, in registration order, before returning. Subscribers
// may themselves call Set or Emit on any Value, including this one; such
// nested propagation completes on the call stack before the outer Set
// returns.
func (v *Value) Set(x any) error {
	v.payload = x
	return v.Emit(x)
}

// Emit notifies every subscriber with x without touching the persisted
// payload. Subscribers registered by a callback during the notification do
// not receive it.
func (v *Value) Emit(x any) error {
	cbs := v.callbacks
	for _, cb := range cbs {
		if err := cb(x); err != nil {
			return err
		}
	}
	return nil
}

// OnChange registers cb to be called with every notified payload, whether
// persisted or transient. Callbacks cannot be removed; they live as long as
// the Value does.
func (v *Value) OnChange(cb Callback) {
	v.callbacks = append(v.callbacks, cb)
}

// store overwrites the persisted payload without notifying anyone. Used by
// combinators to mirror a source's continuous state onto a derived Value
// without that mirroring counting as an observable change.
func (v *Value) store(x any) { v.payload = x }
