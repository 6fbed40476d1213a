package yarp

import (
	"fmt"
	"time"
)

// Temporal combinators never block: they register work with the Scheduler
// and return immediately. Duration parameters accept either a plain
// time.Duration or a continuous *Value of time.Duration, in which case the
// pending work is retimed whenever the duration changes.

func durationOf(dv *Value) time.Duration {
	d, ok := dv.Get().(time.Duration)
	if !ok {
		panic(fmt.Sprintf("yarp: duration must be a time.Duration, got %v", dv.Get()))
	}
	return d
}

// Delay republishes every notification of src after d, preserving src's
// mode. Overlapping delays are independent and all eventually fire; nothing
// is cancelled by a newer arrival. For continuous sources the initial
// payload appears on the output immediately, undelayed. Shrinking a
// Value-typed d flushes entries that are already overdue, in order; growing
// it pushes pending entries further out.
func Delay(s Scheduler, src *Value, d any) *Value {
	dv := EnsureValue(d)
	out := NewValue(src.Get())
	traceEdge(src, out)
	traceEdge(dv, out)

	type entry struct {
		at                   time.Time
		persisted, transient any
		task                 *Task
	}
	var pending []*entry

	pop := func() error {
		e := pending[0]
		pending = pending[1:]
		out.store(e.persisted)
		return out.Emit(e.transient)
	}

	src.OnChange(func(x any) error {
		e := &entry{at: s.Now(), persisted: src.Get(), transient: x}
		e.task = s.After(durationOf(dv), pop)
		pending = append(pending, e)
		return nil
	})

	dv.OnChange(func(any) error {
		now := s.Now()
		d := durationOf(dv)
		// Entries are in insertion order: once one is young enough, the
		// rest are younger still.
		for len(pending) > 0 && now.Sub(pending[0].at) >= d {
			s.Cancel(pending[0].task)
			if err := pop(); err != nil {
				return err
			}
		}
		for _, e := range pending {
			s.Cancel(e.task)
			e.task = s.After(e.at.Add(d).Sub(now), pop)
		}
		return nil
	})
	return out
}

// TimeWindow keeps the payloads notified by src within the last d,
// published as a []any (continuous, oldest first). Each entry carries its
// own purge task, so the window also shrinks on a pure timeout with no new
// arrivals. The source is treated as continuous even if it is driven
// transiently.
func TimeWindow(s Scheduler, src *Value, d any) *Value {
	dv := EnsureValue(d)
	out := NewValue([]any{src.Get()})
	traceEdge(src, out)
	traceEdge(dv, out)

	type entry struct {
		at   time.Time
		task *Task
	}
	var timers []*entry

	expire := func() error {
		timers = timers[1:]
		buf := out.Get().([]any)
		return out.Set(buf[1:])
	}
	scheduleExpiry := func() {
		e := &entry{at: s.Now()}
		e.task = s.After(durationOf(dv), expire)
		timers = append(timers, e)
	}

	src.OnChange(func(x any) error {
		buf := out.Get().([]any)
		next := make([]any, len(buf)+1)
		copy(next, buf)
		next[len(buf)] = x
		if err := out.Set(next); err != nil {
			return err
		}
		scheduleExpiry()
		return nil
	})

	dv.OnChange(func(any) error {
		now := s.Now()
		d := durationOf(dv)
		for len(timers) > 0 && now.Sub(timers[0].at) > d {
			s.Cancel(timers[0].task)
			if err := expire(); err != nil {
				return err
			}
		}
		for _, e := range timers {
			s.Cancel(e.task)
			e.task = s.After(e.at.Add(d).Sub(now), expire)
		}
		return nil
	})

	scheduleExpiry()
	return out
}

// RateLimit stops src's changes coming through more often than once per
// minInterval. A change arriving while unblocked passes immediately and
// starts a blockage; changes arriving during a blockage collapse to at most
// one trailing republish of the most recent payload, fired when the
// blockage clears. A continuous source starts out blocked, its initial
// payload having in effect just been published.
func RateLimit(s Scheduler, src *Value, minInterval any) *Value {
	iv := EnsureValue(minInterval)
	out := NewValue(src.Get())
	traceEdge(src, out)
	traceEdge(iv, out)

	var (
		lastValue   any
		lastBlocked bool
		blocked     bool
		blockStart  time.Time
		timer       *Task
	)

	var block func()
	var clearBlockage func() error

	clearBlockage = func() error {
		if lastBlocked {
			out.store(src.Get())
			x := lastValue
			lastValue, lastBlocked = nil, false
			if err := out.Emit(x); err != nil {
				return err
			}
			block()
			return nil
		}
		blocked = false
		timer = nil
		return nil
	}
	block = func() {
		blocked = true
		blockStart = s.Now()
		timer = s.After(durationOf(iv), clearBlockage)
	}

	src.OnChange(func(x any) error {
		if blocked {
			lastValue = x
			lastBlocked = true
			return nil
		}
		out.store(src.Get())
		if err := out.Emit(x); err != nil {
			return err
		}
		block()
		return nil
	})

	iv.OnChange(func(any) error {
		if !blocked {
			return nil
		}
		if s.Now().Sub(blockStart) >= durationOf(iv) {
			s.Cancel(timer)
			return clearBlockage()
		}
		s.Cancel(timer)
		timer = s.After(blockStart.Add(durationOf(iv)).Sub(s.Now()), clearBlockage)
		return nil
	})

	if src.Get() != NoValue {
		block()
	}
	return out
}

// Now returns a continuous Value holding the scheduler's current time,
// refreshed every interval on a drift-free cadence. Changing a Value-typed
// interval restarts the cadence from that moment.
func Now(s Scheduler, interval any) *Value {
	iv := EnsureValue(interval)
	v := NewEmpty()
	traceEdge(iv, v)

	var (
		timer *Task
		next  time.Time
	)
	var update func() error
	update = func() error {
		if err := v.Set(s.Now()); err != nil {
			return err
		}
		next = next.Add(durationOf(iv))
		timer = s.After(next.Sub(s.Now()), update)
		return nil
	}
	next = s.Now()
	update() // no subscribers yet, cannot fail

	iv.OnChange(func(any) error {
		if timer != nil {
			s.Cancel(timer)
		}
		next = s.Now().Add(durationOf(iv))
		timer = s.After(next.Sub(s.Now()), update)
		return nil
	})
	return v
}
