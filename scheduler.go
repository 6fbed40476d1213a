package yarp

import (
	"container/heap"
	"sync"
	"time"
)

// Scheduler is the cooperative timer source the temporal combinators hang
// their pending work on. Implementations must run tasks one at a time in
// expiry order, ties broken by scheduling order, on the same logical thread
// as graph propagation.
type Scheduler interface {
	Now() time.Time
	After(d time.Duration, fn func() error) *Task
	Cancel(t *Task)
}

// Task is a handle to pending scheduled work, usable only with the
// Scheduler that produced it.
type Task struct {
	when      time.Time
	seq       uint64
	fn        func() error
	index     int
	cancelled bool
}

type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if !h[i].when.Equal(h[j].when) {
		return h[i].when.Before(h[j].when)
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *taskHeap) Push(x any) {
	t := x.(*Task)
	t.index = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() any {
	old := *h
	t := old[len(old)-1]
	old[len(old)-1] = nil
	t.index = -1
	*h = old[:len(old)-1]
	return t
}

// VirtualScheduler is a manually advanced clock for tests and simulations.
// Time only moves when Advance or AdvanceTo is called; due tasks run
// synchronously during that call with Now() pinned to each task's expiry.
type VirtualScheduler struct {
	now   time.Time
	seq   uint64
	tasks taskHeap
}

func NewVirtualScheduler() *VirtualScheduler {
	return &VirtualScheduler{now: time.Unix(0, 0)}
}

func (s *VirtualScheduler) Now() time.Time { return s.now }

func (s *VirtualScheduler) After(d time.Duration, fn func() error) *Task {
	t := &Task{when: s.now.Add(d), seq: s.seq, fn: fn}
	s.seq++
	heap.Push(&s.tasks, t)
	return t
}

func (s *VirtualScheduler) Cancel(t *Task) { t.cancelled = true }

// Advance moves the clock forward by d, running every task due in the
// interval. The first task error stops the run and is returned with the
// clock left at the failing task's expiry.
func (s *VirtualScheduler) Advance(d time.Duration) error {
	return s.AdvanceTo(s.now.Add(d))
}

// AdvanceTo is Advance with an absolute deadline.
func (s *VirtualScheduler) AdvanceTo(deadline time.Time) error {
	for len(s.tasks) > 0 && !s.tasks[0].when.After(deadline) {
		t := heap.Pop(&s.tasks).(*Task)
		if t.cancelled {
			continue
		}
		s.now = t.when
		if err := t.fn(); err != nil {
			return err
		}
	}
	s.now = deadline
	return nil
}

// Pending reports the number of live (uncancelled) scheduled tasks.
func (s *VirtualScheduler) Pending() int {
	n := 0
	for _, t := range s.tasks {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// LoopScheduler runs tasks against the wall clock on a single goroutine,
// giving temporal combinators the cooperative single thread they require.
// Graph mutations made while a LoopScheduler is live must be posted onto
// the loop with Do rather than performed directly. Task errors have no
// caller to unwind to, so they are handed to the onError hook.
type LoopScheduler struct {
	mu      sync.Mutex
	seq     uint64
	tasks   taskHeap
	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	onError func(error)
}

func NewLoopScheduler(onError func(error)) *LoopScheduler {
	s := &LoopScheduler{
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		onError: onError,
	}
	go s.run()
	return s
}

func (s *LoopScheduler) Now() time.Time { return time.Now() }

func (s *LoopScheduler) After(d time.Duration, fn func() error) *Task {
	s.mu.Lock()
	t := &Task{when: time.Now().Add(d), seq: s.seq, fn: fn}
	s.seq++
	heap.Push(&s.tasks, t)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return t
}

func (s *LoopScheduler) Cancel(t *Task) {
	s.mu.Lock()
	t.cancelled = true
	s.mu.Unlock()
}

// Do posts fn onto the loop, behind any already-due tasks.
func (s *LoopScheduler) Do(fn func() error) { s.After(0, fn) }

// Stop shuts the loop down and waits for it to finish. Pending tasks are
// discarded.
func (s *LoopScheduler) Stop() {
	close(s.done)
	<-s.stopped
}

func (s *LoopScheduler) run() {
	defer close(s.stopped)
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		s.mu.Lock()
		var next *Task
		for len(s.tasks) > 0 {
			if s.tasks[0].cancelled {
				heap.Pop(&s.tasks)
				continue
			}
			next = s.tasks[0]
			break
		}
		var due *Task
		if next != nil && !next.when.After(time.Now()) {
			due = heap.Pop(&s.tasks).(*Task)
		}
		s.mu.Unlock()

		if due != nil {
			if err := due.fn(); err != nil && s.onError != nil {
				s.onError(err)
			}
			continue
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		if next != nil {
			timer.Reset(time.Until(next.when))
		} else {
			timer.Reset(time.Hour)
		}

		select {
		case <-s.done:
			return
		case <-s.wake:
		case <-timer.C:
		}
	}
}
