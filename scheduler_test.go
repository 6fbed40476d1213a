package yarp_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mossblaser/yarp"
)

// posted work and timers both run on the loop goroutine; task errors reach
// the hook
func TestLoopScheduler(t *testing.T) {
	errs := make(chan error, 1)
	s := yarp.NewLoopScheduler(func(err error) { errs <- err })
	defer s.Stop()

	done := make(chan int, 2)
	s.Do(func() error {
		done <- 1
		return nil
	})
	s.After(10*time.Millisecond, func() error {
		done <- 2
		return nil
	})

	assert.Equal(t, 1, <-done)
	assert.Equal(t, 2, <-done)

	s.Do(func() error { return errors.New("task failed") })
	assert.EqualError(t, <-errs, "task failed")
}

// cancelled loop tasks are skipped
func TestLoopSchedulerCancel(t *testing.T) {
	s := yarp.NewLoopScheduler(nil)
	defer s.Stop()

	fired := make(chan struct{}, 1)
	task := s.After(20*time.Millisecond, func() error {
		fired <- struct{}{}
		return nil
	})
	s.Cancel(task)

	select {
	case <-fired:
		t.Fatal("cancelled task ran")
	case <-time.After(60 * time.Millisecond):
	}
}
