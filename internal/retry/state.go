package retry

import (
	"fmt"
	"time"
)

// State tracks the progress of a single retry sequence.
//
// A State is owned by exactly one executor invocation and is never shared,
// so it carries no locking.
type State struct {
	clock       Clock
	attempts    int
	started     bool
	startTime   time.Time
	lastFailure error
}

// NewState returns a fresh, unstarted State reading time from clock.
// A nil clock falls back to the system clock.
func NewState(clock Clock) *State {
	if clock == nil {
		clock = SystemClock()
	}
	return &State{clock: clock}
}

// Start records the start time. It fails with ErrIllegalState on a second call.
func (s *State) Start() error {
	if s.started {
		return fmt.Errorf("%w: retry state already started at %s",
			ErrIllegalState, s.startTime.Format(time.RFC3339Nano))
	}
	s.started = true
	s.startTime = s.clock.Now()
	return nil
}

// Increment counts one more failed attempt.
func (s *State) Increment() {
	s.attempts++
}

// RecordFailure replaces the last observed failure.
func (s *State) RecordFailure(err error) {
	s.lastFailure = err
}

// Attempts returns the number of failed attempts recorded so far.
func (s *State) Attempts() int {
	return s.attempts
}

// StartTime returns the time Start was called, or the zero time before that.
func (s *State) StartTime() time.Time {
	return s.startTime
}

// LastFailure returns the most recently recorded failure, if any.
func (s *State) LastFailure() error {
	return s.lastFailure
}

// Elapsed returns the time since Start. It is zero for an unstarted State.
func (s *State) Elapsed() time.Duration {
	if !s.started {
		return 0
	}
	return s.clock.Now().Sub(s.startTime)
}
