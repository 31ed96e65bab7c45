package waiter

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrWaitTimeout matches every *TimeoutError regardless of resource type.
	ErrWaitTimeout = errors.New("waiter: maximum wait time exceeded")

	// ErrPartialSuccess matches every *PartialSuccessError regardless of resource type.
	ErrPartialSuccess = errors.New("waiter: operation succeeded but its target state was not confirmed")
)

// TimeoutError reports that MaxWait elapsed before the target state was observed.
// Last holds the most recent snapshot of the resource; Observed is false when
// no fetch ever succeeded. Err is the fetch failure that was still being
// retried when the budget ran out, nil if the resource was simply never in a
// target state.
type TimeoutError[T any] struct {
	Name     string
	Last     T
	Observed bool
	Polls    int
	Elapsed  time.Duration
	MaxWait  time.Duration
	Err      error
}

func (e *TimeoutError[T]) Error() string {
	msg := fmt.Sprintf("waiting for %s: gave up after %s (%d polls, max wait %s)",
		e.Name, e.Elapsed.Round(time.Millisecond), e.Polls, e.MaxWait)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *TimeoutError[T]) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrWaitTimeout}
	}
	return []error{ErrWaitTimeout, e.Err}
}

// PartialSuccessError is returned by RunComposite when the mutating call
// succeeded but the wait for its target state did not.
type PartialSuccessError[T any] struct {
	ID     string
	Result T
	Err    error
}

func (e *PartialSuccessError[T]) Error() string {
	return fmt.Sprintf("operation on %s succeeded but waiting for its target state failed: %v", e.ID, e.Err)
}

func (e *PartialSuccessError[T]) Unwrap() []error {
	return []error{ErrPartialSuccess, e.Err}
}
