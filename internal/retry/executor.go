package retry

import (
	"context"
	"fmt"
)

// Execute runs work under p.
//
// A nil policy runs work exactly once and returns its error unchanged.
// Otherwise work is retried while p.ShouldRetry allows it, sleeping
// p.ComputeDelay between attempts. The terminal error is the last failure
// itself (or *ExhaustedError wrapping it when the policy asks for that), so
// callers can inspect the true cause with errors.Is / errors.As.
//
// If ctx is done during a sleep the loop stops with an error matching both
// ErrCancelled and the context error. A policy with a deadline stops before a
// sleep that would end past it, with an error matching ErrDeadline and the
// last failure.
func Execute(ctx context.Context, p *Policy, opName string, work func(ctx context.Context) error) error {
	_, err := ExecuteWithResult(ctx, p, opName, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, work(ctx)
	})
	return err
}

// ExecuteWithResult is Execute for work that produces a value.
func ExecuteWithResult[T any](ctx context.Context, p *Policy, opName string, work func(ctx context.Context) (T, error)) (T, error) {
	if p == nil {
		return work(ctx)
	}

	var zero T
	state := NewState(p.clock)
	if err := state.Start(); err != nil {
		return zero, err
	}

	for {
		// 1. Attempt
		result, err := work(ctx)
		if err == nil {
			if state.Attempts() > 0 {
				p.logger.Debug("Operation recovered after retries",
					"operation", opName,
					"failed_attempts", state.Attempts())
			}
			p.observer.OnSuccess(opName, state.Attempts())
			return result, nil
		}

		// 2. Record
		state.Increment()
		state.RecordFailure(err)

		// 3. Decide
		if !p.ShouldRetry(state) {
			p.observer.OnGiveUp(opName, state.Attempts(), err)
			p.logger.Debug("Giving up on operation",
				"operation", opName,
				"attempts", state.Attempts(),
				"elapsed", state.Elapsed(),
				"kind", KindOf(err),
				"error", err)
			return zero, p.terminal(opName, state)
		}

		// 4. Backoff
		delay := p.ComputeDelay(state)
		if p.hasDeadline && p.clock.Now().Add(delay).After(p.deadline) {
			p.observer.OnGiveUp(opName, state.Attempts(), err)
			p.logger.Debug("Giving up on operation, next retry would pass the deadline",
				"operation", opName,
				"attempts", state.Attempts(),
				"delay", delay,
				"deadline", p.deadline,
				"error", err)
			return zero, fmt.Errorf("%w: %s after %d attempts: %w", ErrDeadline, opName, state.Attempts(), err)
		}

		p.logger.Warn("Transient error detected, scheduling retry",
			"operation", opName,
			"attempt", state.Attempts(),
			"delay", delay,
			"error", err)
		p.observer.OnRetry(opName, state.Attempts(), err, delay)

		if sleepErr := p.clock.Sleep(ctx, delay); sleepErr != nil {
			return zero, fmt.Errorf("%w: %s during backoff after %d attempts (last error: %v): %w",
				ErrCancelled, opName, state.Attempts(), err, sleepErr)
		}
	}
}

// terminal picks the error returned when the loop gives up. Only failures the
// classifier still considered retriable ran out of budget.
func (p *Policy) terminal(opName string, s *State) error {
	if !p.wrapExhausted || !p.classifier(s.LastFailure()) {
		return s.LastFailure()
	}
	return &ExhaustedError{
		Op:       opName,
		Attempts: s.Attempts(),
		Elapsed:  s.Elapsed(),
		Err:      s.LastFailure(),
	}
}
