// Package waiter polls a resource until its observed state reaches a target.
//
// Until is the core loop. It differs from retry.Execute in what it reacts to:
// retry.Execute repeats a call that failed, Until repeats a call that
// succeeded but showed the wrong state. Transient fetch failures inside a
// poll are still handed to retry.Execute with the configured policy.
//
// RunComposite issues a mutating call once and then waits on the resource it
// touched.
package waiter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"k8s.io/apimachinery/pkg/util/sets"
)

// FetchFunc reads the current snapshot of the awaited resource. A missing
// resource must be reported with an error classified as retry.KindNotFound.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Predicate reports whether a resource snapshot is in a target state.
type Predicate[T any] func(resource T) bool

// Outcome is the terminal state of a wait.
type Outcome int

const (
	Satisfied Outcome = iota
	TimedOut
	NotFoundSatisfied
	NotFoundFailure
	Failed
	Cancelled
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case Satisfied:
		return "satisfied"
	case TimedOut:
		return "timed_out"
	case NotFoundSatisfied:
		return "not_found_satisfied"
	case NotFoundFailure:
		return "not_found_failure"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Observer receives wait lifecycle events. Implementations must not block.
type Observer interface {
	// OnPoll is called after every poll that did not end the wait.
	OnPoll(name string, poll int, next time.Duration)
	// OnDone is called once with the terminal outcome.
	OnDone(name string, outcome Outcome, polls int, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) OnPoll(string, int, time.Duration)          {}
func (nopObserver) OnDone(string, Outcome, int, time.Duration) {}

// StateIn builds a predicate matching resources whose state, compared
// case-insensitively, is one of states. Empty target strings are ignored, so
// an unknown or blank observed state never satisfies it.
func StateIn[T any](state func(T) string, states ...string) Predicate[T] {
	targets := targetStates(states)

	return func(resource T) bool {
		return targets.Has(strings.ToLower(state(resource)))
	}
}

// targetStates trims and lower-cases states, dropping blank entries.
func targetStates(states []string) sets.Set[string] {
	targets := sets.New[string]()
	for _, s := range states {
		if s = strings.TrimSpace(s); s != "" {
			targets.Insert(strings.ToLower(s))
		}
	}
	return targets
}

// Until polls fetch until done is satisfied.
//
// Behavior:
//   - Satisfied: returns the resource that matched.
//   - Not found: with SucceedOnNotFound returns the zero T and a nil error,
//     otherwise the not-found error. Either way without sleeping again.
//     Callers with a non-pointer T that need to tell a missing resource from
//     a zero-valued one use UntilOutcome.
//   - Other fetch failures: retried under cfg.RetryPolicy, then returned.
//     Fetch retries count against MaxWait: a retry whose backoff would end
//     past it stops the wait with *TimeoutError.
//   - Wrong state: sleeps InitialPollInterval, doubling up to PollIntervalCap.
//     If the next sleep would carry the wait past MaxWait, returns
//     *TimeoutError holding the last observed resource instead.
//   - ctx done while sleeping: returns an error matching retry.ErrCancelled.
func Until[T any](ctx context.Context, fetch FetchFunc[T], done Predicate[T], cfg Config) (T, error) {
	resource, _, err := UntilOutcome(ctx, fetch, done, cfg)
	return resource, err
}

// UntilOutcome is Until that also reports how the wait ended. A nil error
// comes with either Satisfied or NotFoundSatisfied.
func UntilOutcome[T any](ctx context.Context, fetch FetchFunc[T], done Predicate[T], cfg Config) (T, Outcome, error) {
	cfg = cfg.withDefaults()

	var zero, last T
	observed := false
	log := cfg.Logger.With("resource", cfg.Name)
	start := cfg.Clock.Now()
	deadline := start.Add(cfg.MaxWait)
	policy := cfg.fetchPolicy()
	if policy != nil {
		policy = policy.WithDeadline(deadline)
	}
	polls := 0

	finish := func(outcome Outcome) {
		elapsed := cfg.Clock.Now().Sub(start)
		cfg.Observer.OnDone(cfg.Name, outcome, polls, elapsed)
		log.Debug("Wait finished", "outcome", outcome, "polls", polls, "elapsed", elapsed)
	}
	timedOut := func(cause error) *TimeoutError[T] {
		finish(TimedOut)
		return &TimeoutError[T]{
			Name:     cfg.Name,
			Last:     last,
			Observed: observed,
			Polls:    polls,
			Elapsed:  cfg.Clock.Now().Sub(start),
			MaxWait:  cfg.MaxWait,
			Err:      cause,
		}
	}

	for {
		polls++

		// 1. Fetch
		resource, err := retry.ExecuteWithResult(ctx, policy, "waiter.fetch", fetch)
		if err != nil {
			switch {
			case retry.IsNotFound(err) && cfg.SucceedOnNotFound:
				finish(NotFoundSatisfied)
				return zero, NotFoundSatisfied, nil
			case retry.IsNotFound(err):
				finish(NotFoundFailure)
				return zero, NotFoundFailure, err
			case errors.Is(err, retry.ErrCancelled):
				finish(Cancelled)
				return zero, Cancelled, err
			case errors.Is(err, retry.ErrDeadline):
				return zero, TimedOut, timedOut(err)
			default:
				finish(Failed)
				return zero, Failed, err
			}
		}
		last, observed = resource, true

		// 2. Evaluate
		if done(resource) {
			finish(Satisfied)
			return resource, Satisfied, nil
		}

		// 3. Budget check before sleeping
		interval := pollInterval(cfg, polls)
		elapsed := cfg.Clock.Now().Sub(start)
		if elapsed+interval > cfg.MaxWait {
			return zero, TimedOut, timedOut(nil)
		}

		log.Debug("Target state not reached yet", "poll", polls, "next_poll_in", interval, "elapsed", elapsed)
		cfg.Observer.OnPoll(cfg.Name, polls, interval)

		// 4. Sleep
		if err := cfg.Clock.Sleep(ctx, interval); err != nil {
			finish(Cancelled)
			return zero, Cancelled, fmt.Errorf("%w: waiting for %s after %d polls: %w", retry.ErrCancelled, cfg.Name, polls, err)
		}
	}
}

// pollInterval is the sleep after the given poll: exponential from the
// initial interval, capped at PollIntervalCap.
func pollInterval(cfg Config, poll int) time.Duration {
	return min(retry.ExponentialDelay(cfg.InitialPollInterval, 2, poll), cfg.PollIntervalCap)
}
