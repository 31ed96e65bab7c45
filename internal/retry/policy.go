// Package retry drives fallible calls through a bounded exponential backoff.
//
// A Policy is an immutable bundle of budgets (attempts, elapsed time, single
// delay cap), a Classifier deciding which failures are transient, and a
// DelayFunc computing the sleep between attempts. Policies are safe for
// concurrent use; every call to Execute gets its own State.
//
// Failures are classified where they originate by wrapping them with
// Transient, Permanent or NotFound. The default Classifier only retries
// Transient failures.
package retry

import (
	"log/slog"
	"math"
	"time"
)

// Default values.
const (
	DefaultBaseDelay      = 1000 * time.Millisecond
	DefaultGrowthFactor   = 2.0
	DefaultMaxAttempts    = 7
	DefaultMaxElapsed     = 300000 * time.Millisecond
	DefaultMaxSingleDelay = 30000 * time.Millisecond

	// MinBaseDelay is the smallest accepted base delay.
	MinBaseDelay = time.Millisecond
)

// Classifier reports whether a failure is worth another attempt.
type Classifier func(err error) bool

// Not inverts a classifier.
func Not(c Classifier) Classifier {
	return func(err error) bool {
		return !c(err)
	}
}

// All is satisfied only when every classifier is.
func All(cs ...Classifier) Classifier {
	return func(err error) bool {
		for _, c := range cs {
			if !c(err) {
				return false
			}
		}
		return true
	}
}

// Any is satisfied when at least one classifier is.
func Any(cs ...Classifier) Classifier {
	return func(err error) bool {
		for _, c := range cs {
			if c(err) {
				return true
			}
		}
		return false
	}
}

// Observer receives retry lifecycle events. Implementations must not block.
type Observer interface {
	// OnRetry is called before each backoff sleep.
	OnRetry(op string, attempt int, err error, delay time.Duration)
	// OnGiveUp is called when the loop stops on a failure.
	OnGiveUp(op string, attempts int, err error)
	// OnSuccess is called when work succeeds after the given number of failed attempts.
	OnSuccess(op string, failures int)
}

type nopObserver struct{}

func (nopObserver) OnRetry(string, int, error, time.Duration) {}
func (nopObserver) OnGiveUp(string, int, error)               {}
func (nopObserver) OnSuccess(string, int)                     {}

// Policy defines retry behavior. Safe for concurrent use.
type Policy struct {
	baseDelay      time.Duration
	growthFactor   float64
	maxAttempts    int
	hasMaxAttempts bool
	maxElapsed     time.Duration
	hasMaxElapsed  bool
	maxSingleDelay time.Duration
	hasMaxSingle   bool
	deadline       time.Time
	hasDeadline    bool

	classifier    Classifier
	delay         DelayFunc
	clock         Clock
	logger        *slog.Logger
	observer      Observer
	wrapExhausted bool
}

// Option configures a Policy.
type Option func(*Policy)

// WithBaseDelay sets the ceiling of the first backoff sleep.
func WithBaseDelay(d time.Duration) Option {
	return func(p *Policy) { p.baseDelay = d }
}

// WithGrowthFactor sets the multiplier applied to the ceiling per failed attempt.
func WithGrowthFactor(f float64) Option {
	return func(p *Policy) { p.growthFactor = f }
}

// WithMaxAttempts bounds the total number of attempts, the first one included.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		p.maxAttempts = n
		p.hasMaxAttempts = true
	}
}

// WithMaxElapsed stops retrying once this much time has passed since the first attempt.
func WithMaxElapsed(d time.Duration) Option {
	return func(p *Policy) {
		p.maxElapsed = d
		p.hasMaxElapsed = true
	}
}

// WithMaxSingleDelay caps any individual sleep.
func WithMaxSingleDelay(d time.Duration) Option {
	return func(p *Policy) {
		p.maxSingleDelay = d
		p.hasMaxSingle = true
	}
}

// WithClassifier replaces the default IsRetryable classifier.
func WithClassifier(c Classifier) Option {
	return func(p *Policy) { p.classifier = c }
}

// WithDelayFunc replaces the default full-jitter delay.
func WithDelayFunc(f DelayFunc) Option {
	return func(p *Policy) { p.delay = f }
}

// WithClock sets the clock used for elapsed time and sleeping.
func WithClock(c Clock) Option {
	return func(p *Policy) { p.clock = c }
}

// WithLogger sets the logger used for diagnostic tracing.
func WithLogger(l *slog.Logger) Option {
	return func(p *Policy) { p.logger = l }
}

// WithObserver registers lifecycle hooks.
func WithObserver(o Observer) Option {
	return func(p *Policy) { p.observer = o }
}

// WithExhaustedError makes a budget-exhausted loop return *ExhaustedError
// instead of the bare last failure.
func WithExhaustedError() Option {
	return func(p *Policy) { p.wrapExhausted = true }
}

// NewPolicy builds a Policy. Without options it has the default base delay and
// growth factor and no budgets at all. Invalid parameters fail here with
// *ConfigurationError, never at call time.
func NewPolicy(opts ...Option) (*Policy, error) {
	p := &Policy{
		baseDelay:    DefaultBaseDelay,
		growthFactor: DefaultGrowthFactor,
	}
	for _, opt := range opts {
		opt(p)
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	if p.classifier == nil {
		p.classifier = IsRetryable
	}
	if p.delay == nil {
		p.delay = FullJitter(nil)
	}
	if p.clock == nil {
		p.clock = SystemClock()
	}
	if p.logger == nil {
		p.logger = slog.New(slog.DiscardHandler)
	}
	if p.observer == nil {
		p.observer = nopObserver{}
	}
	return p, nil
}

// DefaultOptions returns the budgets of the standard policy: at most 7
// attempts within 5 minutes, no single sleep above 30s.
func DefaultOptions() []Option {
	return []Option{
		WithBaseDelay(DefaultBaseDelay),
		WithGrowthFactor(DefaultGrowthFactor),
		WithMaxAttempts(DefaultMaxAttempts),
		WithMaxElapsed(DefaultMaxElapsed),
		WithMaxSingleDelay(DefaultMaxSingleDelay),
	}
}

// DefaultPolicy returns the standard policy built from DefaultOptions.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(DefaultOptions()...)
	if err != nil {
		// DefaultOptions are constants that always validate.
		panic(err)
	}
	return p
}

func (p *Policy) validate() error {
	if p.baseDelay < MinBaseDelay {
		return &ConfigurationError{Field: "base delay", Value: p.baseDelay, Reason: "must be at least 1ms"}
	}
	if math.IsNaN(p.growthFactor) || math.IsInf(p.growthFactor, 0) || p.growthFactor < 1 {
		return &ConfigurationError{Field: "growth factor", Value: p.growthFactor, Reason: "must be a finite number >= 1"}
	}
	if p.hasMaxAttempts && p.maxAttempts < 1 {
		return &ConfigurationError{Field: "max attempts", Value: p.maxAttempts, Reason: "must be at least 1"}
	}
	if p.hasMaxElapsed && p.maxElapsed < 0 {
		return &ConfigurationError{Field: "max elapsed", Value: p.maxElapsed, Reason: "must not be negative"}
	}
	if p.hasMaxSingle && p.maxSingleDelay < 0 {
		return &ConfigurationError{Field: "max single delay", Value: p.maxSingleDelay, Reason: "must not be negative"}
	}
	return nil
}

// ShouldRetry decides whether another attempt should be made after the
// failure recorded in s.
func (p *Policy) ShouldRetry(s *State) bool {
	if p.hasMaxAttempts && s.Attempts() >= p.maxAttempts {
		return false
	}
	if p.hasMaxElapsed && s.Elapsed() > p.maxElapsed {
		return false
	}

	// A missing failure cannot be classified.
	if s.LastFailure() == nil {
		return false
	}
	return p.classifier(s.LastFailure())
}

// ComputeDelay returns the sleep before the next attempt. Never negative.
func (p *Policy) ComputeDelay(s *State) time.Duration {
	d := p.delay(p, s)
	if d < 0 {
		return 0
	}
	return d
}

// DelayCeiling returns min(max single delay, base * growth^(attempt-1)).
func (p *Policy) DelayCeiling(attempt int) time.Duration {
	d := ExponentialDelay(p.baseDelay, p.growthFactor, attempt)
	if p.hasMaxSingle && d > p.maxSingleDelay {
		return p.maxSingleDelay
	}
	return d
}

// WithClassifier returns a copy of p using c. Budgets are left untouched so
// the copy needs no revalidation.
func (p *Policy) WithClassifier(c Classifier) *Policy {
	cp := *p
	cp.classifier = c
	return &cp
}

// WithDeadline returns a copy of p that gives up with ErrDeadline instead of
// sleeping past t.
func (p *Policy) WithDeadline(t time.Time) *Policy {
	cp := *p
	cp.deadline = t
	cp.hasDeadline = true
	return &cp
}

// Classifier returns the policy's failure classifier.
func (p *Policy) Classifier() Classifier {
	return p.classifier
}

// BaseDelay returns the ceiling of the first sleep.
func (p *Policy) BaseDelay() time.Duration {
	return p.baseDelay
}

// GrowthFactor returns the per-attempt multiplier.
func (p *Policy) GrowthFactor() float64 {
	return p.growthFactor
}

// MaxAttempts returns the attempt budget and whether one is set.
func (p *Policy) MaxAttempts() (int, bool) {
	return p.maxAttempts, p.hasMaxAttempts
}

// MaxElapsed returns the time budget and whether one is set.
func (p *Policy) MaxElapsed() (time.Duration, bool) {
	return p.maxElapsed, p.hasMaxElapsed
}

// MaxSingleDelay returns the per-sleep cap and whether one is set.
func (p *Policy) MaxSingleDelay() (time.Duration, bool) {
	return p.maxSingleDelay, p.hasMaxSingle
}
