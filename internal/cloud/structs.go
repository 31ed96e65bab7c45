package cloud

import (
	"log/slog"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
)

// RetryConfig defines the parameters for the exponential backoff and retry mechanism.
// It allows fine-tuning of how aggressive the system should be when handling transient errors.
//
// Pointer fields are optional budgets: nil means "no limit" for MaxAttempts,
// MaxElapsed and MaxSingleDelay.
type RetryConfig struct {
	// BaseDelay is the ceiling of the first retry sleep.
	BaseDelay time.Duration `mapstructure:"base-delay"`

	// GrowthFactor multiplies the ceiling on every further attempt.
	GrowthFactor float64 `mapstructure:"growth-factor"`

	// MaxAttempts is the total number of attempts, the first one included.
	MaxAttempts *int `mapstructure:"max-attempts"`

	// MaxElapsed stops retrying once this much time has passed since the first attempt.
	MaxElapsed *time.Duration `mapstructure:"max-elapsed"`

	// MaxSingleDelay caps any one sleep between attempts.
	MaxSingleDelay *time.Duration `mapstructure:"max-single-delay"`

	// Disabled turns retries off: every call runs exactly once.
	Disabled bool `mapstructure:"disabled"`
}

// DefaultRetryConfig mirrors retry.DefaultPolicy.
func DefaultRetryConfig() RetryConfig {
	attempts := retry.DefaultMaxAttempts
	elapsed := retry.DefaultMaxElapsed
	single := retry.DefaultMaxSingleDelay
	return RetryConfig{
		BaseDelay:      retry.DefaultBaseDelay,
		GrowthFactor:   retry.DefaultGrowthFactor,
		MaxAttempts:    &attempts,
		MaxElapsed:     &elapsed,
		MaxSingleDelay: &single,
	}
}

// Policy builds the retry policy described by the config. Extra options are
// applied after the configured ones, so callers can inject a logger or an
// observer. A disabled config yields a nil policy, which retry.Execute runs once.
func (c RetryConfig) Policy(opts ...retry.Option) (*retry.Policy, error) {
	if c.Disabled {
		return nil, nil
	}

	all := []retry.Option{
		retry.WithBaseDelay(c.BaseDelay),
		retry.WithGrowthFactor(c.GrowthFactor),
	}
	if c.MaxAttempts != nil {
		all = append(all, retry.WithMaxAttempts(*c.MaxAttempts))
	}
	if c.MaxElapsed != nil {
		all = append(all, retry.WithMaxElapsed(*c.MaxElapsed))
	}
	if c.MaxSingleDelay != nil {
		all = append(all, retry.WithMaxSingleDelay(*c.MaxSingleDelay))
	}

	return retry.NewPolicy(append(all, opts...)...)
}

// WaitConfig holds the polling budget shared by every wait of a run.
type WaitConfig struct {
	// PollIntervalCap bounds the sleep between polls.
	PollIntervalCap time.Duration `mapstructure:"poll-interval-cap"`

	// MaxWait is the total time budget of one wait.
	MaxWait time.Duration `mapstructure:"max-wait"`

	// InitialPollInterval is the first sleep between polls.
	InitialPollInterval time.Duration `mapstructure:"initial-poll-interval"`
}

// DefaultWaitConfig returns a 30s poll cap and a 20 minute budget.
func DefaultWaitConfig() WaitConfig {
	return WaitConfig{
		PollIntervalCap:     waiter.DefaultPollIntervalCap,
		MaxWait:             waiter.DefaultMaxWait,
		InitialPollInterval: waiter.DefaultInitialPollInterval,
	}
}

// Waiter returns the per-call waiter configuration for the named resource.
func (c WaitConfig) Waiter(name string, policy *retry.Policy, logger *slog.Logger, observer waiter.Observer) waiter.Config {
	return waiter.Config{
		Name:                name,
		PollIntervalCap:     c.PollIntervalCap,
		MaxWait:             c.MaxWait,
		InitialPollInterval: c.InitialPollInterval,
		RetryPolicy:         policy,
		Logger:              logger,
		Observer:            observer,
	}
}
