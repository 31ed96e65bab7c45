package waiter

import (
	"log/slog"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
)

// Default values.
const (
	DefaultPollIntervalCap     = 30 * time.Second
	DefaultMaxWait             = 1200 * time.Second
	DefaultInitialPollInterval = time.Second
)

// Config describes a single wait. It is per call and never shared.
type Config struct {
	// Name identifies the awaited resource in logs, e.g. "snapshot 3f2a...".
	Name string

	// PollIntervalCap bounds the sleep between polls that observed the wrong state.
	PollIntervalCap time.Duration

	// MaxWait is the total time budget for the wait.
	MaxWait time.Duration

	// InitialPollInterval is the first sleep; it doubles per poll up to PollIntervalCap.
	InitialPollInterval time.Duration

	// SucceedOnNotFound turns a not-found fetch into a successful wait.
	SucceedOnNotFound bool

	// RetryPolicy governs transient fetch failures. Nil means the first
	// failed fetch ends the wait. Not-found failures are never retried.
	RetryPolicy *retry.Policy

	Clock    retry.Clock
	Logger   *slog.Logger
	Observer Observer
}

// DefaultConfig returns the standard wait: 30s poll cap, 20 minute budget,
// fetch failures retried under retry.DefaultPolicy.
func DefaultConfig() Config {
	return Config{
		PollIntervalCap:     DefaultPollIntervalCap,
		MaxWait:             DefaultMaxWait,
		InitialPollInterval: DefaultInitialPollInterval,
		RetryPolicy:         retry.DefaultPolicy(),
	}
}

func (c Config) withDefaults() Config {
	if c.PollIntervalCap <= 0 {
		c.PollIntervalCap = DefaultPollIntervalCap
	}
	if c.MaxWait <= 0 {
		c.MaxWait = DefaultMaxWait
	}
	if c.InitialPollInterval <= 0 {
		c.InitialPollInterval = DefaultInitialPollInterval
	}
	if c.InitialPollInterval > c.PollIntervalCap {
		c.InitialPollInterval = c.PollIntervalCap
	}
	if c.Clock == nil {
		c.Clock = retry.SystemClock()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Observer == nil {
		c.Observer = nopObserver{}
	}
	if c.Name == "" {
		c.Name = "resource"
	}
	return c
}

// fetchPolicy strips not-found failures from whatever the policy would retry.
func (c Config) fetchPolicy() *retry.Policy {
	if c.RetryPolicy == nil {
		return nil
	}
	return c.RetryPolicy.WithClassifier(retry.All(retry.Not(retry.IsNotFound), c.RetryPolicy.Classifier()))
}
