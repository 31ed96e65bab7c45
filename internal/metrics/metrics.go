// Package metrics exports retry and wait lifecycle events to Prometheus.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "waitsentry"

// Metrics implements both retry.Observer and waiter.Observer.
type Metrics struct {
	// Retry executor
	retries     *prometheus.CounterVec   // Retries scheduled by operation
	backoff     *prometheus.HistogramVec // Backoff sleep by operation
	exhausted   *prometheus.CounterVec   // Operations that gave up, by operation and error kind
	completions *prometheus.CounterVec   // Successful operations by operation and whether they recovered

	// Waiter
	polls        prometheus.Counter       // Polls that observed a non-target state
	waits        *prometheus.CounterVec   // Finished waits by outcome
	waitDuration *prometheus.HistogramVec // Wait duration by outcome
}

var (
	_ retry.Observer  = (*Metrics)(nil)
	_ waiter.Observer = (*Metrics)(nil)
)

// New creates the collectors. They are not registered until Register is called.
func New() *Metrics {
	return &Metrics{
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "retries_total",
			Help:      "Retries scheduled after a transient failure",
		}, []string{"operation"}),

		backoff: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "backoff_seconds",
			Help:      "Sleep scheduled before the next attempt",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"operation"}),

		exhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "give_ups_total",
			Help:      "Operations that stopped retrying and returned an error",
		}, []string{"operation", "kind"}),

		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retry",
			Name:      "successes_total",
			Help:      "Operations that eventually succeeded",
		}, []string{"operation", "recovered"}),

		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "waiter",
			Name:      "polls_total",
			Help:      "Polls that observed a state other than the target",
		}),

		waits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "waiter",
			Name:      "waits_total",
			Help:      "Finished waits by outcome",
		}, []string{"outcome"}),

		waitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "waiter",
			Name:      "wait_duration_seconds",
			Help:      "Time from the first poll to the end of the wait",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}, []string{"outcome"}),
	}
}

// Register adds every collector to reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	var errs []error
	for _, c := range []prometheus.Collector{
		m.retries, m.backoff, m.exhausted, m.completions,
		m.polls, m.waits, m.waitDuration,
	} {
		errs = append(errs, reg.Register(c))
	}
	return errors.Join(errs...)
}

func (m *Metrics) OnRetry(op string, _ int, _ error, delay time.Duration) {
	m.retries.WithLabelValues(op).Inc()
	m.backoff.WithLabelValues(op).Observe(delay.Seconds())
}

func (m *Metrics) OnGiveUp(op string, _ int, err error) {
	m.exhausted.WithLabelValues(op, retry.KindOf(err).String()).Inc()
}

func (m *Metrics) OnSuccess(op string, failures int) {
	m.completions.WithLabelValues(op, strconv.FormatBool(failures > 0)).Inc()
}

func (m *Metrics) OnPoll(string, int, time.Duration) {
	m.polls.Inc()
}

func (m *Metrics) OnDone(_ string, outcome waiter.Outcome, _ int, elapsed time.Duration) {
	m.waits.WithLabelValues(outcome.String()).Inc()
	m.waitDuration.WithLabelValues(outcome.String()).Observe(elapsed.Seconds())
}
