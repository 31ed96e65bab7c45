package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time { return c.now }

func (c *instantClock) Sleep(_ context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return nil
}

func TestRegister(t *testing.T) {
	m := New()
	reg := prometheus.NewRegistry()

	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg), "registering twice collides")
}

func TestMetrics_RetryEvents(t *testing.T) {
	m := New()
	clock := &instantClock{}
	policy, err := retry.NewPolicy(
		retry.WithMaxAttempts(3),
		retry.WithClock(clock),
		retry.WithDelayFunc(retry.NoJitter),
		retry.WithObserver(m),
	)
	require.NoError(t, err)

	calls := 0
	err = retry.Execute(context.Background(), policy, "get", func(context.Context) error {
		calls++
		if calls < 3 {
			return retry.Transient(errors.New("503"))
		}
		return nil
	})
	require.NoError(t, err)

	err = retry.Execute(context.Background(), policy, "delete", func(context.Context) error {
		return retry.Permanent(errors.New("403"))
	})
	require.Error(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.retries.WithLabelValues("get")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completions.WithLabelValues("get", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exhausted.WithLabelValues("delete", retry.KindPermanent.String())))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.retries.WithLabelValues("delete")))
}

func TestMetrics_WaitEvents(t *testing.T) {
	m := New()
	clock := &instantClock{}
	states := []string{"creating", "creating", "available"}
	calls := 0

	_, err := waiter.Until(context.Background(), func(context.Context) (string, error) {
		s := states[calls]
		calls++
		return s, nil
	}, waiter.StateIn(func(s string) string { return s }, "available"), waiter.Config{
		Clock:    clock,
		Observer: m,
	})
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.polls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.waits.WithLabelValues(waiter.Satisfied.String())))
	assert.Equal(t, 1, testutil.CollectAndCount(m.waitDuration))
}
