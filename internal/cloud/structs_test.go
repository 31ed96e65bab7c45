package cloud

import (
	"errors"
	"testing"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryConfig_Policy(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		p, err := DefaultRetryConfig().Policy()
		require.NoError(t, err)

		attempts, ok := p.MaxAttempts()
		assert.True(t, ok)
		assert.Equal(t, 7, attempts)

		elapsed, ok := p.MaxElapsed()
		assert.True(t, ok)
		assert.Equal(t, 5*time.Minute, elapsed)

		single, ok := p.MaxSingleDelay()
		assert.True(t, ok)
		assert.Equal(t, 30*time.Second, single)

		assert.Equal(t, time.Second, p.BaseDelay())
		assert.Equal(t, 2.0, p.GrowthFactor())
	})

	t.Run("Unbounded Budgets", func(t *testing.T) {
		cfg := RetryConfig{BaseDelay: 50 * time.Millisecond, GrowthFactor: 1.5}
		p, err := cfg.Policy()
		require.NoError(t, err)

		_, ok := p.MaxAttempts()
		assert.False(t, ok)
		_, ok = p.MaxElapsed()
		assert.False(t, ok)
		_, ok = p.MaxSingleDelay()
		assert.False(t, ok)
	})

	t.Run("Disabled", func(t *testing.T) {
		cfg := DefaultRetryConfig()
		cfg.Disabled = true
		p, err := cfg.Policy()
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("Invalid", func(t *testing.T) {
		zero := 0
		cfg := DefaultRetryConfig()
		cfg.MaxAttempts = &zero

		_, err := cfg.Policy()
		var cfgErr *retry.ConfigurationError
		require.True(t, errors.As(err, &cfgErr))
		assert.Equal(t, "max attempts", cfgErr.Field)
	})
}

func TestWaitConfig_Waiter(t *testing.T) {
	wc := DefaultWaitConfig()
	p := retry.DefaultPolicy()

	cfg := wc.Waiter("snapshot snap-1", p, nil, nil)

	assert.Equal(t, "snapshot snap-1", cfg.Name)
	assert.Equal(t, 30*time.Second, cfg.PollIntervalCap)
	assert.Equal(t, 20*time.Minute, cfg.MaxWait)
	assert.Equal(t, time.Second, cfg.InitialPollInterval)
	assert.Same(t, p, cfg.RetryPolicy)
	assert.False(t, cfg.SucceedOnNotFound)
}
