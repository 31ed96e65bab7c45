package retry

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stateWithAttempts(n int) *State {
	s := NewState(newFakeClock())
	for range n {
		s.Increment()
	}
	return s
}

func TestExponentialDelay(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Duration
		growth  float64
		attempt int
		want    time.Duration
	}{
		{name: "First Attempt", base: time.Second, growth: 2, attempt: 1, want: time.Second},
		{name: "Third Attempt", base: time.Second, growth: 2, attempt: 3, want: 4 * time.Second},
		{name: "Growth One Is Constant", base: time.Second, growth: 1, attempt: 10, want: time.Second},
		{name: "Fractional Growth", base: time.Second, growth: 1.5, attempt: 3, want: 2250 * time.Millisecond},
		{name: "Zero Attempt Treated As First", base: time.Second, growth: 2, attempt: 0, want: time.Second},
		{name: "Saturates", base: time.Second, growth: 2, attempt: 200, want: maxDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExponentialDelay(tt.base, tt.growth, tt.attempt))
		})
	}
}

func TestFullJitter_Bounds(t *testing.T) {
	caps := []struct {
		name string
		opts []Option
	}{
		{name: "Uncapped"},
		{name: "Capped At 5s", opts: []Option{WithMaxSingleDelay(5 * time.Second)}},
		{name: "Capped At Zero", opts: []Option{WithMaxSingleDelay(0)}},
	}

	for _, c := range caps {
		for _, growth := range []float64{1, 1.5, 2, 3} {
			for _, base := range []time.Duration{time.Millisecond, 250 * time.Millisecond, time.Second} {
				opts := append([]Option{
					WithBaseDelay(base),
					WithGrowthFactor(growth),
					WithDelayFunc(FullJitter(rand.New(rand.NewPCG(7, 11)))),
				}, c.opts...)
				p, err := NewPolicy(opts...)
				require.NoError(t, err)

				for attempt := 1; attempt <= 40; attempt++ {
					ceiling := p.DelayCeiling(attempt)
					for range 5 {
						d := p.ComputeDelay(stateWithAttempts(attempt))
						assert.GreaterOrEqual(t, d, time.Duration(0), c.name)
						assert.LessOrEqual(t, d, ceiling, c.name)
					}
				}
			}
		}
	}
}

func TestFullJitter_Deterministic(t *testing.T) {
	build := func() *Policy {
		p, err := NewPolicy(WithDelayFunc(FullJitter(rand.New(rand.NewPCG(42, 42)))))
		require.NoError(t, err)
		return p
	}
	a, b := build(), build()

	for attempt := 1; attempt <= 10; attempt++ {
		assert.Equal(t, a.ComputeDelay(stateWithAttempts(attempt)), b.ComputeDelay(stateWithAttempts(attempt)))
	}
}

func TestDelayCeiling(t *testing.T) {
	p, err := NewPolicy(WithMaxSingleDelay(30 * time.Second))
	require.NoError(t, err)

	assert.Equal(t, time.Second, p.DelayCeiling(1))
	assert.Equal(t, 16*time.Second, p.DelayCeiling(5))
	assert.Equal(t, 30*time.Second, p.DelayCeiling(6))
	assert.Equal(t, 30*time.Second, p.DelayCeiling(1000))
}

func TestNoJitter(t *testing.T) {
	p, err := NewPolicy(WithDelayFunc(NoJitter), WithMaxSingleDelay(3*time.Second))
	require.NoError(t, err)

	assert.Equal(t, time.Second, p.ComputeDelay(stateWithAttempts(1)))
	assert.Equal(t, 2*time.Second, p.ComputeDelay(stateWithAttempts(2)))
	assert.Equal(t, 3*time.Second, p.ComputeDelay(stateWithAttempts(3)))
}

func TestComputeDelay_NeverNegative(t *testing.T) {
	negative := func(*Policy, *State) time.Duration { return -time.Second }
	p, err := NewPolicy(WithDelayFunc(negative))
	require.NoError(t, err)

	assert.Equal(t, time.Duration(0), p.ComputeDelay(stateWithAttempts(1)))
}
