package retry

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

const maxDuration = time.Duration(math.MaxInt64)

// DelayFunc computes the sleep before the next attempt.
// It must be a pure function of the policy and the state.
type DelayFunc func(p *Policy, s *State) time.Duration

// Source supplies randomness for jitter. *rand.Rand satisfies it.
type Source interface {
	Int64N(n int64) int64
}

// ExponentialDelay returns base * growth^(attempt-1), saturating instead of
// overflowing. Attempts below 1 are treated as the first attempt.
func ExponentialDelay(base time.Duration, growth float64, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 1 {
		attempt = 1
	}

	d := float64(base) * math.Pow(growth, float64(attempt-1))
	if math.IsNaN(d) || d >= float64(maxDuration) {
		return maxDuration
	}
	return time.Duration(d)
}

// FullJitter draws the delay uniformly from [0, p.DelayCeiling(attempts)].
// A nil src uses the process-wide generator. A custom src is serialized
// behind a mutex because policies are shared across goroutines.
func FullJitter(src Source) DelayFunc {
	if src == nil {
		src = globalSource{}
	} else {
		src = &lockedSource{src: src}
	}

	return func(p *Policy, s *State) time.Duration {
		ceiling := p.DelayCeiling(s.Attempts())
		if ceiling <= 0 {
			return 0
		}
		if ceiling == maxDuration {
			return time.Duration(src.Int64N(int64(ceiling)))
		}
		return time.Duration(src.Int64N(int64(ceiling) + 1))
	}
}

// NoJitter always sleeps the full ceiling.
func NoJitter(p *Policy, s *State) time.Duration {
	return p.DelayCeiling(s.Attempts())
}

type globalSource struct{}

func (globalSource) Int64N(n int64) int64 {
	return rand.Int64N(n)
}

type lockedSource struct {
	mu  sync.Mutex
	src Source
}

func (l *lockedSource) Int64N(n int64) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Int64N(n)
}
