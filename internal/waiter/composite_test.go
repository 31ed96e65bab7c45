package waiter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	mutations int
	fetches   int
	mutateErr error
	states    []string
}

func (s *fakeService) composite() Composite[*resource] {
	return Composite[*resource]{
		Mutate: func(context.Context) (*resource, error) {
			s.mutations++
			if s.mutateErr != nil {
				return nil, s.mutateErr
			}
			return &resource{ID: "res-1", State: "CREATING"}, nil
		},
		ID: func(r *resource) string { return r.ID },
		Fetch: func(_ context.Context, id string) (*resource, error) {
			i := min(s.fetches, len(s.states)-1)
			s.fetches++
			return &resource{ID: id, State: s.states[i]}, nil
		},
		State: stateOf,
	}
}

func TestRunComposite_NoTargetStates(t *testing.T) {
	svc := &fakeService{states: []string{"ACTIVE"}}

	got, err := RunComposite(context.Background(), svc.composite(), nil, testConfig(newFakeClock()))

	require.NoError(t, err)
	assert.Equal(t, "CREATING", got.State, "raw mutation result is returned")
	assert.Equal(t, 1, svc.mutations)
	assert.Equal(t, 0, svc.fetches)
}

func TestRunComposite_BlankTargetStates(t *testing.T) {
	clock := newFakeClock()
	svc := &fakeService{states: []string{"ACTIVE"}}

	got, err := RunComposite(context.Background(), svc.composite(), []string{"", "  "}, testConfig(clock))

	require.NoError(t, err)
	assert.Equal(t, "CREATING", got.State, "raw mutation result is returned")
	assert.Equal(t, 0, svc.fetches)
	assert.Empty(t, clock.sleeps)
}

func TestRunComposite_WaitsForState(t *testing.T) {
	clock := newFakeClock()
	svc := &fakeService{states: []string{"CREATING", "ACTIVE"}}

	got, err := RunComposite(context.Background(), svc.composite(), []string{"active"}, testConfig(clock))

	require.NoError(t, err)
	assert.Equal(t, "ACTIVE", got.State)
	assert.Equal(t, 1, svc.mutations)
	assert.Equal(t, 2, svc.fetches)
	assert.Equal(t, []time.Duration{time.Second}, clock.sleeps)
}

func TestRunComposite_MutationFails(t *testing.T) {
	invalid := retry.Permanent(errors.New("400 bad request"))
	svc := &fakeService{mutateErr: invalid, states: []string{"ACTIVE"}}

	_, err := RunComposite(context.Background(), svc.composite(), []string{"ACTIVE"}, testConfig(newFakeClock()))

	assert.Same(t, invalid, err)
	assert.NotErrorIs(t, err, ErrPartialSuccess)
	assert.Equal(t, 1, svc.mutations)
	assert.Equal(t, 0, svc.fetches)
}

func TestRunComposite_TransientMutationNotRetried(t *testing.T) {
	throttled := retry.Transient(errors.New("429"))
	svc := &fakeService{mutateErr: throttled, states: []string{"ACTIVE"}}
	cfg := testConfig(newFakeClock())
	cfg.RetryPolicy = mustPolicy(t, cfg.Clock, retry.WithMaxAttempts(5))

	_, err := RunComposite(context.Background(), svc.composite(), []string{"ACTIVE"}, cfg)

	assert.Same(t, throttled, err)
	assert.Equal(t, 1, svc.mutations)
}

func TestRunComposite_PartialSuccess(t *testing.T) {
	clock := newFakeClock()
	svc := &fakeService{states: []string{"CREATING"}}
	cfg := testConfig(clock)
	cfg.MaxWait = 5 * time.Second

	_, err := RunComposite(context.Background(), svc.composite(), []string{"ACTIVE"}, cfg)

	var partial *PartialSuccessError[*resource]
	require.ErrorAs(t, err, &partial)
	assert.ErrorIs(t, err, ErrPartialSuccess)
	assert.ErrorIs(t, err, ErrWaitTimeout)
	assert.Equal(t, "res-1", partial.ID)
	assert.Equal(t, "CREATING", partial.Result.State)

	var timeout *TimeoutError[*resource]
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, "CREATING", timeout.Last.State)
	assert.Equal(t, 1, svc.mutations)
}

func TestRunComposite_MissingID(t *testing.T) {
	svc := &fakeService{states: []string{"ACTIVE"}}
	op := svc.composite()
	op.ID = func(*resource) string { return "" }

	_, err := RunComposite(context.Background(), op, []string{"ACTIVE"}, testConfig(newFakeClock()))

	assert.ErrorIs(t, err, ErrPartialSuccess)
	assert.Equal(t, 0, svc.fetches)
}
