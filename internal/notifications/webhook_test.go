package notifications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type instantClock struct{ now time.Time }

func (c *instantClock) Now() time.Time { return c.now }

func (c *instantClock) Sleep(ctx context.Context, d time.Duration) error {
	c.now = c.now.Add(d)
	return ctx.Err()
}

func testPolicy(t *testing.T) *retry.Policy {
	t.Helper()
	p, err := retry.NewPolicy(
		retry.WithMaxAttempts(3),
		retry.WithClock(&instantClock{}),
		retry.WithDelayFunc(retry.NoJitter),
	)
	require.NoError(t, err)
	return p
}

func TestNotify_RetriesUnavailable(t *testing.T) {
	var calls atomic.Int32
	var got WaitFailure

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "alice", user)
		assert.Equal(t, "secret", pass)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := &Webhook{URL: srv.URL, Username: "alice", Password: "secret", Policy: testPolicy(t)}
	err := hook.Notify(context.Background(), WaitFailure{
		Service:    "waitsentry",
		ResourceID: "snap-1",
		WaitFor:    []string{"available"},
	})

	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "snap-1", got.ResourceID)
	assert.Equal(t, []string{"available"}, got.WaitFor)
}

func TestNotify_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	hook := &Webhook{URL: srv.URL, Policy: testPolicy(t)}
	err := hook.Notify(context.Background(), WaitFailure{ResourceID: "snap-1"})

	var classified *retry.Error
	require.ErrorAs(t, err, &classified)
	assert.Equal(t, http.StatusUnauthorized, classified.StatusCode)
	assert.Equal(t, retry.KindPermanent, classified.Kind)
	assert.Equal(t, int32(1), calls.Load())
}

func TestEnabled(t *testing.T) {
	var nilHook *Webhook
	assert.False(t, nilHook.Enabled())
	assert.False(t, (&Webhook{}).Enabled())
	assert.True(t, (&Webhook{URL: "http://example.com"}).Enabled())
}
