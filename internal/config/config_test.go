package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/cloud/openstack"
	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "waitsentry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 2.0, cfg.Retry.GrowthFactor)
	require.NotNil(t, cfg.Retry.MaxAttempts)
	assert.Equal(t, 7, *cfg.Retry.MaxAttempts)
	require.NotNil(t, cfg.Retry.MaxElapsed)
	assert.Equal(t, 5*time.Minute, *cfg.Retry.MaxElapsed)
	require.NotNil(t, cfg.Retry.MaxSingleDelay)
	assert.Equal(t, 30*time.Second, *cfg.Retry.MaxSingleDelay)
	assert.Equal(t, 30*time.Second, cfg.Waiter.PollIntervalCap)
	assert.Equal(t, 20*time.Minute, cfg.Waiter.MaxWait)
	assert.Empty(t, cfg.Jobs)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
cloud: prod
timeout: 15m
retry:
  base-delay: 250ms
  max-attempts: 4
waiter:
  poll-interval-cap: 10s
  max-wait: 5m
webhook:
  url: https://alerts.example.com/hook
jobs:
  - name: db-nightly
    schedule: "0 2 * * *"
    volume-id: vol-1
    wait-for: [available]
    cleanup-on-failure: true
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	assert.Equal(t, "prod", cfg.Cloud)
	assert.Equal(t, 15*time.Minute, cfg.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Retry.BaseDelay)
	assert.Equal(t, 4, *cfg.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.Waiter.PollIntervalCap)
	assert.Equal(t, "https://alerts.example.com/hook", cfg.Webhook.URL)

	require.Len(t, cfg.Jobs, 1)
	assert.Equal(t, "vol-1", cfg.Jobs[0].VolumeID)
	assert.Equal(t, []string{"available"}, cfg.Jobs[0].WaitFor)
	assert.True(t, cfg.Jobs[0].CleanupOnFailure)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("WAITSENTRY_RETRY_MAX_ATTEMPTS", "3")
	t.Setenv("WAITSENTRY_WAITER_MAX_WAIT", "90s")
	t.Setenv("WAITSENTRY_LOG_LEVEL", "debug")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, 3, *cfg.Retry.MaxAttempts)
	assert.Equal(t, 90*time.Second, cfg.Waiter.MaxWait)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "Zero Attempts", body: "retry:\n  max-attempts: 0\n", wantField: "max attempts"},
		{name: "Shrinking Growth", body: "retry:\n  growth-factor: 0.5\n", wantField: "growth factor"},
		{name: "Tiny Base Delay", body: "retry:\n  base-delay: 1us\n", wantField: "base delay"},
		{name: "Zero Max Wait", body: "waiter:\n  max-wait: 0s\n", wantField: "waiter max wait"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, tt.body))

			var cfgErr *retry.ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestLoad_InvalidJobs(t *testing.T) {
	path := writeConfig(t, `
jobs:
  - name: a
    schedule: "* * * * *"
    volume-id: vol-1
  - name: a
    schedule: "* * * * *"
    volume-id: vol-2
`)

	_, err := Load(New(), path)
	assert.ErrorContains(t, err, "duplicate name")
}

func TestLoad_JobWaitDefaults(t *testing.T) {
	path := writeConfig(t, `
jobs:
  - name: default-wait
    schedule: "0 2 * * *"
    volume-id: vol-1
  - name: custom-wait
    schedule: "0 3 * * *"
    volume-id: vol-2
    wait-for: [available, error]
  - name: fire-and-forget
    schedule: "0 4 * * *"
    volume-id: vol-3
    no-wait: true
`)

	cfg, err := Load(New(), path)
	require.NoError(t, err)

	require.Len(t, cfg.Jobs, 3)
	assert.Equal(t, []string{openstack.SnapshotAvailable}, cfg.Jobs[0].WaitFor)
	assert.Equal(t, []string{"available", "error"}, cfg.Jobs[1].WaitFor)
	assert.Empty(t, cfg.Jobs[2].WaitFor)
}

func TestLoad_JobNoWaitConflict(t *testing.T) {
	path := writeConfig(t, `
jobs:
  - name: a
    schedule: "* * * * *"
    volume-id: vol-1
    wait-for: [available]
    no-wait: true
`)

	_, err := Load(New(), path)
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
