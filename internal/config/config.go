// Package config loads waitsentry settings from a YAML file, WAITSENTRY_*
// environment variables and bound command line flags.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/cloud"
	"github.com/aravindh-murugesan/waitsentry-go/internal/cloud/openstack"
	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "WAITSENTRY"

// Config is the fully resolved runtime configuration.
type Config struct {
	Cloud    string        `mapstructure:"cloud"`
	LogLevel string        `mapstructure:"log-level"`
	Timeout  time.Duration `mapstructure:"timeout"`

	Retry   cloud.RetryConfig `mapstructure:"retry"`
	Waiter  cloud.WaitConfig  `mapstructure:"waiter"`
	Webhook Webhook           `mapstructure:"webhook"`
	AWS     AWS               `mapstructure:"aws"`
	Daemon  Daemon            `mapstructure:"daemon"`
	Jobs    []Job             `mapstructure:"jobs"`
}

// Webhook is the alert endpoint for operations that succeeded but never
// reached their target state.
type Webhook struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type AWS struct {
	Region string `mapstructure:"region"`
}

type Daemon struct {
	BindAddress    string `mapstructure:"bind-address"`
	MetricsAddress string `mapstructure:"metrics-address"`
}

// Job is a scheduled snapshot of one volume. Like snapshot create, a job
// waits for the snapshot to become available unless it names other
// WaitFor states or sets NoWait.
type Job struct {
	Name         string   `mapstructure:"name"`
	Schedule     string   `mapstructure:"schedule"`
	VolumeID     string   `mapstructure:"volume-id"`
	SnapshotName string   `mapstructure:"snapshot-name"`
	WaitFor      []string `mapstructure:"wait-for"`
	NoWait       bool     `mapstructure:"no-wait"`
	// CleanupOnFailure deletes a snapshot that was created but never became ready.
	CleanupOnFailure bool `mapstructure:"cleanup-on-failure"`
}

// New returns a viper instance wired for WAITSENTRY_* env vars with all
// defaults registered. Nested keys map to env names by replacing "." and "-"
// with "_", e.g. WAITSENTRY_RETRY_MAX_ATTEMPTS.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// SetDefaults registers every known key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("cloud", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("timeout", time.Duration(0))

	v.SetDefault("retry.base-delay", retry.DefaultBaseDelay)
	v.SetDefault("retry.growth-factor", retry.DefaultGrowthFactor)
	v.SetDefault("retry.max-attempts", retry.DefaultMaxAttempts)
	v.SetDefault("retry.max-elapsed", retry.DefaultMaxElapsed)
	v.SetDefault("retry.max-single-delay", retry.DefaultMaxSingleDelay)
	v.SetDefault("retry.disabled", false)

	v.SetDefault("waiter.poll-interval-cap", waiter.DefaultPollIntervalCap)
	v.SetDefault("waiter.max-wait", waiter.DefaultMaxWait)
	v.SetDefault("waiter.initial-poll-interval", waiter.DefaultInitialPollInterval)

	v.SetDefault("webhook.url", "")
	v.SetDefault("webhook.username", "")
	v.SetDefault("webhook.password", "")

	v.SetDefault("aws.region", "")

	v.SetDefault("daemon.bind-address", "0.0.0.0:8080")
	v.SetDefault("daemon.metrics-address", "0.0.0.0:9090")
}

// Load reads the optional config file at path and decodes everything into a
// Config. Invalid retry settings fail here as *retry.ConfigurationError.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyJobDefaults()
	return &cfg, nil
}

func (c *Config) applyJobDefaults() {
	for i := range c.Jobs {
		if !c.Jobs[i].NoWait && len(c.Jobs[i].WaitFor) == 0 {
			c.Jobs[i].WaitFor = []string{openstack.SnapshotAvailable}
		}
	}
}

// Validate checks settings that would otherwise only fail at call time.
func (c *Config) Validate() error {
	if _, err := c.Retry.Policy(); err != nil {
		return fmt.Errorf("invalid retry settings: %w", err)
	}

	if c.Waiter.PollIntervalCap <= 0 {
		return &retry.ConfigurationError{Field: "waiter poll interval cap", Value: c.Waiter.PollIntervalCap, Reason: "must be positive"}
	}
	if c.Waiter.MaxWait <= 0 {
		return &retry.ConfigurationError{Field: "waiter max wait", Value: c.Waiter.MaxWait, Reason: "must be positive"}
	}

	seen := make(map[string]bool, len(c.Jobs))
	for i, job := range c.Jobs {
		switch {
		case job.Name == "":
			return fmt.Errorf("job %d: name is required", i)
		case seen[job.Name]:
			return fmt.Errorf("job %q: duplicate name", job.Name)
		case job.Schedule == "":
			return fmt.Errorf("job %q: schedule is required", job.Name)
		case job.VolumeID == "":
			return fmt.Errorf("job %q: volume-id is required", job.Name)
		case job.NoWait && len(job.WaitFor) > 0:
			return fmt.Errorf("job %q: no-wait and wait-for are mutually exclusive", job.Name)
		}
		seen[job.Name] = true
	}
	return nil
}
