package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aravindh-murugesan/waitsentry-go/internal/cloud/awsdynamo"
	"github.com/aravindh-murugesan/waitsentry-go/internal/cloud/openstack"
	"github.com/aravindh-murugesan/waitsentry-go/internal/config"
	"github.com/aravindh-murugesan/waitsentry-go/internal/metrics"
	"github.com/aravindh-murugesan/waitsentry-go/internal/notifications"
	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
)

// Session carries everything one workflow run shares: configuration, a
// logger tagged with the run id, the retry policy and the alert webhook.
type Session struct {
	Config  *config.Config
	Logger  *slog.Logger
	RunID   string
	Policy  *retry.Policy
	Webhook *notifications.Webhook

	observer waiter.Observer
}

// NewSession builds the retry policy from cfg and tags the logger with a
// fresh run id. m may be nil.
func NewSession(cfg *config.Config, logger *slog.Logger, workflowName string, m *metrics.Metrics) (*Session, error) {
	runID := newRunID()
	logger = logger.With("workflow", workflowName, "waitsentry_id", runID)

	opts := []retry.Option{retry.WithLogger(logger)}
	if m != nil {
		opts = append(opts, retry.WithObserver(m))
	}
	policy, err := cfg.Retry.Policy(opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid retry settings: %w", err)
	}

	webhook := &notifications.Webhook{
		URL:      cfg.Webhook.URL,
		Username: cfg.Webhook.Username,
		Password: cfg.Webhook.Password,
		Policy:   policy,
	}

	s := &Session{
		Config:  cfg,
		Logger:  logger,
		RunID:   runID,
		Policy:  policy,
		Webhook: webhook,
	}
	if m != nil {
		s.observer = m
	}
	return s, nil
}

// Context applies the configured global timeout, if any.
func (s *Session) Context(parent context.Context) (context.Context, context.CancelFunc) {
	if s.Config.Timeout > 0 {
		s.Logger.Debug("Global workflow timeout configured", "timeout", s.Config.Timeout)
		return context.WithTimeout(parent, s.Config.Timeout)
	}
	return context.WithCancel(parent)
}

// OpenStack authenticates against the configured clouds.yaml profile.
func (s *Session) OpenStack(ctx context.Context) (*openstack.Client, error) {
	if s.Config.Cloud == "" {
		return nil, fmt.Errorf("required flag(s) \"cloud\" not set")
	}

	client := &openstack.Client{
		ProfileName: s.Config.Cloud,
		Policy:      s.Policy,
		Wait:        s.Config.Waiter,
		Logger:      s.Logger,
		Observer:    s.observer,
	}

	s.Logger.Debug("Attempting to connect to OpenStack", "profile", s.Config.Cloud)
	if err := client.NewClient(ctx); err != nil {
		s.Logger.Error("OpenStack client initialization failed", "error", err)
		return nil, fmt.Errorf("client initialization failed: %w", err)
	}
	s.Logger.Debug("OpenStack connection established successfully", "provider", client.GetCloudProviderName())
	return client, nil
}

// DynamoDB loads the shared AWS configuration.
func (s *Session) DynamoDB(ctx context.Context) (*awsdynamo.Client, error) {
	client := &awsdynamo.Client{
		Region:   s.Config.AWS.Region,
		Policy:   s.Policy,
		Wait:     s.Config.Waiter,
		Logger:   s.Logger,
		Observer: s.observer,
	}
	if err := client.NewClient(ctx); err != nil {
		return nil, fmt.Errorf("client initialization failed: %w", err)
	}
	s.Logger.Debug("AWS configuration loaded", "provider", client.GetCloudProviderName(), "region", s.Config.AWS.Region)
	return client, nil
}

// alert sends a webhook notification, logging instead of failing.
func (s *Session) alert(ctx context.Context, failure notifications.WaitFailure) {
	if !s.Webhook.Enabled() {
		return
	}
	failure.Service = "waitsentry"
	failure.RunID = s.RunID

	if err := s.Webhook.Notify(ctx, failure); err != nil {
		s.Logger.Error("Webhook notification failed", "error", err, "resource_id", failure.ResourceID)
		return
	}
	s.Logger.Debug("Webhook notification sent", "resource_id", failure.ResourceID)
}
