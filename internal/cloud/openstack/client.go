package openstack

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aravindh-murugesan/waitsentry-go/internal/cloud"
	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack"
	"github.com/gophercloud/utils/v2/openstack/clientconfig"
)

// Client manages the connection to the OpenStack Block Storage service.
// Every API call it makes is classified at the HTTP boundary and retried
// under Policy; every wait polls under Wait.
type Client struct {
	// ProfileName corresponds to the entry in clouds.yaml
	ProfileName string
	// Policy governs transient error handling. Nil disables retries.
	Policy *retry.Policy
	// Wait is the polling budget of every wait this client runs.
	Wait cloud.WaitConfig

	Logger   *slog.Logger
	Observer waiter.Observer
	// Clock drives the waits. Nil uses the system clock.
	Clock retry.Clock

	// Internal service clients
	BlockStorageClient *gophercloud.ServiceClient
}

// GetCloudProviderName returns the identifier for this provider.
func (c *Client) GetCloudProviderName() string {
	return "openstack"
}

// NewClient authenticates the configured ProfileName and initializes the
// Block Storage v3 (Cinder) client. Authentication is retried on transient
// failures.
func (c *Client) NewClient(ctx context.Context) error {
	c.logger().Debug("Initializing OpenStack client", "profile", c.ProfileName)

	opts := &clientconfig.ClientOpts{
		Cloud: c.ProfileName,
	}

	// 1. Establish Connection & Authentication
	provider, err := retry.ExecuteWithResult(ctx, c.Policy, "openstack.authenticate",
		func(ctx context.Context) (*gophercloud.ProviderClient, error) {
			p, err := clientconfig.AuthenticatedClient(ctx, opts)
			return p, classify("authenticate", err)
		})
	if err != nil {
		return fmt.Errorf("authentication failed for profile '%s': %w", c.ProfileName, err)
	}

	// Parse the cloud config yaml file
	cloudConfig, err := clientconfig.GetCloudFromYAML(opts)
	if err != nil {
		return fmt.Errorf("failed to parse cloud config: %w", err)
	}

	// Get Endpoint type
	var availability gophercloud.Availability
	switch cloudConfig.EndpointType {
	case "internal":
		availability = gophercloud.AvailabilityInternal
	case "admin":
		availability = gophercloud.AvailabilityAdmin
	default:
		availability = gophercloud.AvailabilityPublic
	}

	// 2. Initialize Block Storage (Cinder) Client
	blockStorage, err := openstack.NewBlockStorageV3(provider, gophercloud.EndpointOpts{
		Availability: availability,
		Region:       cloudConfig.RegionName,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize Block Storage v3 client: %w", err)
	}

	c.BlockStorageClient = blockStorage
	return nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// waitConfig builds the waiter configuration for one resource.
func (c *Client) waitConfig(name string) waiter.Config {
	cfg := c.Wait.Waiter(name, c.Policy, c.logger(), c.Observer)
	cfg.Clock = c.Clock
	return cfg
}
