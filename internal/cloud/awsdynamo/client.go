// Package awsdynamo waits on DynamoDB table lifecycle transitions.
//
// The SDK's own retryer is replaced with aws.NopRetryer so that throttling and
// 5xx responses reach the retry package, which owns backoff for every
// provider in this module.
package awsdynamo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aravindh-murugesan/waitsentry-go/internal/cloud"
	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// TableAPI is the subset of *dynamodb.Client used here.
type TableAPI interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	DeleteTable(ctx context.Context, params *dynamodb.DeleteTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteTableOutput, error)
}

// Client runs table operations under a retry policy and a wait budget.
type Client struct {
	// Region overrides the region from the shared AWS config.
	Region string
	// Policy governs transient error handling. Nil disables retries.
	Policy *retry.Policy
	// Wait is the polling budget of every wait this client runs.
	Wait cloud.WaitConfig

	Logger   *slog.Logger
	Observer waiter.Observer
	Clock    retry.Clock

	API TableAPI
}

// GetCloudProviderName returns the identifier for this provider.
func (c *Client) GetCloudProviderName() string {
	return "aws"
}

// NewClient loads the shared AWS configuration and builds the DynamoDB client.
func (c *Client) NewClient(ctx context.Context) error {
	opts := []func(*config.LoadOptions) error{
		config.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	c.API = dynamodb.NewFromConfig(cfg)
	return nil
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

func (c *Client) waitConfig(name string) waiter.Config {
	cfg := c.Wait.Waiter(name, c.Policy, c.logger(), c.Observer)
	cfg.Clock = c.Clock
	return cfg
}
