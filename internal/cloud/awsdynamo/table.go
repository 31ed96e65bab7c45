package awsdynamo

import (
	"context"
	"fmt"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func tableStatus(t *types.TableDescription) string {
	return string(t.TableStatus)
}

func (c *Client) describe(ctx context.Context, name string) (*types.TableDescription, error) {
	out, err := c.API.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err != nil {
		return nil, classify("describe table "+name, err)
	}
	return out.Table, nil
}

// DescribeTable reads a table description, retrying transient failures.
func (c *Client) DescribeTable(ctx context.Context, name string) (*types.TableDescription, error) {
	return retry.ExecuteWithResult(ctx, c.Policy, "DescribeTable", func(ctx context.Context) (*types.TableDescription, error) {
		return c.describe(ctx, name)
	})
}

// CreateTable creates an on-demand table keyed by a single string hash key
// and, when waitFor is not empty, waits for one of those statuses.
//
// The create call is issued once. A table that was created but never became
// ready is reported as *waiter.PartialSuccessError.
func (c *Client) CreateTable(ctx context.Context, name, hashKey string, waitFor ...string) (*types.TableDescription, error) {
	op := waiter.Composite[*types.TableDescription]{
		Mutate: func(ctx context.Context) (*types.TableDescription, error) {
			out, err := c.API.CreateTable(ctx, &dynamodb.CreateTableInput{
				TableName:   aws.String(name),
				BillingMode: types.BillingModePayPerRequest,
				AttributeDefinitions: []types.AttributeDefinition{
					{AttributeName: aws.String(hashKey), AttributeType: types.ScalarAttributeTypeS},
				},
				KeySchema: []types.KeySchemaElement{
					{AttributeName: aws.String(hashKey), KeyType: types.KeyTypeHash},
				},
			})
			if err != nil {
				return nil, classify("create table "+name, err)
			}
			return out.TableDescription, nil
		},
		ID:    func(t *types.TableDescription) string { return aws.ToString(t.TableName) },
		Fetch: c.describe,
		State: tableStatus,
	}

	return waiter.RunComposite(ctx, op, waitFor, c.waitConfig("table "+name))
}

// DeleteTable deletes a table. A table that does not exist counts as deleted.
// With wait set the call blocks until DescribeTable reports it gone.
func (c *Client) DeleteTable(ctx context.Context, name string, wait bool) error {
	err := retry.Execute(ctx, c.Policy, "DeleteTable", func(ctx context.Context) error {
		_, err := c.API.DeleteTable(ctx, &dynamodb.DeleteTableInput{
			TableName: aws.String(name),
		})
		return classify("delete table "+name, err)
	})
	switch {
	case retry.IsNotFound(err):
		c.logger().Debug("Table already gone", "table", name)
		return nil
	case err != nil:
		return err
	case !wait:
		return nil
	}

	cfg := c.waitConfig("table " + name)
	cfg.SucceedOnNotFound = true

	_, err = waiter.Until(ctx, func(ctx context.Context) (*types.TableDescription, error) {
		return c.describe(ctx, name)
	}, waiter.StateIn(tableStatus), cfg)
	if err != nil {
		return fmt.Errorf("table %s accepted for deletion but still present: %w", name, err)
	}
	return nil
}

// WaitForTableStatus blocks until the table reaches one of states.
func (c *Client) WaitForTableStatus(ctx context.Context, name string, states ...string) (*types.TableDescription, error) {
	return waiter.Until(ctx, func(ctx context.Context) (*types.TableDescription, error) {
		return c.describe(ctx, name)
	}, waiter.StateIn(tableStatus, states...), c.waitConfig("table "+name))
}
