package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/notifications"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// RunCreateTable creates an on-demand DynamoDB table and waits for waitFor.
func RunCreateTable(ctx context.Context, s *Session, name, hashKey string, waitFor []string) error {
	ctx, cancel := s.Context(ctx)
	defer cancel()

	client, err := s.DynamoDB(ctx)
	if err != nil {
		return err
	}

	logger := s.Logger.With("table", name)
	table, err := client.CreateTable(ctx, name, hashKey, waitFor...)
	if err == nil {
		logger.Info("Table created", "status", table.TableStatus)
		return nil
	}

	var partial *waiter.PartialSuccessError[*types.TableDescription]
	if errors.As(err, &partial) {
		logger.Error("Table created but never reached the target state", "error", partial.Err)
		s.alert(context.WithoutCancel(ctx), notifications.WaitFailure{
			Operation:    "create",
			ResourceKind: "dynamodb_table",
			ResourceID:   partial.ID,
			WaitFor:      waitFor,
			Message:      partial.Err.Error(),
			OccurredAt:   time.Now().UTC(),
		})
		return err
	}

	logger.Error("Table creation failed", "error", err)
	return err
}

// RunDeleteTable deletes a DynamoDB table, optionally waiting until it is gone.
func RunDeleteTable(ctx context.Context, s *Session, name string, wait bool) error {
	ctx, cancel := s.Context(ctx)
	defer cancel()

	client, err := s.DynamoDB(ctx)
	if err != nil {
		return err
	}

	if err := client.DeleteTable(ctx, name, wait); err != nil {
		s.Logger.Error("Table deletion failed", "table", name, "error", err)
		return err
	}
	s.Logger.Info("Table deleted", "table", name, "waited", wait)
	return nil
}

// RunWaitTable blocks until a table reaches one of states.
func RunWaitTable(ctx context.Context, s *Session, name string, states []string) error {
	ctx, cancel := s.Context(ctx)
	defer cancel()

	client, err := s.DynamoDB(ctx)
	if err != nil {
		return err
	}

	table, err := client.WaitForTableStatus(ctx, name, states...)
	if err != nil {
		s.Logger.Error("Table wait failed", "table", name, "error", err)
		return err
	}
	s.Logger.Info("Table reached target state", "table", name, "status", table.TableStatus)
	return nil
}
