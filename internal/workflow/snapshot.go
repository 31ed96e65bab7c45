package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aravindh-murugesan/waitsentry-go/internal/notifications"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
	"github.com/gophercloud/gophercloud/v2/openstack/blockstorage/v3/snapshots"
)

// cleanupTimeout bounds orphan cleanup, which runs even when the run's own
// context is already done.
const cleanupTimeout = 2 * time.Minute

// snapshotService is the part of *openstack.Client the snapshot workflows use.
type snapshotService interface {
	CreateManagedSnapshot(ctx context.Context, volumeID, name string, metadata map[string]string, waitFor ...string) (*snapshots.Snapshot, string, error)
	DeleteSnapshot(ctx context.Context, snapshotID string, wait bool) (string, error)
	WaitForSnapshotStatus(ctx context.Context, snapshotID string, states ...string) (*snapshots.Snapshot, error)
}

// SnapshotRequest describes one snapshot creation.
type SnapshotRequest struct {
	VolumeID string
	Name     string
	WaitFor  []string
	// CleanupOnFailure deletes a snapshot that was created but never reached WaitFor.
	CleanupOnFailure bool
	Metadata         map[string]string
}

// RunCreateSnapshot creates a snapshot of a volume and waits for it.
//
// Responsibilities:
//  1. Connection: Initializes the OpenStack client with retry logic and authenticates.
//  2. Creation: Issues the create call once, then polls until WaitFor is reached.
//  3. Safety: If the snapshot exists but never became ready, optionally deletes the
//     orphan and alerts the webhook.
func RunCreateSnapshot(ctx context.Context, s *Session, req SnapshotRequest) error {
	ctx, cancel := s.Context(ctx)
	defer cancel()

	client, err := s.OpenStack(ctx)
	if err != nil {
		return err
	}
	return createSnapshot(ctx, s, client, req)
}

func createSnapshot(ctx context.Context, s *Session, client snapshotService, req SnapshotRequest) error {
	logger := s.Logger.With("volume_id", req.VolumeID, "snapshot_name", req.Name)
	logger.Info("Initializing snapshot creation", "wait_for", req.WaitFor)

	snap, reqID, err := client.CreateManagedSnapshot(ctx, req.VolumeID, req.Name, req.Metadata, req.WaitFor...)
	if err == nil {
		logger.Info("Snapshot resource successfully created",
			"snapshot_id", snap.ID,
			"status", snap.Status,
			"request_id", reqID,
		)
		return nil
	}

	var partial *waiter.PartialSuccessError[*snapshots.Snapshot]
	if !errors.As(err, &partial) {
		logger.Error("Snapshot resource creation failed", "error", err, "request_id", reqID)
		return fmt.Errorf("creating snapshot of volume %s: %w", req.VolumeID, err)
	}

	// The snapshot exists but its final state was never confirmed.
	logger = logger.With("snapshot_id", partial.ID, "request_id", reqID)
	logger.Error("Snapshot created but never reached the target state", "error", partial.Err)

	failure := notifications.WaitFailure{
		Operation:    "create",
		ResourceKind: "snapshot",
		ResourceID:   partial.ID,
		RequestID:    reqID,
		WaitFor:      req.WaitFor,
		LastState:    lastSnapshotState(partial),
		Message:      partial.Err.Error(),
		OccurredAt:   time.Now().UTC(),
	}

	// Cleanup and alerting must run even when ctx is what failed the wait.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if req.CleanupOnFailure && partial.ID != "" {
		failure.CleanedUp = cleanupOrphan(cleanupCtx, client, partial.ID, logger)
	}
	s.alert(cleanupCtx, failure)

	return err
}

// lastSnapshotState returns the most recent state observed before the wait gave up.
func lastSnapshotState(partial *waiter.PartialSuccessError[*snapshots.Snapshot]) string {
	var timeout *waiter.TimeoutError[*snapshots.Snapshot]
	if errors.As(partial.Err, &timeout) && timeout.Last != nil {
		return timeout.Last.Status
	}
	if partial.Result != nil {
		return partial.Result.Status
	}
	return ""
}

func cleanupOrphan(ctx context.Context, client snapshotService, snapshotID string, logger *slog.Logger) bool {
	logger.Debug("Orphaned resource detected; initiating cleanup")

	delReqID, err := client.DeleteSnapshot(ctx, snapshotID, false)
	if err != nil {
		logger.Error("Orphaned snapshot cleanup failed; manual intervention required",
			"error", err,
			"cleanup_request_id", delReqID,
		)
		return false
	}

	logger.Info("Orphaned snapshot successfully cleaned up", "cleanup_request_id", delReqID)
	return true
}

// RunDeleteSnapshot force-deletes a snapshot, optionally waiting until it is gone.
func RunDeleteSnapshot(ctx context.Context, s *Session, snapshotID string, wait bool) error {
	ctx, cancel := s.Context(ctx)
	defer cancel()

	client, err := s.OpenStack(ctx)
	if err != nil {
		return err
	}

	logger := s.Logger.With("snapshot_id", snapshotID)
	reqID, err := client.DeleteSnapshot(ctx, snapshotID, wait)
	if err != nil {
		logger.Error("Snapshot deletion failed", "error", err, "request_id", reqID)
		return err
	}

	logger.Info("Snapshot deleted", "request_id", reqID, "waited", wait)
	return nil
}

// RunWaitSnapshot blocks until a snapshot reaches one of states.
func RunWaitSnapshot(ctx context.Context, s *Session, snapshotID string, states []string) error {
	ctx, cancel := s.Context(ctx)
	defer cancel()

	client, err := s.OpenStack(ctx)
	if err != nil {
		return err
	}

	snap, err := client.WaitForSnapshotStatus(ctx, snapshotID, states...)
	if err != nil {
		s.Logger.Error("Snapshot wait failed", "snapshot_id", snapshotID, "error", err)
		return err
	}

	s.Logger.Info("Snapshot reached target state", "snapshot_id", snap.ID, "status", snap.Status)
	return nil
}
