package openstack

import (
	"context"
	"fmt"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
	"github.com/gophercloud/gophercloud/v2/openstack/blockstorage/v3/snapshots"
)

func snapshotStatus(s *snapshots.Snapshot) string {
	return s.Status
}

// fetchSnapshot reads a snapshot once, without retries.
func (c *Client) fetchSnapshot(ctx context.Context, snapshotID string) (*snapshots.Snapshot, error) {
	snap, err := snapshots.Get(ctx, c.BlockStorageClient, snapshotID).Extract()
	if err != nil {
		return nil, classify("get snapshot "+snapshotID, err)
	}
	return snap, nil
}

// GetSnapshot reads a snapshot, retrying transient failures.
func (c *Client) GetSnapshot(ctx context.Context, snapshotID string) (*snapshots.Snapshot, error) {
	return retry.ExecuteWithResult(ctx, c.Policy, "GetVolumeSnapshot", func(ctx context.Context) (*snapshots.Snapshot, error) {
		return c.fetchSnapshot(ctx, snapshotID)
	})
}

// CreateManagedSnapshot triggers the creation of a new snapshot and, when
// waitFor is not empty, waits for it to reach one of those states.
//
// Behavior:
//   - Force Creation: Uses the `Force: true` flag, allowing snapshots to be taken even if the
//     volume is currently attached ("in-use") by an instance.
//   - Single Create: The create call is issued exactly once. Retrying it could leave a
//     duplicate snapshot behind if the first request was applied.
//   - Partial Success: If the snapshot was created but never reached waitFor, the error
//     is a *waiter.PartialSuccessError carrying the created snapshot, so the caller can
//     clean it up.
//
// Returns:
//   - Snapshot: The snapshot in its final observed state (or as returned by create when
//     waitFor is empty).
//   - RequestID: The OpenStack tracing ID of the create call.
//   - Error: Any error encountered.
func (c *Client) CreateManagedSnapshot(
	ctx context.Context,
	volumeID string,
	name string,
	metadata map[string]string,
	waitFor ...string,
) (Snapshot *snapshots.Snapshot, RequestID string, Error error) {
	var requestID string

	op := waiter.Composite[*snapshots.Snapshot]{
		Mutate: func(ctx context.Context) (*snapshots.Snapshot, error) {
			opts := snapshots.CreateOpts{
				VolumeID:    volumeID,
				Force:       true, // Allows snapshotting 'in-use' volumes
				Name:        name,
				Description: snapshotDescription,
				Metadata:    metadata,
			}

			result := snapshots.Create(ctx, c.BlockStorageClient, opts)
			requestID = result.Header.Get(requestIDHeader)

			snap, err := result.Extract()
			if err != nil {
				return nil, classify("create snapshot of volume "+volumeID, err)
			}
			return snap, nil
		},
		ID:    func(s *snapshots.Snapshot) string { return s.ID },
		Fetch: c.fetchSnapshot,
		State: snapshotStatus,
	}

	snap, err := waiter.RunComposite(ctx, op, waitFor, c.waitConfig("snapshot of volume "+volumeID))
	if err != nil {
		return nil, requestID, err
	}
	return snap, requestID, nil
}

// DeleteSnapshot removes a snapshot from the backend storage.
//
// Behavior:
//   - Force Delete: This method explicitly triggers a "Force Delete" operation.
//     This ensures the snapshot is removed even if the storage backend indicates
//     it is busy or in a stuck state, preventing "zombie" snapshots from accumulating.
//   - Idempotent: The request is retried on transient failures. A snapshot that is
//     already gone counts as deleted.
//   - Wait: With wait set, the call blocks until the snapshot can no longer be read.
//
// Returns:
//   - RequestID: The OpenStack tracing ID for the delete operation.
//   - Error: Returns an error if the delete request fails (e.g. 403 Forbidden) or the
//     snapshot is still present once the wait budget is spent.
func (c *Client) DeleteSnapshot(ctx context.Context, snapshotID string, wait bool) (RequestID string, Error error) {
	var requestID string
	deleteOperation := func(ctx context.Context) error {
		result := snapshots.ForceDelete(ctx, c.BlockStorageClient, snapshotID)
		requestID = result.Header.Get(requestIDHeader)
		return classify("delete snapshot "+snapshotID, result.Err)
	}

	err := c.executeWithRetry(ctx, "DeleteVolumeSnapshot", deleteOperation)
	switch {
	case retry.IsNotFound(err):
		c.logger().Debug("Snapshot already gone", "snapshot_id", snapshotID)
		return requestID, nil
	case err != nil:
		return requestID, err
	case !wait:
		return requestID, nil
	}

	cfg := c.waitConfig("snapshot " + snapshotID)
	cfg.SucceedOnNotFound = true

	_, err = waiter.Until(ctx, func(ctx context.Context) (*snapshots.Snapshot, error) {
		return c.fetchSnapshot(ctx, snapshotID)
	}, waiter.StateIn(snapshotStatus), cfg)
	if err != nil {
		return requestID, fmt.Errorf("snapshot %s accepted for deletion but still present: %w", snapshotID, err)
	}
	return requestID, nil
}

// WaitForSnapshotStatus blocks until the snapshot reaches one of states.
func (c *Client) WaitForSnapshotStatus(ctx context.Context, snapshotID string, states ...string) (*snapshots.Snapshot, error) {
	return waiter.Until(ctx, func(ctx context.Context) (*snapshots.Snapshot, error) {
		return c.fetchSnapshot(ctx, snapshotID)
	}, waiter.StateIn(snapshotStatus, states...), c.waitConfig("snapshot "+snapshotID))
}
