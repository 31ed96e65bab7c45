package openstack

import (
	"context"

	"github.com/aravindh-murugesan/waitsentry-go/internal/retry"
	"github.com/aravindh-murugesan/waitsentry-go/internal/waiter"
	"github.com/gophercloud/gophercloud/v2/openstack/blockstorage/v3/volumes"
)

func volumeStatus(v *volumes.Volume) string {
	return v.Status
}

func (c *Client) fetchVolume(ctx context.Context, volumeID string) (*volumes.Volume, error) {
	vol, err := volumes.Get(ctx, c.BlockStorageClient, volumeID).Extract()
	if err != nil {
		return nil, classify("get volume "+volumeID, err)
	}
	return vol, nil
}

// GetVolume reads a volume, retrying transient failures.
func (c *Client) GetVolume(ctx context.Context, volumeID string) (*volumes.Volume, error) {
	return retry.ExecuteWithResult(ctx, c.Policy, "GetVolume", func(ctx context.Context) (*volumes.Volume, error) {
		return c.fetchVolume(ctx, volumeID)
	})
}

// WaitForVolumeStatus blocks until the volume reaches one of states.
//
// With succeedOnNotFound a volume that disappears ends the wait successfully
// with a nil volume, which is how a caller waits for a deletion to finish.
func (c *Client) WaitForVolumeStatus(ctx context.Context, volumeID string, succeedOnNotFound bool, states ...string) (*volumes.Volume, error) {
	cfg := c.waitConfig("volume " + volumeID)
	cfg.SucceedOnNotFound = succeedOnNotFound

	return waiter.Until(ctx, func(ctx context.Context) (*volumes.Volume, error) {
		return c.fetchVolume(ctx, volumeID)
	}, waiter.StateIn(volumeStatus, states...), cfg)
}
