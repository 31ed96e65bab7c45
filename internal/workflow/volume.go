package workflow

import (
	"context"
)

// RunWaitVolume blocks until a volume reaches one of states. With
// succeedOnNotFound a deleted volume also ends the wait successfully.
func RunWaitVolume(ctx context.Context, s *Session, volumeID string, states []string, succeedOnNotFound bool) error {
	ctx, cancel := s.Context(ctx)
	defer cancel()

	client, err := s.OpenStack(ctx)
	if err != nil {
		return err
	}

	logger := s.Logger.With("volume_id", volumeID)
	vol, err := client.WaitForVolumeStatus(ctx, volumeID, succeedOnNotFound, states...)
	if err != nil {
		logger.Error("Volume wait failed", "error", err)
		return err
	}

	if vol == nil {
		logger.Info("Volume no longer exists")
		return nil
	}
	logger.Info("Volume reached target state", "status", vol.Status)
	return nil
}
