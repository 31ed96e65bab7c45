package cli

import (
	"github.com/aravindh-murugesan/waitsentry-go/internal/cloud/openstack"
	"github.com/aravindh-murugesan/waitsentry-go/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	snapshotVolumeID, snapshotName, snapshotID string
	snapshotWaitFor, snapshotStates            []string
	snapshotCleanup, snapshotDeleteWait        bool
)

var snapshotCommand = &cobra.Command{
	Use:     "snapshot",
	GroupID: "openstack",
	Short:   "Create, delete and wait on Cinder volume snapshots",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCommand.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return requireCloud()
	},
}

var snapshotCreateCommand = &cobra.Command{
	Use:   "create",
	Short: "Create a snapshot and wait for it to become available",
	Long: `Creates a snapshot of a volume (forced, so attached volumes are allowed) and polls
until it reaches one of --wait-for. If the snapshot is created but never becomes
ready the command fails with a partial success; --cleanup-on-failure deletes it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		banner("Snapshot Creation")

		sess, err := newSession("snapshot-create")
		if err != nil {
			return err
		}
		return workflow.RunCreateSnapshot(cmd.Context(), sess, workflow.SnapshotRequest{
			VolumeID:         snapshotVolumeID,
			Name:             snapshotName,
			WaitFor:          snapshotWaitFor,
			CleanupOnFailure: snapshotCleanup,
		})
	},
}

var snapshotDeleteCommand = &cobra.Command{
	Use:   "delete",
	Short: "Force-delete a snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession("snapshot-delete")
		if err != nil {
			return err
		}
		return workflow.RunDeleteSnapshot(cmd.Context(), sess, snapshotID, snapshotDeleteWait)
	},
}

var snapshotWaitCommand = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a snapshot to reach one of the given states",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession("snapshot-wait")
		if err != nil {
			return err
		}
		return workflow.RunWaitSnapshot(cmd.Context(), sess, snapshotID, snapshotStates)
	},
}

func init() {
	rootCommand.AddCommand(snapshotCommand)
	snapshotCommand.AddCommand(snapshotCreateCommand, snapshotDeleteCommand, snapshotWaitCommand)

	snapshotCreateCommand.Flags().StringVar(&snapshotVolumeID, "volume-id", "", "ID of the volume to snapshot")
	snapshotCreateCommand.Flags().StringVar(&snapshotName, "name", "", "Snapshot name")
	snapshotCreateCommand.Flags().StringSliceVar(&snapshotWaitFor, "wait-for", []string{openstack.SnapshotAvailable}, "Target states; empty returns right after the create call")
	snapshotCreateCommand.Flags().BoolVar(&snapshotCleanup, "cleanup-on-failure", false, "Delete the snapshot if it never reaches the target state")
	_ = snapshotCreateCommand.MarkFlagRequired("volume-id")

	snapshotDeleteCommand.Flags().StringVar(&snapshotID, "snapshot-id", "", "ID of the snapshot to delete")
	snapshotDeleteCommand.Flags().BoolVar(&snapshotDeleteWait, "wait", false, "Wait until the snapshot is gone")
	_ = snapshotDeleteCommand.MarkFlagRequired("snapshot-id")

	snapshotWaitCommand.Flags().StringVar(&snapshotID, "snapshot-id", "", "ID of the snapshot to wait on")
	snapshotWaitCommand.Flags().StringSliceVar(&snapshotStates, "state", []string{openstack.SnapshotAvailable}, "Target states")
	_ = snapshotWaitCommand.MarkFlagRequired("snapshot-id")
}
