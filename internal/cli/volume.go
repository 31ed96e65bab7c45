package cli

import (
	"github.com/aravindh-murugesan/waitsentry-go/internal/cloud/openstack"
	"github.com/aravindh-murugesan/waitsentry-go/internal/workflow"
	"github.com/spf13/cobra"
)

var (
	volumeID                string
	volumeStates            []string
	volumeSucceedOnNotFound bool
)

var volumeCommand = &cobra.Command{
	Use:     "volume",
	GroupID: "openstack",
	Short:   "Wait on Cinder volumes",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCommand.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return requireCloud()
	},
}

var volumeWaitCommand = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a volume to reach one of the given states",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession("volume-wait")
		if err != nil {
			return err
		}
		return workflow.RunWaitVolume(cmd.Context(), sess, volumeID, volumeStates, volumeSucceedOnNotFound)
	},
}

func init() {
	rootCommand.AddCommand(volumeCommand)
	volumeCommand.AddCommand(volumeWaitCommand)

	volumeWaitCommand.Flags().StringVar(&volumeID, "volume-id", "", "ID of the volume to wait on")
	volumeWaitCommand.Flags().StringSliceVar(&volumeStates, "state", []string{openstack.VolumeAvailable}, "Target states")
	volumeWaitCommand.Flags().BoolVar(&volumeSucceedOnNotFound, "succeed-on-not-found", false, "Treat a missing volume as success (wait for deletion)")
	_ = volumeWaitCommand.MarkFlagRequired("volume-id")
}
