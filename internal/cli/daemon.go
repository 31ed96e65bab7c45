package cli

import (
	"fmt"

	"github.com/aravindh-murugesan/waitsentry-go/internal/workflow"
	"github.com/spf13/cobra"
)

var daemonCommand = &cobra.Command{
	Use:     "daemon",
	Short:   "Run Waitsentry in daemon mode",
	GroupID: "openstack",
	Long: `Starts Waitsentry as a background service that runs the snapshot jobs from the
config file on their cron schedules, serves the scheduler dashboard and exposes
Prometheus metrics.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCommand.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		return requireCloud()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		header := fmt.Sprintf("Waitsentry - Daemon Mode \n\nVersion: %s\nBuild Date: %s", WaitsentryVersion, WaitsentryDate)
		fmt.Println(headerStyle.Render(header))

		logger := workflow.SetupLogger(settings.LogLevel, settings.Cloud)
		return workflow.RunDaemon(cmd.Context(), settings, logger)
	},
}

func init() {
	rootCommand.AddCommand(daemonCommand)
	daemonCommand.Flags().String("bind-address", "0.0.0.0:8080", "Address to bind the UI server")
	daemonCommand.Flags().String("metrics-address", "0.0.0.0:9090", "Address to bind the Prometheus metrics endpoint")
	_ = v.BindPFlag("daemon.bind-address", daemonCommand.Flags().Lookup("bind-address"))
	_ = v.BindPFlag("daemon.metrics-address", daemonCommand.Flags().Lookup("metrics-address"))
}
