package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	WaitsentryVersion, WaitsentryCommit, WaitsentryDate string
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Display version, commit hash, build date, and other build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Waitsentry version: %s\n", WaitsentryVersion)
		fmt.Printf("Commit: %s\n", WaitsentryCommit)
		fmt.Printf("Built: %s\n", WaitsentryDate)
	},
}

func init() {
	rootCommand.AddCommand(versionCommand)
}
