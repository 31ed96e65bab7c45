package cli

import (
	"github.com/aravindh-murugesan/waitsentry-go/internal/workflow"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spf13/cobra"
)

var (
	tableName, tableHashKey string
	tableWaitFor            []string
	tableDeleteWait         bool
)

var tableCommand = &cobra.Command{
	Use:     "table",
	GroupID: "aws",
	Short:   "Create, delete and wait on DynamoDB tables",
}

var tableCreateCommand = &cobra.Command{
	Use:   "create",
	Short: "Create an on-demand table and wait for it to become active",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession("table-create")
		if err != nil {
			return err
		}
		return workflow.RunCreateTable(cmd.Context(), sess, tableName, tableHashKey, tableWaitFor)
	},
}

var tableDeleteCommand = &cobra.Command{
	Use:   "delete",
	Short: "Delete a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession("table-delete")
		if err != nil {
			return err
		}
		return workflow.RunDeleteTable(cmd.Context(), sess, tableName, tableDeleteWait)
	},
}

var tableWaitCommand = &cobra.Command{
	Use:   "wait",
	Short: "Wait for a table to reach one of the given statuses",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession("table-wait")
		if err != nil {
			return err
		}
		return workflow.RunWaitTable(cmd.Context(), sess, tableName, tableWaitFor)
	},
}

func init() {
	rootCommand.AddCommand(tableCommand)
	tableCommand.AddCommand(tableCreateCommand, tableDeleteCommand, tableWaitCommand)

	tableCommand.PersistentFlags().StringVar(&tableName, "name", "", "Table name")
	_ = tableCommand.MarkPersistentFlagRequired("name")

	tableCommand.PersistentFlags().String("region", "", "AWS region (defaults to the shared AWS config)")
	_ = v.BindPFlag("aws.region", tableCommand.PersistentFlags().Lookup("region"))

	tableCreateCommand.Flags().StringVar(&tableHashKey, "hash-key", "pk", "Name of the string partition key")
	tableCreateCommand.Flags().StringSliceVar(&tableWaitFor, "wait-for", []string{string(types.TableStatusActive)}, "Target statuses; empty returns right after the create call")

	tableDeleteCommand.Flags().BoolVar(&tableDeleteWait, "wait", false, "Wait until the table is gone")

	tableWaitCommand.Flags().StringSliceVar(&tableWaitFor, "state", []string{string(types.TableStatusActive)}, "Target statuses")
}
