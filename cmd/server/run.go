package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	runWorkflowID string
	runUserID     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute a workflow once and print its log",
	Long: `run creates an execution record for the workflow, executes it in the
foreground and prints every log entry. The exit status is non-zero when the
run fails.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if runWorkflowID == "" {
			return errors.New("--workflow is required")
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		execution, runErr := a.executions.Run(ctx, runWorkflowID, runUserID)
		if execution != nil {
			out := cmd.OutOrStdout()
			for _, entry := range execution.Logs {
				node := entry.NodeID
				if node == "" {
					node = "-"
				}
				fmt.Fprintf(out, "%s  %-10s %-12s %s\n",
					entry.Timestamp.Format("15:04:05.000"), entry.Status, node, entry.Message)
			}
			fmt.Fprintf(out, "execution %s: %s\n", execution.ID, execution.Status)
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().StringVar(&runWorkflowID, "workflow", "", "ID of the workflow to execute")
	runCmd.Flags().StringVar(&runUserID, "user", "", "run on behalf of this user (default is the workflow owner)")
}
