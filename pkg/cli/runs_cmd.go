package cli

import (
	"os"

	"github.com/spf13/cobra"
)

func newRunsCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs [id]",
		Short: "List recent governance runs, or show one by ID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				report, err := client.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if getOutputFormat(cmd) == "json" {
					return printJSON(os.Stdout, report)
				}
				printReportTable(os.Stdout, report)
				return nil
			}

			runs, err := client.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, runs)
			}
			printRunsTable(os.Stdout, runs)
			return nil
		},
	}
	return cmd
}
