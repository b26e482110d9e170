package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRunCmd(client *Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "run [users|assets]",
		Short:     "Trigger a governance run",
		Long:      "Trigger a synchronous governance run and print its report.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"users", "assets"},
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := client.TriggerRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				if err := printJSON(os.Stdout, result); err != nil {
					return err
				}
			} else {
				printReportTable(os.Stdout, result.Report)
				if result.Error != "" {
					fmt.Fprintf(os.Stdout, "\nRun error: %s\n", result.Error)
				}
			}

			if result.Error != "" || !result.Report.Ok() {
				return fmt.Errorf("%s run did not fully converge", args[0])
			}
			return nil
		},
	}
	return cmd
}
