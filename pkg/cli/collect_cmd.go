package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newCollectCmd(client *Client) *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Rebuild the user manifest from the identity provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := client.Collect(cmd.Context())
			if err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(os.Stdout, map[string]int{"records": n})
			}
			fmt.Fprintf(os.Stdout, "Published user manifest with %d records\n", n)
			return nil
		},
	}
}
