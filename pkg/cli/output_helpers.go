package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"qs-governance/internal/domain"
)

// getOutputFormat returns the effective output format from the root command's persistent flags.
func getOutputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Root().PersistentFlags().GetString("output")
	return v
}

func validateOutputFormat(output string) error {
	if output != "" && output != "table" && output != "json" {
		return fmt.Errorf("unsupported output format %q: use 'table' or 'json'", output)
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printReportTable(w io.Writer, report *domain.RunReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Run:\t%s\n", report.ID)
	fmt.Fprintf(tw, "Kind:\t%s\n", report.Kind)
	fmt.Fprintf(tw, "Duration:\t%dms\n", report.DurationMS)
	fmt.Fprintf(tw, "Succeeded:\t%d\tFailed:\t%d\tSkipped:\t%d\n",
		report.Succeeded, report.Failed, report.Skipped)
	_ = tw.Flush()

	if len(report.Results) == 0 {
		return
	}
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\nRECORD\tOUTCOME\tERROR")
	for _, r := range report.Results {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Record, r.Outcome, r.Error)
	}
	_ = tw.Flush()
}

func printRunsTable(w io.Writer, runs []*domain.RunReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSTARTED\tSUCCEEDED\tFAILED\tSKIPPED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\n",
			r.ID, r.Kind, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Succeeded, r.Failed, r.Skipped)
	}
	_ = tw.Flush()
}
