package main

import (
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/dimitrije/pod-console/internal/session"
	"github.com/spf13/cobra"
)

func runReportsExport(cmd *cobra.Command, args []string) error {
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer f.Close()

		result, err := c.reports.ExportBatch(cmd.Context(), a, args, f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, id := range slices.Sorted(maps.Keys(result.Failures)) {
			fmt.Fprintf(out, "  %s %s\n", nameStyle.Render(id), errorStyle.Render(result.Failures[id]))
		}
		summary := fmt.Sprintf("%d exported, %d failed, written to %s", result.Succeeded, result.Failed, exportOut)
		if result.Failed > 0 {
			fmt.Fprintln(out, warningStyle.Render(summary))
			return nil
		}
		fmt.Fprintln(out, successStyle.Render(summary))
		return nil
	})
}
