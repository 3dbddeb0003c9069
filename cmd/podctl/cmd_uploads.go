package main

import (
	"fmt"
	"os"

	"github.com/dimitrije/pod-console/internal/session"
	"github.com/spf13/cobra"
)

// runUsersImport prints the plan even when it is rejected, so the operator
// sees which rows need fixing.
func runUsersImport(cmd *cobra.Command, args []string) error {
	name, data, err := readSheet(args[1])
	if err != nil {
		return err
	}
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		result, err := c.pods.BulkImport(cmd.Context(), a, args[0], name, data, importDryRun)
		if result != nil && result.Import != nil {
			renderImport(cmd.OutOrStdout(), result.Import, importDryRun)
		}
		if err != nil {
			return err
		}
		if result.Pod != nil {
			renderPod(cmd.OutOrStdout(), result.Pod)
		}
		return nil
	})
}

func runMassUploadPreview(cmd *cobra.Command, args []string) error {
	name, data, err := readSheet(args[0])
	if err != nil {
		return err
	}
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		preview, err := c.massUpload.Preview(cmd.Context(), a, name, data)
		if err != nil {
			return err
		}
		renderPreview(cmd.OutOrStdout(), preview)
		return nil
	})
}

func runMassUpload(cmd *cobra.Command, args []string) error {
	name, data, err := readSheet(args[0])
	if err != nil {
		return err
	}
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		result, err := c.massUpload.Upload(cmd.Context(), a, name, data)
		if err != nil {
			return err
		}
		renderMassResult(cmd.OutOrStdout(), result)
		if result.FailedPods > 0 {
			return fmt.Errorf("%d of %d pods failed", result.FailedPods, len(result.PodResults))
		}
		return nil
	})
}

// runMassUploadTemplate needs no session; the template is static.
func runMassUploadTemplate(cmd *cobra.Command, _ []string) error {
	c, err := newCLI()
	if err != nil {
		return err
	}
	defer c.close()

	if err := os.WriteFile(templateOut, c.massUpload.Template(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", templateOut, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("template written to "+templateOut))
	return nil
}
