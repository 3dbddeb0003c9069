package main

import (
	"fmt"
	"strconv"

	"github.com/dimitrije/pod-console/internal/session"
	"github.com/spf13/cobra"
)

func runPodsTree(cmd *cobra.Command, _ []string) error {
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		if treeBin {
			entries, err := c.pods.Bin(cmd.Context(), a, treeSearch)
			if err != nil {
				return err
			}
			renderBin(cmd.OutOrStdout(), entries)
			return nil
		}
		rows, err := c.pods.Tree(cmd.Context(), a, treeSearch)
		if err != nil {
			return err
		}
		renderTree(cmd.OutOrStdout(), rows)
		return nil
	})
}

func runPodsDelete(cmd *cobra.Command, args []string) error {
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		if err := c.pods.SoftDelete(cmd.Context(), a, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("pod "+args[0]+" moved to the bin"))
		return nil
	})
}

func runPodsRestore(cmd *cobra.Command, args []string) error {
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		if err := c.pods.Restore(cmd.Context(), a, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("pod "+args[0]+" restored"))
		return nil
	})
}

func runPodsPurge(cmd *cobra.Command, args []string) error {
	confirmation, err := purgeConfirmation(args[0], purgeConfirm, ask)
	if err != nil {
		return err
	}
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		if err := c.pods.Purge(cmd.Context(), a, args[0], confirmation); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), warningStyle.Render("pod "+args[0]+" permanently deleted"))
		return nil
	})
}

func parseCount(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%q is not a license count", arg)
	}
	return n, nil
}

func runLicensesSet(cmd *cobra.Command, args []string) error {
	total, err := parseCount(args[1])
	if err != nil {
		return err
	}
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		pod, err := c.pods.SetLicenses(cmd.Context(), a, args[0], total)
		if err != nil {
			return err
		}
		renderPod(cmd.OutOrStdout(), pod)
		return nil
	})
}

func runLicensesAdd(cmd *cobra.Command, args []string) error {
	amount, err := parseCount(args[1])
	if err != nil {
		return err
	}
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		pod, err := c.pods.AddLicenses(cmd.Context(), a, args[0], amount)
		if err != nil {
			return err
		}
		renderPod(cmd.OutOrStdout(), pod)
		return nil
	})
}
