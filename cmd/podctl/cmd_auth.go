package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/dimitrije/pod-console/internal/session"
	"github.com/spf13/cobra"
)

func runLogin(cmd *cobra.Command, _ []string) error {
	c, err := newCLI()
	if err != nil {
		return err
	}
	defer c.close()

	email := loginEmail
	if email == "" {
		if email, err = ask("Email", false); err != nil {
			return err
		}
	}
	password := os.Getenv("PODCTL_PASSWORD")
	if password == "" {
		if password, err = ask("Password", true); err != nil {
			return err
		}
	}
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}

	ctx := cmd.Context()
	if previous, err := c.actor(ctx); err == nil {
		_ = c.sessions.Logout(ctx, previous)
	}

	active, err := c.sessions.Login(ctx, email, password)
	if err != nil {
		return err
	}

	if saveAsDefault {
		if err := saveProfile(profilePath, c.profile); err != nil {
			return err
		}
	}

	admin := active.Admin()
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successStyle.Render("signed in as"), nameStyle.Render(admin.Email))
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	c, err := newCLI()
	if err != nil {
		return err
	}
	defer c.close()

	active, err := c.actor(cmd.Context())
	if errors.Is(err, errNotSignedIn) {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("not signed in"))
		return nil
	}
	if err != nil {
		return err
	}
	if err := c.sessions.Logout(cmd.Context(), active); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("signed out"))
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	return withActor(cmd.Context(), func(c *cli, a *session.Active) error {
		admin, err := c.sessions.Me(cmd.Context(), a)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s <%s>\n", nameStyle.Render(admin.Name), admin.Email)
		role := admin.Role.Name
		if admin.IsSuperAdmin() {
			role = "super admin"
		}
		fmt.Fprintf(out, "  role:  %s\n", role)
		if scope := admin.ScopePodID(); scope != "" {
			fmt.Fprintf(out, "  scope: pod %s\n", scope)
		}
		fmt.Fprintf(out, "  api:   %s\n", mutedStyle.Render(c.profile.APIURL))
		return nil
	})
}
