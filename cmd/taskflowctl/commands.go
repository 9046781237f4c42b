package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/taskflow/pkg/client"
)

func registerCmd(g *globals) *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.newClient(cmd)
			if err != nil {
				return err
			}
			p, err := c.Register(cmd.Context(), name, email, password, role)
			if err != nil {
				return err
			}
			printProfile(cmd, "Registered", p)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (default: email local part)")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password, at least 8 characters")
	cmd.Flags().StringVar(&role, "role", "member", "Role: admin or member")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func loginCmd(g *globals) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.newClient(cmd)
			if err != nil {
				return err
			}
			p, err := c.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			printProfile(cmd, "Logged in as", p)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// whoamiCmd resumes the stored session.  The access token is never stored,
// so the first request always goes through a silent refresh.
func whoamiCmd(g *globals) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.newClient(cmd)
			if err != nil {
				return err
			}
			if !c.Session().Resumable() {
				return client.ErrNotLoggedIn
			}
			if cached {
				p, err := c.Session().Profile()
				if err != nil {
					return err
				}
				if p == nil {
					return client.ErrNotLoggedIn
				}
				printProfile(cmd, "", *p)
				return nil
			}
			p, err := c.Me(cmd.Context())
			if err != nil {
				return err
			}
			printProfile(cmd, "", p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "Print the stored profile without contacting the server")

	return cmd
}

func logoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.newClient(cmd)
			if err != nil {
				return err
			}
			if err := c.Logout(cmd.Context()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: server logout failed: %v\n", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func printProfile(cmd *cobra.Command, prefix string, p client.Profile) {
	out := cmd.OutOrStdout()
	if prefix != "" {
		fmt.Fprintf(out, "%s %s\n", prefix, p.Email)
	}
	fmt.Fprintf(out, "  id:    %s\n  name:  %s\n  email: %s\n  role:  %s\n", p.ID, p.Name, p.Email, p.Role)
}
