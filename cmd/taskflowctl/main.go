package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/taskflow/pkg/client"
)

type globals struct {
	server  string
	session string
	timeout time.Duration
}

func main() {
	g := &globals{}

	rootCmd := &cobra.Command{
		Use:           "taskflowctl",
		Short:         "Command line client for the TaskFlow API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.server, "server", envOr("TASKFLOW_URL", "http://localhost:5000"), "API base URL")
	rootCmd.PersistentFlags().StringVar(&g.session, "session-file", "", "Session file (default: user config dir)")
	rootCmd.PersistentFlags().DurationVar(&g.timeout, "timeout", 15*time.Second, "HTTP request timeout")

	rootCmd.AddCommand(
		registerCmd(g),
		loginCmd(g),
		whoamiCmd(g),
		logoutCmd(g),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// newClient builds a client over the file-backed session.
func (g *globals) newClient(cmd *cobra.Command) (*client.Client, error) {
	store := &client.FileStore{Path: g.session}
	if g.session == "" {
		s, err := client.DefaultFileStore()
		if err != nil {
			return nil, err
		}
		store = s
	}
	return client.New(g.server, client.NewSession(store),
		client.WithHTTPClient(&http.Client{Timeout: g.timeout}),
		client.WithSessionExpired(func() {
			fmt.Fprintln(cmd.ErrOrStderr(), "Session expired. Run `taskflowctl login` again.")
		}),
	), nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
