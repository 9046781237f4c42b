package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/taskflow/internal/repository"
)

func pruneTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune-tokens",
		Short: "Delete expired refresh tokens from the ledger",
		Long: `Delete refresh token rows whose expiry has passed.

Expired rows are already rejected on refresh; pruning only keeps the
table small.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := repository.NewTokenRepo(db).DeleteExpired(cmd.Context(), time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired refresh tokens\n", n)
			return nil
		},
	}
}
