package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the history, leaderboard and snapshot tables",
	Long:  "Connects to the configured database and creates any missing tables. Safe to run repeatedly.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	return withStore(cmd.Context(), func(ctx context.Context, store db.Store) error {
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("database is not reachable: %w", err)
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
		return err
	})
}
