package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/observability"
)

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show users ranked by average score",
	RunE:  runLeaderboard,
}

var (
	leaderboardLimit int
	leaderboardJSON  bool
)

func init() {
	leaderboardCmd.Flags().IntVarP(&leaderboardLimit, "limit", "l", db.DefaultLeaderboardLimit, "Number of users to show")
	leaderboardCmd.Flags().BoolVar(&leaderboardJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(leaderboardCmd)
}

func runLeaderboard(cmd *cobra.Command, _ []string) error {
	return withStore(cmd.Context(), func(ctx context.Context, store db.Store) error {
		entries, err := store.Leaderboard(ctx, leaderboardLimit)
		if err != nil {
			return fmt.Errorf("failed to load leaderboard: %w", err)
		}
		if leaderboardJSON {
			return writeJSON(cmd.OutOrStdout(), entries)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintLeaderboard(entries)
		return nil
	})
}
