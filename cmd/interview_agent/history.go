package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/observability"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a user's answered questions, newest first",
	RunE:  runHistory,
}

var (
	historyUser     string
	historyPage     int
	historyPageSize int
	historyJSON     bool
)

func init() {
	historyCmd.Flags().StringVarP(&historyUser, "user", "u", "", "User ID (required)")
	historyCmd.Flags().IntVarP(&historyPage, "page", "p", 1, "Page number")
	historyCmd.Flags().IntVar(&historyPageSize, "page-size", db.DefaultHistoryPageSize, "Entries per page")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print JSON instead of a table")

	if err := historyCmd.MarkFlagRequired("user"); err != nil {
		panic(fmt.Sprintf("failed to mark user flag as required: %v", err))
	}

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	return withStore(cmd.Context(), func(ctx context.Context, store db.Store) error {
		page, err := store.History(ctx, historyUser, historyPage, historyPageSize)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if historyJSON {
			return writeJSON(cmd.OutOrStdout(), page)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintHistory(page)
		return nil
	})
}

// withStore opens the configured store for the duration of fn.
func withStore(ctx context.Context, fn func(context.Context, db.Store) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() { _ = store.Close() }()
	return fn(ctx, store)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
