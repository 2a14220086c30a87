// Package main provides the interview_agent CLI: the HTTP API server and an
// interactive terminal practice mode.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/interview-coach/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "interview_agent",
	Short: "Interview practice coach",
	Long: "Interview practice coach generates role-specific interview questions, grades answers " +
		"with a language model and keeps a history and leaderboard of results.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default $INTERVIEW_CONFIG)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
