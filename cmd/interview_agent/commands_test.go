package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/server"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "practice", "history", "leaderboard", "migrate", "token"} {
		assert.True(t, names[want], "missing command %s", want)
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("INTERVIEW_JWT_SECRET", "a-secret-that-is-long-enough-for-hs256")

	out, err := execute(t, "token", "--user", "alice")
	require.NoError(t, err)

	issuer := server.NewTokenIssuer(&config.JWTConfig{
		Secret: "a-secret-that-is-long-enough-for-hs256",
		TTL:    24 * time.Hour,
		Issuer: config.TokenIssuer,
	})
	claims, err := issuer.Verify(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID())
}

func TestTokenCommand_NoSecret(t *testing.T) {
	t.Setenv("INTERVIEW_JWT_SECRET", "")
	t.Setenv("JWT_SECRET", "")

	_, err := execute(t, "token", "--user", "alice")
	assert.ErrorContains(t, err, "JWT secret is required")
}

func TestStoreCommands(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "coach.db")
	t.Setenv("INTERVIEW_DATABASE_URL", url)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema is up to date.")

	ctx := context.Background()
	store, err := db.Open(ctx, url)
	require.NoError(t, err)
	_, err = store.RecordAnswer(ctx, db.HistoryEntry{
		ID:        "h1",
		UserID:    "alice",
		CreatedAt: time.Date(2025, 1, 2, 3, 4, 0, 0, time.UTC),
		Role:      "SRE",
		Mode:      "Technical",
		Question:  "What is an SLO?",
		Answer:    "A target",
		Feedback:  "Score: 8/10",
		Score:     8,
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	out, err = execute(t, "history", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, "What is an SLO?")

	out, err = execute(t, "leaderboard", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"user_id": "alice"`)
}

func TestPracticeCommand_RequiresRole(t *testing.T) {
	_, err := execute(t, "practice", "--user", "alice", "--role", "")
	assert.ErrorContains(t, err, "--role is required")
}

func TestPracticeCommand_BadExportFormat(t *testing.T) {
	_, err := execute(t, "practice", "--user", "alice", "--role", "SRE", "--export", "docx")
	assert.ErrorContains(t, err, "unknown export format")
	practiceExport = ""
}
