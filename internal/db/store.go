package db

import (
	"context"
	"fmt"
	"strings"
)

// Store is the persistence collaborator of the interview engine.
type Store interface {
	// RecordAnswer appends entry to the user's history and adds its score to the
	// user's leaderboard entry in one atomic step. It returns the updated entry.
	RecordAnswer(ctx context.Context, entry HistoryEntry) (*LeaderboardEntry, error)
	// History returns one page of the user's entries, newest first.
	History(ctx context.Context, userID string, page, pageSize int) (*HistoryPage, error)
	// Leaderboard returns up to limit entries by average score, highest first.
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	// UserStats returns one user's leaderboard entry or ErrNotFound.
	UserStats(ctx context.Context, userID string) (*LeaderboardEntry, error)

	SaveSnapshot(ctx context.Context, userID string, data []byte) error
	// LoadSnapshot returns ErrNotFound when the user has no snapshot.
	LoadSnapshot(ctx context.Context, userID string) ([]byte, error)
	DeleteSnapshot(ctx context.Context, userID string) error

	Ping(ctx context.Context) error
	Close() error
}

// Open connects to the store named by url and creates its schema.
//
//	postgres://... or postgresql://...  PostgreSQL
//	sqlite://path/to/file.db            SQLite file
//	sqlite://:memory:                   SQLite in memory
//	memory                              process memory
func Open(ctx context.Context, url string) (Store, error) {
	switch {
	case url == "" || url == "memory" || url == "memory://":
		return NewMemory(), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		db, err := Connect(ctx, url)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		return db, nil
	case strings.HasPrefix(url, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(url, "sqlite://"))
	default:
		return nil, fmt.Errorf("unsupported database url %q", url)
	}
}
