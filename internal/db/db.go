package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

// Ping verifies the database is reachable
func (db *DB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Migrate creates the schema if it does not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// RecordAnswer appends a history entry and bumps the leaderboard in one transaction
func (db *DB) RecordAnswer(ctx context.Context, entry HistoryEntry) (*LeaderboardEntry, error) {
	if err := validateEntry(entry); err != nil {
		return nil, err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO interview_history
		   (id, user_id, created_at, role, mode, question_set, difficulty, question, answer, feedback, score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		entry.ID, entry.UserID, entry.CreatedAt, entry.Role, entry.Mode, entry.QuestionSet,
		entry.Difficulty, entry.Question, entry.Answer, entry.Feedback, entry.Score,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history entry: %w", err)
	}

	lb := &LeaderboardEntry{UserID: entry.UserID}
	err = tx.QueryRow(ctx,
		`INSERT INTO leaderboard (user_id, total_score, attempts, updated_at)
		 VALUES ($1, $2, 1, $3)
		 ON CONFLICT (user_id) DO UPDATE
		   SET total_score = leaderboard.total_score + EXCLUDED.total_score,
		       attempts = leaderboard.attempts + 1,
		       updated_at = EXCLUDED.updated_at
		 RETURNING total_score, attempts`,
		entry.UserID, entry.Score, entry.CreatedAt,
	).Scan(&lb.TotalScore, &lb.Attempts)
	if err != nil {
		return nil, fmt.Errorf("failed to update leaderboard: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit answer: %w", err)
	}
	return lb, nil
}

// History returns one page of a user's history, newest first
func (db *DB) History(ctx context.Context, userID string, page, pageSize int) (*HistoryPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	result := &HistoryPage{Page: page, PageSize: pageSize, Entries: []HistoryEntry{}}

	if err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM interview_history WHERE user_id = $1`, userID,
	).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, user_id, created_at, role, mode, question_set, difficulty, question, answer, feedback, score
		 FROM interview_history
		 WHERE user_id = $1
		 ORDER BY created_at DESC, seq DESC
		 LIMIT $2 OFFSET $3`,
		userID, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.CreatedAt, &e.Role, &e.Mode, &e.QuestionSet,
			&e.Difficulty, &e.Question, &e.Answer, &e.Feedback, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		result.Entries = append(result.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return result, nil
}

// Leaderboard returns the top entries by average score
func (db *DB) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT user_id, total_score, attempts
		 FROM leaderboard
		 ORDER BY total_score::float8 / attempts DESC, attempts DESC, user_id ASC
		 LIMIT $1`,
		normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.TotalScore, &e.Attempts); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}
	return entries, nil
}

// UserStats returns a single user's leaderboard entry
func (db *DB) UserStats(ctx context.Context, userID string) (*LeaderboardEntry, error) {
	e := &LeaderboardEntry{UserID: userID}
	err := db.pool.QueryRow(ctx,
		`SELECT total_score, attempts FROM leaderboard WHERE user_id = $1`, userID,
	).Scan(&e.TotalScore, &e.Attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get leaderboard entry: %w", err)
	}
	return e, nil
}

// SaveSnapshot stores the user's session snapshot, replacing any previous one
func (db *DB) SaveSnapshot(ctx context.Context, userID string, data []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO session_snapshots (user_id, snapshot, saved_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id) DO UPDATE SET snapshot = EXCLUDED.snapshot, saved_at = EXCLUDED.saved_at`,
		userID, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the user's saved snapshot
func (db *DB) LoadSnapshot(ctx context.Context, userID string) ([]byte, error) {
	var data []byte
	err := db.pool.QueryRow(ctx,
		`SELECT snapshot FROM session_snapshots WHERE user_id = $1`, userID,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return data, nil
}

// DeleteSnapshot removes the user's saved snapshot, if any
func (db *DB) DeleteSnapshot(ctx context.Context, userID string) error {
	if _, err := db.pool.Exec(ctx, `DELETE FROM session_snapshots WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
