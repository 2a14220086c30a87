package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite is a Store backed by a SQLite file (pure Go driver).
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it.
// Use ":memory:" for a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// A single connection serializes writers and keeps :memory: databases shared.
	conn.SetMaxOpenConns(1)

	s := &SQLite{db: conn}
	if err := s.Migrate(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the schema if it does not exist
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to migrate sqlite database: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Ping verifies the database is usable
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RecordAnswer appends a history entry and bumps the leaderboard in one transaction
func (s *SQLite) RecordAnswer(ctx context.Context, entry HistoryEntry) (*LeaderboardEntry, error) {
	if err := validateEntry(entry); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO interview_history
		   (id, user_id, created_at, role, mode, question_set, difficulty, question, answer, feedback, score)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.CreatedAt.UnixNano(), entry.Role, entry.Mode, entry.QuestionSet,
		entry.Difficulty, entry.Question, entry.Answer, entry.Feedback, entry.Score,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert history entry: %w", err)
	}

	lb := &LeaderboardEntry{UserID: entry.UserID}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO leaderboard (user_id, total_score, attempts, updated_at)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT (user_id) DO UPDATE
		   SET total_score = leaderboard.total_score + excluded.total_score,
		       attempts = leaderboard.attempts + 1,
		       updated_at = excluded.updated_at
		 RETURNING total_score, attempts`,
		entry.UserID, entry.Score, entry.CreatedAt.UnixNano(),
	).Scan(&lb.TotalScore, &lb.Attempts)
	if err != nil {
		return nil, fmt.Errorf("failed to update leaderboard: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit answer: %w", err)
	}
	return lb, nil
}

// History returns one page of a user's history, newest first
func (s *SQLite) History(ctx context.Context, userID string, page, pageSize int) (*HistoryPage, error) {
	page, pageSize = normalizePage(page, pageSize)
	result := &HistoryPage{Page: page, PageSize: pageSize, Entries: []HistoryEntry{}}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM interview_history WHERE user_id = ?`, userID,
	).Scan(&result.Total); err != nil {
		return nil, fmt.Errorf("failed to count history: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, created_at, role, mode, question_set, difficulty, question, answer, feedback, score
		 FROM interview_history
		 WHERE user_id = ?
		 ORDER BY created_at DESC, seq DESC
		 LIMIT ? OFFSET ?`,
		userID, pageSize, (page-1)*pageSize,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var e HistoryEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.UserID, &created, &e.Role, &e.Mode, &e.QuestionSet,
			&e.Difficulty, &e.Question, &e.Answer, &e.Feedback, &e.Score); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		result.Entries = append(result.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return result, nil
}

// Leaderboard returns the top entries by average score
func (s *SQLite) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, total_score, attempts
		 FROM leaderboard
		 ORDER BY CAST(total_score AS REAL) / attempts DESC, attempts DESC, user_id ASC
		 LIMIT ?`,
		normalizeLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer func() { _ = rows.Close() }()

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
func (s *SQLite) UserStats(ctx context.Context, userID string) (*LeaderboardEntry, error) {
	e := &LeaderboardEntry{UserID: userID}
	err := s.db.QueryRowContext(ctx,
		`SELECT total_score, attempts FROM leaderboard WHERE user_id = ?`, userID,
	).Scan(&e.TotalScore, &e.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard entry: %w", err)
	}
	return e, nil
}

// SaveSnapshot stores the user's session snapshot, replacing any previous one
func (s *SQLite) SaveSnapshot(ctx context.Context, userID string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_snapshots (user_id, snapshot, saved_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET snapshot = excluded.snapshot, saved_at = excluded.saved_at`,
		userID, string(data), time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the user's saved snapshot
func (s *SQLite) LoadSnapshot(ctx context.Context, userID string) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM session_snapshots WHERE user_id = ?`, userID,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return []byte(data), nil
}

// DeleteSnapshot removes the user's saved snapshot, if any
func (s *SQLite) DeleteSnapshot(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshots WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
