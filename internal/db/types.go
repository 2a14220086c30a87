// Package db provides persistence for interview history, the leaderboard and
// saved session snapshots. PostgreSQL, SQLite and in-memory backends share the
// Store interface.
package db

import (
	"errors"
	"fmt"
	"time"
)

// DefaultHistoryPageSize is the page size used when none is requested.
const DefaultHistoryPageSize = 5

// MaxHistoryPageSize caps a single history page.
const MaxHistoryPageSize = 100

// DefaultLeaderboardLimit is the number of leaderboard rows returned when none is requested.
const DefaultLeaderboardLimit = 10

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// HistoryEntry is one persisted question/answer exchange. Entries are immutable.
type HistoryEntry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	Role        string    `json:"role"`
	Mode        string    `json:"mode"`
	QuestionSet string    `json:"question_set"`
	Difficulty  string    `json:"difficulty,omitempty"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer"`
	Feedback    string    `json:"feedback"`
	Score       int       `json:"score"`
}

// LeaderboardEntry is a user's cumulative score. Attempts is always positive.
type LeaderboardEntry struct {
	UserID     string `json:"user_id"`
	TotalScore int    `json:"total_score"`
	Attempts   int    `json:"attempts"`
}

// Average returns TotalScore / Attempts.
func (e LeaderboardEntry) Average() float64 {
	if e.Attempts == 0 {
		return 0
	}
	return float64(e.TotalScore) / float64(e.Attempts)
}

// HistoryPage is one page of a user's history, newest first.
type HistoryPage struct {
	Entries  []HistoryEntry `json:"entries"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Total    int            `json:"total"`
}

// Pages returns the number of pages for Total entries.
func (p *HistoryPage) Pages() int {
	if p.PageSize <= 0 || p.Total == 0 {
		return 0
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// ValidationError reports an entry that cannot be stored.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func validateEntry(entry HistoryEntry) error {
	switch {
	case entry.ID == "":
		return &ValidationError{Field: "id", Message: "is required"}
	case entry.UserID == "":
		return &ValidationError{Field: "user_id", Message: "is required"}
	case entry.Score < 0 || entry.Score > 10:
		return &ValidationError{Field: "score", Message: "must be between 0 and 10"}
	}
	return nil
}

// normalizePage applies defaults: pages are 1-based and pageSize is clamped.
func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultHistoryPageSize
	}
	if pageSize > MaxHistoryPageSize {
		pageSize = MaxHistoryPageSize
	}
	return page, pageSize
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLeaderboardLimit
	}
	return limit
}
