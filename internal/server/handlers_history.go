package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/interview-coach/internal/db"
)

// HistoryResponse is one page of a user's answered questions.
type HistoryResponse struct {
	*db.HistoryPage
	Pages int `json:"pages"`
}

// LeaderboardRow is one ranked user.
type LeaderboardRow struct {
	Rank       int     `json:"rank"`
	UserID     string  `json:"user_id"`
	TotalScore int     `json:"total_score"`
	Attempts   int     `json:"attempts"`
	Average    float64 `json:"average"`
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &RequestError{Message: key + " must be a non-negative integer"}
	}
	return v, nil
}

// handleHistory returns the user's history, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	pageSize, err := queryInt(r, "page_size", db.DefaultHistoryPageSize)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	result, err := s.store.History(r.Context(), pathUserID(r), page, pageSize)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, HistoryResponse{HistoryPage: result, Pages: result.Pages()})
}

// handleLeaderboard returns users ranked by average score.
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", s.cfg.LeaderboardLimit)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	entries, err := s.store.Leaderboard(r.Context(), limit)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	rows := make([]LeaderboardRow, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, LeaderboardRow{
			Rank:       i + 1,
			UserID:     e.UserID,
			TotalScore: e.TotalScore,
			Attempts:   e.Attempts,
			Average:    e.Average(),
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"entries": rows})
}

// handleUserStats returns the user's leaderboard entry.
func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	entry, err := s.store.UserStats(r.Context(), pathUserID(r))
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, LeaderboardRow{
		UserID:     entry.UserID,
		TotalScore: entry.TotalScore,
		Attempts:   entry.Attempts,
		Average:    entry.Average(),
	})
}
