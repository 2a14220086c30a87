package db

import (
	"context"
	"sort"
	"sync"
)

// Memory is a process-local Store. History and leaderboard updates happen
// under one lock, so RecordAnswer is atomic.
type Memory struct {
	mu          sync.RWMutex
	history     map[string][]HistoryEntry
	leaderboard map[string]LeaderboardEntry
	snapshots   map[string][]byte
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		history:     make(map[string][]HistoryEntry),
		leaderboard: make(map[string]LeaderboardEntry),
		snapshots:   make(map[string][]byte),
	}
}

// RecordAnswer appends entry and updates the user's leaderboard entry
func (m *Memory) RecordAnswer(_ context.Context, entry HistoryEntry) (*LeaderboardEntry, error) {
	if err := validateEntry(entry); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.history[entry.UserID] = append(m.history[entry.UserID], entry)
	lb := m.leaderboard[entry.UserID]
	lb.UserID = entry.UserID
	lb.TotalScore += entry.Score
	lb.Attempts++
	m.leaderboard[entry.UserID] = lb
	return &lb, nil
}

// History returns one page of a user's history, newest first
func (m *Memory) History(_ context.Context, userID string, page, pageSize int) (*HistoryPage, error) {
	page, pageSize = normalizePage(page, pageSize)

	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := m.history[userID]
	result := &HistoryPage{Page: page, PageSize: pageSize, Total: len(entries), Entries: []HistoryEntry{}}

	// entries are stored oldest first
	start := len(entries) - 1 - (page-1)*pageSize
	for i := start; i >= 0 && len(result.Entries) < pageSize; i-- {
		result.Entries = append(result.Entries, entries[i])
	}
	return result, nil
}

// Leaderboard returns the top entries by average score
func (m *Memory) Leaderboard(_ context.Context, limit int) ([]LeaderboardEntry, error) {
	m.mu.RLock()
	entries := make([]LeaderboardEntry, 0, len(m.leaderboard))
	for _, e := range m.leaderboard {
		entries = append(entries, e)
	}
	m.mu.RUnlock()

	SortLeaderboard(entries)
	if limit = normalizeLimit(limit); len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// UserStats returns a single user's leaderboard entry
func (m *Memory) UserStats(_ context.Context, userID string) (*LeaderboardEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.leaderboard[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

// SaveSnapshot stores a copy of data
func (m *Memory) SaveSnapshot(_ context.Context, userID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[userID] = append([]byte(nil), data...)
	return nil
}

// LoadSnapshot returns a copy of the user's snapshot
func (m *Memory) LoadSnapshot(_ context.Context, userID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.snapshots[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// DeleteSnapshot removes the user's snapshot
func (m *Memory) DeleteSnapshot(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, userID)
	return nil
}

// Ping always succeeds
func (m *Memory) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (m *Memory) Close() error {
	return nil
}

// SortLeaderboard orders entries by average descending, then attempts
// descending, then user id ascending.
func SortLeaderboard(entries []LeaderboardEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		// compare TotalScore/Attempts without floating point
		left, right := a.TotalScore*b.Attempts, b.TotalScore*a.Attempts
		if left != right {
			return left > right
		}
		if a.Attempts != b.Attempts {
			return a.Attempts > b.Attempts
		}
		return a.UserID < b.UserID
	})
}
