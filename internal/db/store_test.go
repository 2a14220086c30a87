package db

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) Store

func newMemoryStore(t *testing.T) Store {
	t.Helper()
	return NewMemory()
}

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "interview.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var backends = map[string]storeFactory{
	"memory": newMemoryStore,
	"sqlite": newSQLiteStore,
}

func entryFor(userID string, score int, at time.Time) HistoryEntry {
	return HistoryEntry{
		ID:          uuid.NewString(),
		UserID:      userID,
		CreatedAt:   at,
		Role:        "Software Engineer",
		Mode:        "Technical",
		QuestionSet: "Standard",
		Difficulty:  "Medium",
		Question:    fmt.Sprintf("Question scored %d", score),
		Answer:      "An answer",
		Feedback:    fmt.Sprintf("Score: %d/10", score),
		Score:       score,
	}
}

func TestStore_LeaderboardAccumulates(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

			scores := []int{8, 0, 5, 10}
			var last *LeaderboardEntry
			for i, score := range scores {
				lb, err := s.RecordAnswer(ctx, entryFor("alice", score, base.Add(time.Duration(i)*time.Second)))
				require.NoError(t, err)
				last = lb
			}

			assert.Equal(t, 23, last.TotalScore)
			assert.Equal(t, 4, last.Attempts)
			assert.InDelta(t, 5.75, last.Average(), 1e-9)

			stats, err := s.UserStats(ctx, "alice")
			require.NoError(t, err)
			assert.Equal(t, *last, *stats)

			_, err = s.UserStats(ctx, "nobody")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_HistoryNewestFirstPaginated(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

			for i := 0; i < 7; i++ {
				_, err := s.RecordAnswer(ctx, entryFor("bob", i, base.Add(time.Duration(i)*time.Minute)))
				require.NoError(t, err)
			}
			_, err := s.RecordAnswer(ctx, entryFor("carol", 9, base))
			require.NoError(t, err)

			page, err := s.History(ctx, "bob", 1, 0)
			require.NoError(t, err)
			assert.Equal(t, 7, page.Total)
			assert.Equal(t, DefaultHistoryPageSize, page.PageSize)
			assert.Equal(t, 2, page.Pages())
			require.Len(t, page.Entries, 5)
			for i, e := range page.Entries {
				assert.Equal(t, 6-i, e.Score)
				assert.Equal(t, "bob", e.UserID)
			}
			assert.True(t, page.Entries[0].CreatedAt.Equal(base.Add(6*time.Minute)))

			page2, err := s.History(ctx, "bob", 2, 5)
			require.NoError(t, err)
			require.Len(t, page2.Entries, 2)
			assert.Equal(t, 1, page2.Entries[0].Score)
			assert.Equal(t, 0, page2.Entries[1].Score)

			empty, err := s.History(ctx, "bob", 3, 5)
			require.NoError(t, err)
			assert.Empty(t, empty.Entries)

			none, err := s.History(ctx, "dave", 1, 5)
			require.NoError(t, err)
			assert.Equal(t, 0, none.Total)
			assert.NotNil(t, none.Entries)
		})
	}
}

func TestStore_LeaderboardOrdering(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()
			now := time.Now().UTC()

			record := func(user string, scores ...int) {
				for _, score := range scores {
					_, err := s.RecordAnswer(ctx, entryFor(user, score, now))
					require.NoError(t, err)
				}
			}
			record("low", 2)
			record("high", 9, 9)
			record("tie-few", 6)
			record("tie-many", 6, 6, 6)
			record("tie-many-b", 6, 6, 6)

			board, err := s.Leaderboard(ctx, 10)
			require.NoError(t, err)
			ids := make([]string, len(board))
			for i, e := range board {
				ids[i] = e.UserID
			}
			assert.Equal(t, []string{"high", "tie-many", "tie-many-b", "tie-few", "low"}, ids)

			top, err := s.Leaderboard(ctx, 2)
			require.NoError(t, err)
			assert.Len(t, top, 2)
		})
	}
}

func TestStore_RejectsInvalidEntries(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			bad := entryFor("erin", 11, time.Now())
			_, err := s.RecordAnswer(ctx, bad)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "score", verr.Field)

			noUser := entryFor("", 5, time.Now())
			_, err = s.RecordAnswer(ctx, noUser)
			require.ErrorAs(t, err, &verr)

			_, err = s.UserStats(ctx, "erin")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_Snapshots(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			_, err := s.LoadSnapshot(ctx, "frank")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.SaveSnapshot(ctx, "frank", []byte(`{"phase":"interview"}`)))
			require.NoError(t, s.SaveSnapshot(ctx, "frank", []byte(`{"phase":"summary"}`)))

			data, err := s.LoadSnapshot(ctx, "frank")
			require.NoError(t, err)
			assert.JSONEq(t, `{"phase":"summary"}`, string(data))

			require.NoError(t, s.DeleteSnapshot(ctx, "frank"))
			_, err = s.LoadSnapshot(ctx, "frank")
			assert.ErrorIs(t, err, ErrNotFound)

			// deleting a missing snapshot is not an error
			require.NoError(t, s.DeleteSnapshot(ctx, "frank"))
		})
	}
}

func TestStore_ConcurrentRecordsForSameUser(t *testing.T) {
	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			ctx := context.Background()

			const writers = 20
			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, err := s.RecordAnswer(ctx, entryFor("grace", 3, time.Now().UTC()))
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			stats, err := s.UserStats(ctx, "grace")
			require.NoError(t, err)
			assert.Equal(t, writers, stats.Attempts)
			assert.Equal(t, 3*writers, stats.TotalScore)
		})
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "memory")
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "x.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	_, err = Open(ctx, "mysql://localhost/db")
	assert.Error(t, err)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	_, err = s.RecordAnswer(ctx, entryFor("heidi", 7, time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	stats, err := s.UserStats(ctx, "heidi")
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalScore)
	assert.Equal(t, 1, stats.Attempts)
}

func TestNormalizePage(t *testing.T) {
	page, size := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultHistoryPageSize, size)

	_, size = normalizePage(2, 1000)
	assert.Equal(t, MaxHistoryPageSize, size)
}

func TestSortLeaderboard(t *testing.T) {
	entries := []LeaderboardEntry{
		{UserID: "b", TotalScore: 10, Attempts: 2},
		{UserID: "a", TotalScore: 5, Attempts: 1},
		{UserID: "c", TotalScore: 21, Attempts: 3},
	}
	SortLeaderboard(entries)
	assert.Equal(t, "c", entries[0].UserID)
	assert.Equal(t, "b", entries[1].UserID)
	assert.Equal(t, "a", entries[2].UserID)
}
