package observability

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/interview-coach/internal/db"
)

func TestPrintSessionHeader(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSessionHeader(SessionHeader{
		UserID:      "alice",
		Role:        "Backend Engineer",
		Domain:      "payments",
		Mode:        "Technical",
		QuestionSet: "FAANG-style",
		Difficulty:  "Hard",
		Count:       3,
		TimeLimit:   90 * time.Second,
	})
	output := buf.String()

	assert.Contains(t, output, "PRACTICE INTERVIEW")
	assert.Contains(t, output, "Backend Engineer (payments)")
	assert.Contains(t, output, "Technical, FAANG-style, Hard")
	assert.Contains(t, output, "1m30s per question")
}

func TestPrintQuestion(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintQuestion(2, 5, "How would you design a rate limiter?", 45*time.Second)
	assert.Contains(t, buf.String(), "QUESTION 2 OF 5  [45s left]")

	buf.Reset()
	p.PrintQuestion(1, 1, "Tell me about yourself.", -1)
	assert.Contains(t, buf.String(), "QUESTION 1 OF 1")
	assert.NotContains(t, buf.String(), "left]")
}

func TestPrintFeedback(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintFeedback("Clear answer.\nScore: 8/10", 8, true)
	assert.Contains(t, buf.String(), "score 8/10")

	buf.Reset()
	p.PrintFeedback("Rambling.", 0, false)
	assert.Contains(t, buf.String(), "no score found")
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSummary("  Strong on fundamentals.  ", []int{7, 0, 9}, 16.0/3.0)
	output := buf.String()

	assert.Contains(t, output, "INTERVIEW SUMMARY")
	assert.Contains(t, output, "Q1: 7  Q2: 0  Q3: 9")
	assert.Contains(t, output, "Average: 5.3/10")
	assert.Contains(t, output, "Strong on fundamentals.")
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintHistory(&db.HistoryPage{
		Entries: []db.HistoryEntry{{
			CreatedAt: time.Date(2025, 3, 4, 15, 30, 0, 0, time.UTC),
			Role:      "SRE",
			Mode:      "Behavioral",
			Question:  strings.Repeat("why ", 40),
			Answer:    "because",
			Score:     6,
		}},
		Page:     1,
		PageSize: 5,
		Total:    1,
	})
	output := buf.String()

	assert.Contains(t, output, "HISTORY  (page 1 of 1, 1 answers)")
	assert.Contains(t, output, "2025-03-04 15:30  SRE, Behavioral  score 6/10")
	assert.Contains(t, output, "...")
}

func TestPrintHistory_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintHistory(nil)
	assert.Equal(t, "No answered questions yet.\n", buf.String())
}

func TestPrintLeaderboard(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	entries := make([]db.LeaderboardEntry, 12)
	for i := range entries {
		entries[i] = db.LeaderboardEntry{UserID: "user", TotalScore: 10, Attempts: 2}
	}
	entries[0].UserID = "alice"

	p.PrintLeaderboard(entries)
	output := buf.String()

	assert.Contains(t, output, "LEADERBOARD")
	assert.Contains(t, output, "alice")
	assert.Contains(t, output, "5.00")
	assert.Contains(t, output, "... and 2 more")
}

func TestPrintBox_WrapsLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("T", strings.Repeat("word ", 40)+strings.Repeat("x", 100))

	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.Equal(t, boxWidth, utf8.RuneCountInString(line), line)
	}
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"short"}, wrap("short", 10))
	assert.Equal(t, []string{"one two", "three"}, wrap("one two three", 8))
	assert.Equal(t, []string{"abcde", "fgh"}, wrap("abcdefgh", 5))
}
