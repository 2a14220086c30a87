package observability

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonathan/interview-coach/internal/db"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 72
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 10
)

// SessionHeader describes an interview for the opening box.
type SessionHeader struct {
	UserID      string
	Role        string
	Domain      string
	Mode        string
	QuestionSet string
	Difficulty  string
	Count       int
	TimeLimit   time.Duration
}

// Printer handles formatted terminal output for the practice CLI
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content. Long lines wrap.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	inner := boxWidth - 4
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, inner))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		for _, wrapped := range wrap(line, inner) {
			fmt.Fprintf(p.out, "│ %s │\n", pad(wrapped, inner))
		}
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSessionHeader outputs the confirmed interview settings.
func (p *Printer) PrintSessionHeader(h SessionHeader) {
	var sb strings.Builder
	role := h.Role
	if h.Domain != "" {
		role = fmt.Sprintf("%s (%s)", h.Role, h.Domain)
	}
	sb.WriteString(fmt.Sprintf("Candidate:  %s\n", h.UserID))
	sb.WriteString(fmt.Sprintf("Role:       %s\n", role))
	sb.WriteString(fmt.Sprintf("Interview:  %s, %s, %s\n", h.Mode, h.QuestionSet, h.Difficulty))
	sb.WriteString(fmt.Sprintf("Questions:  %d", h.Count))
	if h.TimeLimit > 0 {
		sb.WriteString(fmt.Sprintf("\nTime limit: %s per question", h.TimeLimit))
	}
	p.printBox("PRACTICE INTERVIEW", sb.String())
}

// PrintQuestion outputs the current question. remaining < 0 means no timer.
func (p *Printer) PrintQuestion(index, total int, question string, remaining time.Duration) {
	title := fmt.Sprintf("QUESTION %d OF %d", index, total)
	if remaining >= 0 {
		title = fmt.Sprintf("%s  [%s left]", title, remaining.Round(time.Second))
	}
	p.printBox(title, question)
}

// PrintFeedback outputs the evaluation of an answer.
func (p *Printer) PrintFeedback(feedback string, score int, scoreFound bool) {
	title := fmt.Sprintf("FEEDBACK  (score %d/10)", score)
	if !scoreFound {
		title = "FEEDBACK  (no score found, recorded as 0/10)"
	}
	p.printBox(title, feedback)
}

// PrintNotice outputs a one-line status message.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintNotice(format string, args ...any) {
	fmt.Fprintf(p.out, "» %s\n", fmt.Sprintf(format, args...))
}

// PrintSummary outputs the final report with per-question scores.
func (p *Printer) PrintSummary(text string, scores []int, average float64) {
	var sb strings.Builder
	if len(scores) > 0 {
		parts := make([]string, len(scores))
		for i, s := range scores {
			parts[i] = fmt.Sprintf("Q%d: %d", i+1, s)
		}
		sb.WriteString(fmt.Sprintf("Scores:  %s\n", strings.Join(parts, "  ")))
		sb.WriteString(fmt.Sprintf("Average: %.1f/10\n\n", average))
	}
	sb.WriteString(strings.TrimSpace(text))
	p.printBox("INTERVIEW SUMMARY", sb.String())
}

// PrintHistory outputs one page of a user's answered questions.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintHistory(page *db.HistoryPage) {
	if page == nil || len(page.Entries) == 0 {
		fmt.Fprintln(p.out, "No answered questions yet.")
		return
	}

	var sb strings.Builder
	for i, e := range page.Entries {
		sb.WriteString(fmt.Sprintf("%s  %s, %s  score %d/10\n",
			e.CreatedAt.Format("2006-01-02 15:04"), e.Role, e.Mode, e.Score))
		sb.WriteString(fmt.Sprintf("  Q: %s\n", truncate(e.Question, boxWidth-10)))
		sb.WriteString(fmt.Sprintf("  A: %s", truncate(e.Answer, boxWidth-10)))
		if i < len(page.Entries)-1 {
			sb.WriteString("\n\n")
		}
	}
	p.printBox(fmt.Sprintf("HISTORY  (page %d of %d, %d answers)", page.Page, page.Pages(), page.Total), sb.String())
}

// PrintLeaderboard outputs ranked users.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintLeaderboard(entries []db.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(p.out, "The leaderboard is empty.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-4s %-30s %8s %8s %8s\n", "#", "User", "Average", "Total", "Answers"))
	count := min(len(entries), maxItemsToShow)
	for i := 0; i < count; i++ {
		e := entries[i]
		sb.WriteString(fmt.Sprintf("%-4d %-30s %8.2f %8d %8d", i+1, truncate(e.UserID, 30), e.Average(), e.TotalScore, e.Attempts))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}
	if len(entries) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more", len(entries)-maxItemsToShow))
	}
	p.printBox("LEADERBOARD", sb.String())
}

func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

func truncate(s string, width int) string {
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return string(runes[:width-3]) + "..."
}

// wrap splits line at word boundaries so no piece exceeds width runes.
func wrap(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(line) {
		for utf8.RuneCountInString(word) > width {
			if current.Len() > 0 {
				lines = append(lines, current.String())
				current.Reset()
			}
			runes := []rune(word)
			lines = append(lines, string(runes[:width]))
			word = string(runes[width:])
		}
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(word) > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}
