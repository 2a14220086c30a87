package interview

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/llm"
)

// fakeGateway implements Invoker with a scripted reply function.
type fakeGateway struct {
	mu       sync.Mutex
	reply    func(call int, system, user string) (string, error)
	calls    int
	backoffs []int
	users    []string
	attempts int
}

func newFakeGateway(reply func(call int, system, user string) (string, error)) *fakeGateway {
	return &fakeGateway{reply: reply, attempts: llm.DefaultMaxAttempts}
}

func (g *fakeGateway) Invoke(_ context.Context, system, user string, _ llm.Params) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	call := g.calls
	g.calls++
	g.users = append(g.users, user)
	return g.reply(call, system, user)
}

func (g *fakeGateway) Backoff(ctx context.Context, attempt int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.backoffs = append(g.backoffs, attempt)
	return ctx.Err()
}

func (g *fakeGateway) MaxAttempts() int { return g.attempts }

func (g *fakeGateway) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func replyText(text string) func(int, string, string) (string, error) {
	return func(int, string, string) (string, error) { return text, nil }
}

func exhausted() error {
	return &llm.GatewayExhausted{Attempts: 3, Last: errors.New("rate limit exceeded")}
}

func fatal() error {
	return &llm.GatewayFailure{Cause: errors.New("invalid api key")}
}

// countingGrader wraps an AnswerGrader and counts calls.
type countingGrader struct {
	inner AnswerGrader
	calls int
}

func (c *countingGrader) Evaluate(ctx context.Context, question, answer string, mode Mode) (Evaluation, error) {
	c.calls++
	return c.inner.Evaluate(ctx, question, answer, mode)
}

// recordingSummarizer captures the last request.
type recordingSummarizer struct {
	calls int
	last  SummaryRequest
	text  string
}

func (r *recordingSummarizer) Summarize(_ context.Context, req SummaryRequest) Summary {
	r.calls++
	r.last = SummaryRequest{
		Role:        req.Role,
		Mode:        req.Mode,
		QuestionSet: req.QuestionSet,
		Difficulty:  req.Difficulty,
		Questions:   append([]string(nil), req.Questions...),
		Answers:     append([]string(nil), req.Answers...),
		Feedbacks:   append([]string(nil), req.Feedbacks...),
	}
	return Summary{Text: r.text, AllSkipped: AllSkipped(req.Answers)}
}

// staticQuestions returns a fixed list.
type staticQuestions struct {
	questions []string
	err       error
	calls     int
	last      GenerateRequest
}

func (s *staticQuestions) Generate(_ context.Context, req GenerateRequest) ([]string, error) {
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	if len(s.questions) > req.Count {
		return s.questions[:req.Count], nil
	}
	return s.questions, nil
}

// failingRecorder always fails.
type failingRecorder struct{}

func (failingRecorder) RecordAnswer(context.Context, db.HistoryEntry) (*db.LeaderboardEntry, error) {
	return nil, errors.New("database is down")
}

// fakeClock is a settable clock.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeFetcher returns fixed text or an error.
type fakeFetcher struct {
	text string
	err  error
	urls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.text, f.err
}
