package interview

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/llm"
)

type engineFixture struct {
	engine     *Engine
	gateway    *fakeGateway
	grader     *countingGrader
	summarizer *recordingSummarizer
	questions  *staticQuestions
	store      *db.Memory
	clock      *fakeClock
}

func newEngineFixture(t *testing.T, questions []string, feedback string) *engineFixture {
	t.Helper()
	f := &engineFixture{
		gateway:    newFakeGateway(replyText(feedback)),
		summarizer: &recordingSummarizer{text: "Summary text"},
		questions:  &staticQuestions{questions: questions},
		store:      db.NewMemory(),
		clock:      &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.grader = &countingGrader{inner: NewAnswerEvaluator(f.gateway, llm.Params{}, nil, nil)}
	f.engine = NewEngine(f.questions, f.grader, f.summarizer,
		WithRecorder(f.store),
		WithClock(f.clock.Now),
	)
	return f
}

func baseSettings(count int) Settings {
	return Settings{
		UserID: "alice",
		Role:   "Software Engineer",
		Mode:   "Technical Interview",
		Count:  count,
	}
}

func assertInvariant(t *testing.T, s *Session) {
	t.Helper()
	assert.Len(t, s.Answers, s.Index)
	assert.Len(t, s.Feedback, s.Index)
	assert.Len(t, s.Scores, s.Index)
	assert.GreaterOrEqual(t, s.Index, 0)
	assert.LessOrEqual(t, s.Index, len(s.Questions))
	assert.NoError(t, s.Validate())
}

func TestEngine_EndToEndScenario(t *testing.T) {
	f := newEngineFixture(t, []string{"What is a goroutine?", "What is a channel?"}, "Solid answer.\nScore: 8/10")
	ctx := context.Background()
	s := f.engine.NewSession("alice")

	require.NoError(t, f.engine.Start(ctx, s, baseSettings(2)))
	assert.Equal(t, PhaseInterview, s.Phase)
	assert.Equal(t, ModeTechnical, s.Settings.Mode)
	assert.Equal(t, 2, s.Total())

	require.NoError(t, f.engine.Submit(ctx, s, "A"))
	assert.Equal(t, PhaseInterview, s.Phase)
	assert.Equal(t, 1, s.Index)
	assertInvariant(t, s)

	require.NoError(t, f.engine.Submit(ctx, s, "Skipped"))

	assert.Equal(t, 2, s.Index)
	assert.Equal(t, PhaseSummary, s.Phase)
	assert.Equal(t, []int{8, 0}, s.Scores)
	assert.Equal(t, []string{"A", SkippedAnswer}, s.Answers)
	assert.Equal(t, SkippedFeedback, s.Feedback[1])
	assert.Equal(t, 1, f.summarizer.calls)
	assert.Equal(t, []string{"A", "Skipped"}, f.summarizer.last.Answers)
	require.NotNil(t, s.Summary)
	assert.Equal(t, "Summary text", s.Summary.Text)
	assert.Nil(t, s.Deadline)
	assertInvariant(t, s)

	// only the submitted answer is persisted
	page, err := f.store.History(ctx, "alice", 1, 5)
	require.NoError(t, err)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, "What is a goroutine?", page.Entries[0].Question)
	assert.Equal(t, 8, page.Entries[0].Score)
	assert.Equal(t, "Technical", page.Entries[0].Mode)
}

func TestEngine_SkipNeverCallsEvaluator(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1", "Q2", "Q3"}, "Score: 5/10")
	ctx := context.Background()
	s := f.engine.NewSession("alice")
	require.NoError(t, f.engine.Start(ctx, s, baseSettings(3)))

	require.NoError(t, f.engine.Skip(ctx, s))

	assert.Equal(t, 0, f.grader.calls)
	assert.Equal(t, 0, f.gateway.callCount())
	assert.Equal(t, []int{0}, s.Scores)

	_, err := f.store.UserStats(ctx, "alice")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestEngine_InvariantHoldsForRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ctx := context.Background()

	for run := 0; run < 25; run++ {
		count := 1 + rng.Intn(MaxQuestionCount)
		questions := make([]string, count)
		for i := range questions {
			questions[i] = "Question"
		}
		f := newEngineFixture(t, questions, "Score: 6/10")
		s := f.engine.NewSession("alice")
		require.NoError(t, f.engine.Start(ctx, s, baseSettings(count)))

		for s.Phase == PhaseInterview {
			before := s.Index
			switch rng.Intn(3) {
			case 0:
				require.NoError(t, f.engine.Submit(ctx, s, "an answer"))
			case 1:
				require.NoError(t, f.engine.Skip(ctx, s))
			default:
				require.NoError(t, f.engine.Retry(s))
				assert.Equal(t, before, s.Index)
			}
			assert.GreaterOrEqual(t, s.Index, before)
			assertInvariant(t, s)
		}

		assert.Equal(t, PhaseSummary, s.Phase)
		assert.Equal(t, count, s.Index)
	}
}

func TestEngine_LeaderboardMatchesSubmittedScores(t *testing.T) {
	scores := []int{3, 9, 7, 0, 10}
	call := 0
	f := newEngineFixture(t, []string{"Q1", "Q2", "Q3", "Q4", "Q5"}, "")
	f.gateway.reply = func(int, string, string) (string, error) {
		text := "Score: " + []string{"3", "9", "7", "0", "10"}[call] + "/10"
		call++
		return text, nil
	}
	ctx := context.Background()
	s := f.engine.NewSession("alice")
	require.NoError(t, f.engine.Start(ctx, s, baseSettings(5)))

	for range scores {
		require.NoError(t, f.engine.Submit(ctx, s, "answer"))
	}

	stats, err := f.store.UserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 29, stats.TotalScore)
	assert.Equal(t, 5, stats.Attempts)
	assert.InDelta(t, 29.0/5.0, stats.Average(), 1e-9)
	assert.Equal(t, scores, s.Scores)
}

func TestEngine_EmptyAnswerIsRejectedWithoutMutation(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1", "Q2"}, "Score: 5/10")
	ctx := context.Background()
	s := f.engine.NewSession("alice")
	require.NoError(t, f.engine.Start(ctx, s, baseSettings(2)))

	err := f.engine.Submit(ctx, s, "   ")

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, 0, f.gateway.callCount())
	assertInvariant(t, s)
}

func TestEngine_DegradedEvaluationStillAdvances(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1", "Q2"}, "")
	f.gateway.reply = func(int, string, string) (string, error) { return "", exhausted() }
	ctx := context.Background()
	s := f.engine.NewSession("alice")
	require.NoError(t, f.engine.Start(ctx, s, baseSettings(2)))

	require.NoError(t, f.engine.Submit(ctx, s, "my answer"))

	assert.Equal(t, 1, s.Index)
	assert.Equal(t, EvaluationUnavailableFeedback, s.Feedback[0])
	assert.Equal(t, 0, s.Scores[0])
}

func TestEngine_PersistenceFailureDoesNotAdvance(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1", "Q2"}, "Score: 7/10")
	f.engine = NewEngine(f.questions, f.grader, f.summarizer, WithRecorder(failingRecorder{}), WithClock(f.clock.Now))
	ctx := context.Background()
	s := f.engine.NewSession("alice")
	require.NoError(t, f.engine.Start(ctx, s, baseSettings(2)))

	err := f.engine.Submit(ctx, s, "answer")

	var rerr *RecordError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, 0, s.Index)
	assertInvariant(t, s)
}

func TestEngine_StartValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
		field  string
	}{
		{"empty user", func(s *Settings) { s.UserID = "  " }, "user_id"},
		{"empty role", func(s *Settings) { s.Role = "" }, "role"},
		{"role too long", func(s *Settings) { s.Role = strings.Repeat("r", 101) }, "role"},
		{"domain too long", func(s *Settings) { s.Domain = strings.Repeat("d", 101) }, "domain"},
		{"too many questions", func(s *Settings) { s.Count = 11 }, "count"},
		{"bad mode", func(s *Settings) { s.Mode = "Whiteboard" }, "mode"},
		{"bad url", func(s *Settings) { s.JobPostingURL = "not a url" }, "job_posting_url"},
		{"negative timer", func(s *Settings) { s.TimeLimitSeconds = -5 }, "time_limit_seconds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(t, []string{"Q1"}, "Score: 5/10")
			s := NewSession("", f.clock.Now())
			settings := baseSettings(1)
			tt.mutate(&settings)

			err := f.engine.Start(context.Background(), s, settings)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, PhaseSelection, s.Phase)
			assert.Equal(t, 0, f.questions.calls)
		})
	}
}

func TestEngine_StartAcceptsUnicodeRoleAtLimit(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1"}, "Score: 5/10")
	s := f.engine.NewSession("alice")
	settings := baseSettings(1)
	settings.Role = strings.Repeat("é", 100)

	require.NoError(t, f.engine.Start(context.Background(), s, settings))
}

func TestEngine_StartGenerationFailureStaysInSelection(t *testing.T) {
	f := newEngineFixture(t, nil, "")
	f.questions.err = &GenerationFailed{Cause: errors.New("bad credentials")}
	s := f.engine.NewSession("alice")

	err := f.engine.Start(context.Background(), s, baseSettings(2))

	var failed *GenerationFailed
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, PhaseSelection, s.Phase)
	assert.Empty(t, s.Questions)
}

func TestEngine_StartCountMismatchStaysInSelection(t *testing.T) {
	f := newEngineFixture(t, []string{"only one"}, "")
	s := f.engine.NewSession("alice")

	err := f.engine.Start(context.Background(), s, baseSettings(3))

	var failed *GenerationFailed
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, PhaseSelection, s.Phase)
}

func TestEngine_StartUsesDefaultsAndJobContext(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1", "Q2", "Q3", "Q4", "Q5"}, "")
	fetcher := &fakeFetcher{text: "Posting body"}
	f.engine = NewEngine(f.questions, f.grader, f.summarizer, WithContextFetcher(fetcher), WithClock(f.clock.Now))
	s := f.engine.NewSession("alice")
	settings := Settings{UserID: "alice", Role: "SRE", Mode: "behavioral", JobPostingURL: "https://example.com/job"}

	require.NoError(t, f.engine.Start(context.Background(), s, settings))

	assert.Equal(t, DefaultQuestionCount, s.Settings.Count)
	assert.Equal(t, SetStandard, s.Settings.QuestionSet)
	assert.Equal(t, DifficultyMedium, s.Settings.Difficulty)
	assert.Equal(t, ModeBehavioral, f.questions.last.Mode)
	assert.Equal(t, "Posting body", f.questions.last.Context)
	assert.Equal(t, []string{"https://example.com/job"}, fetcher.urls)
}

func TestEngine_JobContextFailureIsIgnored(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1"}, "")
	fetcher := &fakeFetcher{err: errors.New("404")}
	f.engine = NewEngine(f.questions, f.grader, f.summarizer, WithContextFetcher(fetcher))
	s := f.engine.NewSession("alice")
	settings := baseSettings(1)
	settings.JobPostingURL = "https://example.com/gone"

	require.NoError(t, f.engine.Start(context.Background(), s, settings))
	assert.Empty(t, f.questions.last.Context)
}

func TestEngine_PhaseErrors(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1"}, "Score: 5/10")
	ctx := context.Background()
	s := f.engine.NewSession("alice")

	var perr *PhaseError
	assert.ErrorAs(t, f.engine.Submit(ctx, s, "x"), &perr)
	assert.ErrorAs(t, f.engine.Skip(ctx, s), &perr)
	assert.ErrorAs(t, f.engine.Retry(s), &perr)
	assert.ErrorAs(t, f.engine.Timeout(ctx, s), &perr)

	require.NoError(t, f.engine.Start(ctx, s, baseSettings(1)))
	assert.ErrorAs(t, f.engine.Start(ctx, s, baseSettings(1)), &perr)

	require.NoError(t, f.engine.Skip(ctx, s))
	assert.Equal(t, PhaseSummary, s.Phase)
	assert.ErrorAs(t, f.engine.Submit(ctx, s, "late"), &perr)
}

func TestEngine_ResetReturnsToSelection(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1"}, "Score: 9/10")
	ctx := context.Background()
	s := f.engine.NewSession("alice")
	require.NoError(t, f.engine.Start(ctx, s, baseSettings(1)))
	require.NoError(t, f.engine.Submit(ctx, s, "answer"))
	oldID := s.ID

	f.engine.Reset(s)

	assert.Equal(t, PhaseSelection, s.Phase)
	assert.Equal(t, "alice", s.UserID)
	assert.NotEqual(t, oldID, s.ID)
	assert.Empty(t, s.Questions)
	assert.Nil(t, s.Summary)
	assertInvariant(t, s)

	// persisted state is unaffected
	stats, err := f.store.UserStats(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Attempts)

	require.NoError(t, f.engine.Start(ctx, s, baseSettings(1)))
}

func TestEngine_TimerLifecycle(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1", "Q2", "Q3"}, "Score: 6/10")
	ctx := context.Background()
	s := f.engine.NewSession("alice")
	settings := baseSettings(3)
	settings.TimeLimitSeconds = 60
	require.NoError(t, f.engine.Start(ctx, s, settings))

	left, ok := s.Remaining(f.clock.Now())
	require.True(t, ok)
	assert.Equal(t, time.Minute, left)

	// Retry resets the countdown only
	f.clock.Advance(40 * time.Second)
	require.NoError(t, f.engine.Retry(s))
	left, _ = s.Remaining(f.clock.Now())
	assert.Equal(t, time.Minute, left)
	assert.Equal(t, 0, s.Index)

	// Tick before the deadline does nothing
	fired, err := f.engine.Tick(ctx, s)
	require.NoError(t, err)
	assert.False(t, fired)

	// Tick after the deadline fires exactly once for this question
	f.clock.Advance(61 * time.Second)
	fired, err = f.engine.Tick(ctx, s)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, 1, s.Index)
	assert.Equal(t, SkippedAnswer, s.Answers[0])

	fired, err = f.engine.Tick(ctx, s)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, 1, s.Index)

	// A submission after the deadline is recorded as a timeout
	f.clock.Advance(2 * time.Minute)
	err = f.engine.Submit(ctx, s, "too late")
	assert.ErrorIs(t, err, ErrTimeExpired)
	assert.Equal(t, 2, s.Index)
	assert.Equal(t, SkippedAnswer, s.Answers[1])
	assert.Equal(t, 0, f.grader.calls)
	assertInvariant(t, s)
}

func TestEngine_NoTimerWhenDisabled(t *testing.T) {
	f := newEngineFixture(t, []string{"Q1"}, "Score: 6/10")
	s := f.engine.NewSession("alice")
	require.NoError(t, f.engine.Start(context.Background(), s, baseSettings(1)))

	_, ok := s.Remaining(f.clock.Now())
	assert.False(t, ok)
	fired, err := f.engine.Tick(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestEngine_WithRealGeneratorFallback(t *testing.T) {
	gw := newFakeGateway(func(int, string, string) (string, error) { return "", exhausted() })
	engine := NewEngine(
		NewQuestionGenerator(gw, llm.Params{}, nil, nil),
		NewAnswerEvaluator(gw, llm.Params{}, nil, nil),
		NewSummarySynthesizer(gw, llm.Params{}, nil, nil),
	)
	ctx := context.Background()
	s := engine.NewSession("alice")

	require.NoError(t, engine.Start(ctx, s, baseSettings(2)))
	require.NoError(t, engine.Submit(ctx, s, "answer"))
	require.NoError(t, engine.Skip(ctx, s))

	assert.Equal(t, PhaseSummary, s.Phase)
	assert.Equal(t, []int{0, 0}, s.Scores)
	assert.True(t, s.Summary.Degraded)
}
