package interview

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/observability"
)

// Invoker is the gateway surface the generator, evaluator and synthesizer use.
// *llm.Gateway implements it.
type Invoker interface {
	Invoke(ctx context.Context, systemPrompt, userPrompt string, params llm.Params) (string, error)
	Backoff(ctx context.Context, attempt int) error
	MaxAttempts() int
}

// QuestionSource generates the questions for a new session.
type QuestionSource interface {
	Generate(ctx context.Context, req GenerateRequest) ([]string, error)
}

// AnswerGrader evaluates one answer.
type AnswerGrader interface {
	Evaluate(ctx context.Context, question, answer string, mode Mode) (Evaluation, error)
}

// Summarizer produces the final report.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) Summary
}

// Recorder persists a completed answer and updates the user's leaderboard entry.
type Recorder interface {
	RecordAnswer(ctx context.Context, entry db.HistoryEntry) (*db.LeaderboardEntry, error)
}

// ContextFetcher loads job-posting text for a URL.
type ContextFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Engine drives sessions through selection, interview and summary.
// It holds no per-session state and may be shared across goroutines;
// each Session must be used by one goroutine at a time.
type Engine struct {
	questions  QuestionSource
	grader     AnswerGrader
	summarizer Summarizer
	recorder   Recorder
	fetcher    ContextFetcher
	now        func() time.Time
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithRecorder sets where submitted answers are persisted.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// WithContextFetcher enables job-posting context for sessions that set a URL.
func WithContextFetcher(f ContextFetcher) EngineOption {
	return func(e *Engine) { e.fetcher = f }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// WithEngineLogger sets the engine logger.
func WithEngineLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithEngineMetrics attaches Prometheus collectors.
func WithEngineMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine creates an engine from its three model-backed components.
func NewEngine(questions QuestionSource, grader AnswerGrader, summarizer Summarizer, opts ...EngineOption) *Engine {
	e := &Engine{
		questions:  questions,
		grader:     grader,
		summarizer: summarizer,
		now:        time.Now,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewSession returns a fresh session stamped with the engine clock.
func (e *Engine) NewSession(userID string) *Session {
	return NewSession(userID, e.now())
}

// Start validates settings, generates questions and moves s into the interview
// phase. On any error s is left unchanged.
func (e *Engine) Start(ctx context.Context, s *Session, settings Settings) error {
	if s.Phase != PhaseSelection {
		return &PhaseError{Action: "start", Phase: s.Phase}
	}

	settings.Normalize()
	if s.UserID != "" && settings.UserID == "" {
		settings.UserID = s.UserID
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if s.UserID != "" && settings.UserID != s.UserID {
		return &ValidationError{Field: "user_id", Message: "does not match the session owner"}
	}

	req := GenerateRequest{
		Role:        settings.Role,
		Domain:      settings.Domain,
		Mode:        settings.Mode,
		Count:       settings.Count,
		QuestionSet: settings.QuestionSet,
		Difficulty:  settings.Difficulty,
		Context:     e.jobContext(ctx, settings.JobPostingURL),
	}

	questions, err := e.questions.Generate(ctx, req)
	if err != nil {
		return err
	}
	if len(questions) != settings.Count {
		return &GenerationFailed{Cause: &ValidationError{
			Field:   "questions",
			Message: "generated question count does not match the requested count",
		}}
	}

	now := e.now()
	s.UserID = settings.UserID
	s.Settings = settings
	s.Questions = questions
	s.Answers = []string{}
	s.Feedback = []string{}
	s.Scores = []int{}
	s.Index = 0
	s.Summary = nil
	s.Phase = PhaseInterview
	s.UpdatedAt = now
	e.resetTimer(s, now)

	e.metrics.SessionStarted()
	e.logger.Info("interview started",
		zap.String("session_id", s.ID),
		zap.String("user_id", s.UserID),
		zap.String("mode", string(settings.Mode)),
		zap.Int("count", settings.Count),
	)
	return nil
}

// Submit evaluates answer to the current question, persists it and advances.
//
// The literal SkippedAnswer is treated as Skip. An empty answer is a
// *ValidationError. If the question's deadline had already passed the question
// is recorded as a timeout and ErrTimeExpired is returned. If persistence fails
// the session is not advanced and a *RecordError is returned.
func (e *Engine) Submit(ctx context.Context, s *Session, answer string) error {
	if s.Phase != PhaseInterview {
		return &PhaseError{Action: "submit an answer", Phase: s.Phase}
	}
	if e.expired(s, e.now()) {
		if err := e.Timeout(ctx, s); err != nil {
			return err
		}
		return ErrTimeExpired
	}

	answer = strings.TrimSpace(answer)
	if answer == SkippedAnswer {
		return e.Skip(ctx, s)
	}
	if answer == "" {
		return &ValidationError{Field: "answer", Message: "must not be empty"}
	}

	question := s.Questions[s.Index]
	eval, err := e.grader.Evaluate(ctx, question, answer, s.Settings.Mode)
	if err != nil {
		return err
	}

	if e.recorder != nil {
		entry := db.HistoryEntry{
			ID:          uuid.NewString(),
			UserID:      s.UserID,
			CreatedAt:   e.now(),
			Role:        s.Settings.Role,
			Mode:        string(s.Settings.Mode),
			QuestionSet: string(s.Settings.QuestionSet),
			Difficulty:  string(s.Settings.Difficulty),
			Question:    question,
			Answer:      answer,
			Feedback:    eval.Feedback,
			Score:       eval.Score,
		}
		if _, err := e.recorder.RecordAnswer(ctx, entry); err != nil {
			e.metrics.PersistenceFailure()
			e.logger.Error("failed to record answer",
				zap.String("session_id", s.ID),
				zap.String("user_id", s.UserID),
				zap.Error(err),
			)
			return &RecordError{Cause: err}
		}
	}

	e.metrics.Answer(observability.AnswerSubmitted)
	e.advance(ctx, s, answer, eval.Feedback, eval.Score)
	return nil
}

// Skip records the sentinel answer with score 0 without calling the evaluator.
func (e *Engine) Skip(ctx context.Context, s *Session) error {
	if s.Phase != PhaseInterview {
		return &PhaseError{Action: "skip", Phase: s.Phase}
	}
	e.metrics.Answer(observability.AnswerSkipped)
	e.advance(ctx, s, SkippedAnswer, SkippedFeedback, 0)
	return nil
}

// Timeout records the current question as skipped because its time ran out.
func (e *Engine) Timeout(ctx context.Context, s *Session) error {
	if s.Phase != PhaseInterview {
		return &PhaseError{Action: "time out", Phase: s.Phase}
	}
	e.logger.Info("question timed out",
		zap.String("session_id", s.ID),
		zap.Int("index", s.Index),
	)
	e.metrics.Answer(observability.AnswerTimeout)
	e.advance(ctx, s, SkippedAnswer, SkippedFeedback, 0)
	return nil
}

// Retry restarts the timer of the current question. Nothing else changes.
func (e *Engine) Retry(s *Session) error {
	if s.Phase != PhaseInterview {
		return &PhaseError{Action: "retry", Phase: s.Phase}
	}
	now := e.now()
	e.resetTimer(s, now)
	s.UpdatedAt = now
	return nil
}

// Tick fires Timeout if the current question's deadline has passed. It reports
// whether a timeout was recorded. Since the deadline moves with the question,
// a question times out at most once.
func (e *Engine) Tick(ctx context.Context, s *Session) (bool, error) {
	if s.Phase != PhaseInterview || !e.expired(s, e.now()) {
		return false, nil
	}
	if err := e.Timeout(ctx, s); err != nil {
		return false, err
	}
	return true, nil
}

// Reset discards the session's interview and returns it to selection.
// Persisted history and leaderboard entries are unaffected.
func (e *Engine) Reset(s *Session) {
	now := e.now()
	userID := s.UserID
	*s = *NewSession(userID, now)
}

func (e *Engine) advance(ctx context.Context, s *Session, answer, feedback string, score int) {
	now := e.now()
	s.Answers = append(s.Answers, answer)
	s.Feedback = append(s.Feedback, feedback)
	s.Scores = append(s.Scores, score)
	s.Index++
	s.UpdatedAt = now

	if s.Index < len(s.Questions) {
		e.resetTimer(s, now)
		return
	}

	s.Deadline = nil
	summary := e.summarizer.Summarize(ctx, SummaryRequest{
		Role:        s.Settings.Role,
		Mode:        s.Settings.Mode,
		QuestionSet: s.Settings.QuestionSet,
		Difficulty:  s.Settings.Difficulty,
		Questions:   s.Questions,
		Answers:     s.Answers,
		Feedbacks:   s.Feedback,
	})
	s.Summary = &summary
	s.Phase = PhaseSummary
	s.UpdatedAt = e.now()

	e.metrics.SessionCompleted()
	e.logger.Info("interview completed",
		zap.String("session_id", s.ID),
		zap.String("user_id", s.UserID),
		zap.Float64("average_score", s.Average()),
		zap.Bool("summary_degraded", summary.Degraded),
	)
}

func (e *Engine) resetTimer(s *Session, now time.Time) {
	if s.Settings.TimeLimitSeconds <= 0 {
		s.Deadline = nil
		return
	}
	deadline := now.Add(time.Duration(s.Settings.TimeLimitSeconds) * time.Second)
	s.Deadline = &deadline
}

func (e *Engine) expired(s *Session, now time.Time) bool {
	return s.Deadline != nil && !now.Before(*s.Deadline)
}

func (e *Engine) jobContext(ctx context.Context, url string) string {
	if url == "" || e.fetcher == nil {
		return ""
	}
	text, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		e.logger.Warn("job posting unavailable, continuing without context",
			zap.String("url", url),
			zap.Error(err),
		)
		return ""
	}
	return text
}
