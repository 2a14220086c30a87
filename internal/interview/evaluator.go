package interview

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/prompts"
)

// EvaluationUnavailableFeedback is recorded when the evaluator could not reach the model.
const EvaluationUnavailableFeedback = "Feedback is unavailable because the evaluation service could not be reached. " +
	"Your answer was recorded with a score of 0/10."

// scoreMarker matches "Score: 7/10" and common variants such as "**Score:** 7 / 10"
// or "Overall score - 7.5/10".
var scoreMarker = regexp.MustCompile(`(?i)\bscore\b[^0-9\n]{0,12}?(\d{1,2}(?:\.\d+)?)\s*/\s*10\b`)

// Evaluation is the outcome of grading one answer.
type Evaluation struct {
	Feedback   string
	Score      int
	ScoreFound bool
	// Degraded is set when Feedback is the fixed unavailable text.
	Degraded bool
}

// AnswerEvaluator grades answers through the LLM gateway.
type AnswerEvaluator struct {
	gateway Invoker
	params  llm.Params
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAnswerEvaluator creates an evaluator. logger and metrics may be nil.
func NewAnswerEvaluator(gateway Invoker, params llm.Params, logger *zap.Logger, metrics *observability.Metrics) *AnswerEvaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerEvaluator{gateway: gateway, params: params, logger: logger, metrics: metrics}
}

// Evaluate grades answer to question.
//
// An empty answer is a *ValidationError and the gateway is not called. Gateway
// failures degrade to EvaluationUnavailableFeedback with score 0; only
// cancellation of ctx is returned as an error.
func (e *AnswerEvaluator) Evaluate(ctx context.Context, question, answer string, mode Mode) (Evaluation, error) {
	if strings.TrimSpace(answer) == "" {
		return Evaluation{}, &ValidationError{Field: "answer", Message: "must not be empty"}
	}

	system, user, err := buildEvaluationPrompt(question, answer, mode)
	if err != nil {
		return Evaluation{}, err
	}

	text, err := e.gateway.Invoke(ctx, system, user, e.params)
	if err != nil {
		if ctx.Err() != nil {
			return Evaluation{}, ctx.Err()
		}
		e.logger.Warn("evaluation degraded", zap.Error(err))
		e.metrics.Degraded("evaluator")
		return Evaluation{Feedback: EvaluationUnavailableFeedback, Degraded: true}, nil
	}

	feedback := llm.CleanText(text)
	if feedback == "" {
		e.logger.Warn("evaluation returned empty feedback")
		e.metrics.Degraded("evaluator")
		return Evaluation{Feedback: EvaluationUnavailableFeedback, Degraded: true}, nil
	}

	score, found := ExtractScore(feedback)
	if !found {
		e.metrics.ScoreExtractionMiss()
		e.logger.Info("no score marker in feedback",
			zap.Int("feedback_length", len(feedback)),
		)
	}

	return Evaluation{Feedback: feedback, Score: score, ScoreFound: found}, nil
}

// ExtractScore finds the "Score: N/10" marker in feedback. The last in-range
// marker wins; decimals are floored. It returns 0, false when no valid marker
// is present.
func ExtractScore(feedback string) (int, bool) {
	matches := scoreMarker.FindAllStringSubmatch(feedback, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		value, err := strconv.ParseFloat(matches[i][1], 64)
		if err != nil {
			continue
		}
		if value < 0 || value > 10 {
			continue
		}
		return int(math.Floor(value)), true
	}
	return 0, false
}

func buildEvaluationPrompt(question, answer string, mode Mode) (system, user string, err error) {
	system, err = prompts.Get(promptFile, "evaluate-system")
	if err != nil {
		return "", "", err
	}
	criterion, err := prompts.Get(promptFile, "evaluate-criterion-"+mode.Kind())
	if err != nil {
		return "", "", err
	}
	user, err = prompts.Render(promptFile, "evaluate-request", map[string]string{
		"Kind":      mode.Kind(),
		"Question":  question,
		"Answer":    answer,
		"Criterion": criterion,
	})
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}
