package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/prompts"
)

// SummaryUnavailableText is used when the summary could not be generated.
const SummaryUnavailableText = "The interview summary could not be generated because the summary service was unavailable. " +
	"Your answers, feedback and scores were saved and are listed above."

// SummaryRequest carries a finished interview.
type SummaryRequest struct {
	Role        string
	Mode        Mode
	QuestionSet QuestionSet
	Difficulty  Difficulty
	Questions   []string
	Answers     []string
	Feedbacks   []string
}

// Summary is the final report of a session.
type Summary struct {
	Text       string `json:"text"`
	AllSkipped bool   `json:"all_skipped"`
	Degraded   bool   `json:"degraded"`
}

// SummarySynthesizer produces the end-of-interview report.
type SummarySynthesizer struct {
	gateway Invoker
	params  llm.Params
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewSummarySynthesizer creates a synthesizer. logger and metrics may be nil.
func NewSummarySynthesizer(gateway Invoker, params llm.Params, logger *zap.Logger, metrics *observability.Metrics) *SummarySynthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummarySynthesizer{gateway: gateway, params: params, logger: logger, metrics: metrics}
}

// Summarize asks the model for a structured report. When every answer was
// skipped it requests general advice instead of a transcript review. It never
// fails: gateway errors yield SummaryUnavailableText.
func (s *SummarySynthesizer) Summarize(ctx context.Context, req SummaryRequest) Summary {
	allSkipped := AllSkipped(req.Answers)

	system, user, err := buildSummaryPrompt(req, allSkipped)
	if err == nil {
		var text string
		text, err = s.gateway.Invoke(ctx, system, user, s.params)
		if err == nil {
			if text = llm.CleanText(text); text != "" {
				return Summary{Text: text, AllSkipped: allSkipped}
			}
			err = errors.New("empty summary")
		}
	}

	s.logger.Warn("summary degraded", zap.Bool("all_skipped", allSkipped), zap.Error(err))
	s.metrics.Degraded("summary")
	return Summary{Text: SummaryUnavailableText, AllSkipped: allSkipped, Degraded: true}
}

// AllSkipped reports whether answers is empty or holds only the skip sentinel.
func AllSkipped(answers []string) bool {
	for _, a := range answers {
		if a != SkippedAnswer {
			return false
		}
	}
	return true
}

func buildSummaryPrompt(req SummaryRequest, allSkipped bool) (system, user string, err error) {
	system, err = prompts.Get(promptFile, "summary-system")
	if err != nil {
		return "", "", err
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	data := map[string]string{
		"Role":        req.Role,
		"Mode":        string(req.Mode),
		"Kind":        req.Mode.Kind(),
		"QuestionSet": string(req.QuestionSet),
		"Difficulty":  strings.ToLower(string(difficulty)),
	}

	var sb strings.Builder
	if allSkipped {
		for i, q := range req.Questions {
			fmt.Fprintf(&sb, "Question %d: %s\n", i+1, q)
		}
		data["Questions"] = sb.String()
		user, err = prompts.Render(promptFile, "summary-all-skipped", data)
	} else {
		n := min(len(req.Questions), len(req.Answers), len(req.Feedbacks))
		for i := 0; i < n; i++ {
			fmt.Fprintf(&sb, "Question %d: %s\nResponse: %s\nFeedback: %s\n\n", i+1, req.Questions[i], req.Answers[i], req.Feedbacks[i])
		}
		data["Transcript"] = sb.String()
		user, err = prompts.Render(promptFile, "summary-full", data)
	}
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}
