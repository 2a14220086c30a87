package interview

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/observability"
	"github.com/jonathan/interview-coach/internal/prompts"
)

const promptFile = "interview.json"

// numberingToken matches a leading list number such as "1.", "2)", "3:" or "4 -".
var numberingToken = regexp.MustCompile(`^\d+\s*[.):\-]?\s*`)

// GenerateRequest carries the settings that shape a question set.
type GenerateRequest struct {
	Role        string
	Domain      string
	Mode        Mode
	Count       int
	QuestionSet QuestionSet
	Difficulty  Difficulty
	// Context is optional job-posting text used to ground the questions.
	Context string
}

// QuestionGenerator produces interview questions through the LLM gateway.
type QuestionGenerator struct {
	gateway Invoker
	params  llm.Params
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewQuestionGenerator creates a generator. logger and metrics may be nil.
func NewQuestionGenerator(gateway Invoker, params llm.Params, logger *zap.Logger, metrics *observability.Metrics) *QuestionGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionGenerator{gateway: gateway, params: params, logger: logger, metrics: metrics}
}

// Generate returns exactly req.Count questions.
//
// A response with too few numbered lines, or a transiently exhausted gateway,
// triggers a fresh generation up to the gateway's attempt budget. When every
// attempt falls short the deterministic FallbackQuestions are returned. A fatal
// gateway failure is reported as *GenerationFailed.
func (g *QuestionGenerator) Generate(ctx context.Context, req GenerateRequest) ([]string, error) {
	if req.Count < 1 {
		return nil, &ValidationError{Field: "count", Message: "must be at least 1"}
	}

	system, user, err := buildQuestionPrompt(req)
	if err != nil {
		return nil, &GenerationFailed{Cause: err}
	}

	attempts := g.gateway.MaxAttempts()
	for attempt := 0; attempt < attempts; attempt++ {
		text, err := g.gateway.Invoke(ctx, system, user, g.params)
		switch {
		case err == nil:
			questions := ParseQuestions(text)
			if len(questions) >= req.Count {
				return questions[:req.Count], nil
			}
			g.logger.Warn("insufficient questions generated",
				zap.Int("attempt", attempt),
				zap.Int("want", req.Count),
				zap.Int("got", len(questions)),
			)
		case llm.IsExhausted(err):
			g.logger.Warn("question generation throttled",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		default:
			return nil, &GenerationFailed{Cause: err}
		}

		if attempt < attempts-1 {
			if err := g.gateway.Backoff(ctx, attempt); err != nil {
				return nil, &GenerationFailed{Cause: err}
			}
		}
	}

	g.metrics.QuestionFallback()
	g.logger.Warn("using placeholder questions",
		zap.String("role", req.Role),
		zap.String("mode", string(req.Mode)),
		zap.Int("count", req.Count),
	)
	return FallbackQuestions(req.Role, req.Mode, req.Count), nil
}

// ParseQuestions extracts numbered questions from model output. Only lines whose
// first character is a digit are kept; the numbering token is stripped and lines
// left empty by stripping are dropped. Order is preserved.
func ParseQuestions(text string) []string {
	text = llm.CleanText(text)

	var questions []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r, _ := utf8.DecodeRuneInString(line); !unicode.IsDigit(r) {
			continue
		}
		q := strings.TrimSpace(numberingToken.ReplaceAllString(line, ""))
		if q == "" {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

var placeholderTemplates = map[Mode][]string{
	ModeTechnical: {
		"Describe a challenging technical problem you solved as a %s and how you approached it.",
		"What trade-offs do you weigh when designing a new system as a %s?",
		"How do you test and debug your work as a %s?",
		"Walk through how you would find and fix a performance bottleneck in a %s role.",
		"Which tools and technologies matter most for a %s, and why?",
	},
	ModeBehavioral: {
		"Tell me about a time you faced a tight deadline as a %s. What was the situation, what did you do, and what was the result?",
		"Describe a disagreement with a teammate in a %s role and how you resolved it.",
		"Tell me about a decision you made as a %s with incomplete information.",
		"Describe a time you took ownership of a problem outside your responsibilities as a %s.",
		"Tell me about a mistake you made as a %s and what you learned from it.",
	},
}

// FallbackQuestions returns count placeholder questions for role and mode.
// The result depends only on its arguments.
func FallbackQuestions(role string, mode Mode, count int) []string {
	templates, ok := placeholderTemplates[mode]
	if !ok {
		templates = placeholderTemplates[ModeTechnical]
	}
	if role == "" {
		role = "candidate"
	}

	questions := make([]string, 0, count)
	for i := 0; i < count; i++ {
		q := fmt.Sprintf(templates[i%len(templates)], role)
		if round := i / len(templates); round > 0 {
			q = fmt.Sprintf("%s (follow-up %d)", q, round)
		}
		questions = append(questions, q)
	}
	return questions
}

func buildQuestionPrompt(req GenerateRequest) (system, user string, err error) {
	system, err = prompts.Get(promptFile, "question-system")
	if err != nil {
		return "", "", err
	}

	count := strconv.Itoa(req.Count)
	domainClause := ""
	if req.Domain != "" {
		domainClause = " in the " + req.Domain + " domain"
	}

	var sb strings.Builder
	request, err := prompts.Render(promptFile, "question-request", map[string]string{
		"Count":        count,
		"Kind":         req.Mode.Kind(),
		"Role":         req.Role,
		"DomainClause": domainClause,
	})
	if err != nil {
		return "", "", err
	}
	sb.WriteString(request)

	style, err := prompts.Get(promptFile, fmt.Sprintf("question-%s-%s", req.Mode.Kind(), req.QuestionSet.promptKey()))
	if err != nil {
		return "", "", err
	}
	sb.WriteString(style)

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = DifficultyMedium
	}
	level, err := prompts.Get(promptFile, "question-difficulty-"+strings.ToLower(string(difficulty)))
	if err != nil {
		return "", "", err
	}
	sb.WriteString(level)

	if req.Context != "" {
		sb.WriteString(prompts.Format(prompts.MustGet(promptFile, "question-context"), map[string]string{
			"Context": req.Context,
		}))
	}

	footer, err := prompts.Render(promptFile, "question-footer", map[string]string{"Count": count})
	if err != nil {
		return "", "", err
	}
	sb.WriteString(footer)

	return system, sb.String(), nil
}
