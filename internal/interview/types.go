// Package interview implements the interview-practice engine: question
// generation, answer evaluation, summary synthesis and the session state
// machine that drives them.
package interview

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SkippedAnswer is the sentinel answer recorded for skipped and timed-out questions.
const SkippedAnswer = "Skipped"

// SkippedFeedback is the fixed feedback recorded alongside SkippedAnswer.
const SkippedFeedback = "No feedback for skipped question"

// Default settings applied by Settings.Normalize.
const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 10
	MaxRoleLength        = 100
	MaxDomainLength      = 100
)

// Mode is the interview style.
type Mode string

// Interview modes
const (
	ModeTechnical  Mode = "Technical"
	ModeBehavioral Mode = "Behavioral"
)

// ParseMode accepts "Technical", "Behavioral" and their "... Interview" forms, case-insensitively.
func ParseMode(s string) (Mode, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSpace(strings.TrimSuffix(v, "interview"))
	switch v {
	case "technical":
		return ModeTechnical, nil
	case "behavioral", "behavioural":
		return ModeBehavioral, nil
	default:
		return "", &ValidationError{Field: "mode", Message: fmt.Sprintf("unknown interview mode %q", s)}
	}
}

// Kind returns the lowercase adjective used in prompts ("technical" or "behavioral").
func (m Mode) Kind() string {
	if m == ModeBehavioral {
		return "behavioral"
	}
	return "technical"
}

// QuestionSet selects the style of generated questions.
type QuestionSet string

// Question sets
const (
	SetStandard QuestionSet = "Standard"
	SetFAANG    QuestionSet = "FAANG-style"
	SetSTAR     QuestionSet = "STAR-based"
)

// ParseQuestionSet matches a question set name case-insensitively; empty means Standard.
func ParseQuestionSet(s string) (QuestionSet, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard":
		return SetStandard, nil
	case "faang", "faang-style", "faang style":
		return SetFAANG, nil
	case "star", "star-based", "star based":
		return SetSTAR, nil
	default:
		return "", &ValidationError{Field: "question_set", Message: fmt.Sprintf("unknown question set %q", s)}
	}
}

func (q QuestionSet) promptKey() string {
	switch q {
	case SetFAANG:
		return "faang"
	case SetSTAR:
		return "star"
	default:
		return "standard"
	}
}

// Difficulty tunes question depth.
type Difficulty string

// Difficulty levels
const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// ParseDifficulty matches a difficulty case-insensitively; empty means Medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "medium":
		return DifficultyMedium, nil
	case "easy":
		return DifficultyEasy, nil
	case "hard":
		return DifficultyHard, nil
	default:
		return "", &ValidationError{Field: "difficulty", Message: fmt.Sprintf("unknown difficulty %q", s)}
	}
}

// Phase is the lifecycle state of a Session.
type Phase string

// Session phases
const (
	PhaseSelection Phase = "selection"
	PhaseInterview Phase = "interview"
	PhaseSummary   Phase = "summary"
)

// Settings are the user's choices confirmed before an interview starts.
type Settings struct {
	UserID           string      `json:"user_id" validate:"required,max=100"`
	Role             string      `json:"role" validate:"required,max=100"`
	Domain           string      `json:"domain,omitempty" validate:"max=100"`
	Mode             Mode        `json:"mode" validate:"required,oneof=Technical Behavioral"`
	QuestionSet      QuestionSet `json:"question_set" validate:"required,oneof=Standard FAANG-style STAR-based"`
	Difficulty       Difficulty  `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	Count            int         `json:"count" validate:"min=1,max=10"`
	TimeLimitSeconds int         `json:"time_limit_seconds,omitempty" validate:"min=0,max=3600"`
	JobPostingURL    string      `json:"job_posting_url,omitempty" validate:"omitempty,url"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Normalize trims free-text fields, canonicalizes enum spellings and applies defaults.
// Unknown enum values are left as-is for Validate to reject.
func (s *Settings) Normalize() {
	s.UserID = strings.TrimSpace(s.UserID)
	s.Role = strings.TrimSpace(s.Role)
	s.Domain = strings.TrimSpace(s.Domain)
	s.JobPostingURL = strings.TrimSpace(s.JobPostingURL)

	if m, err := ParseMode(string(s.Mode)); err == nil {
		s.Mode = m
	}
	if q, err := ParseQuestionSet(string(s.QuestionSet)); err == nil {
		s.QuestionSet = q
	}
	if d, err := ParseDifficulty(string(s.Difficulty)); err == nil {
		s.Difficulty = d
	}
	if s.Count == 0 {
		s.Count = DefaultQuestionCount
	}
}

// Validate checks the settings and returns a *ValidationError for the first problem found.
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return &ValidationError{Field: "settings", Message: err.Error()}
	}

	fe := validationErrors[0]
	return &ValidationError{Field: fe.Field(), Message: validationMessage(fe)}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind().String() == "string" {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}
