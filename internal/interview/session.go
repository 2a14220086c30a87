package interview

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one user's live interview. It is owned by a single caller at a
// time; the Engine mutates it only through its transition methods.
type Session struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Phase     Phase      `json:"phase"`
	Settings  Settings   `json:"settings"`
	Questions []string   `json:"questions"`
	Answers   []string   `json:"answers"`
	Feedback  []string   `json:"feedback"`
	Scores    []int      `json:"scores"`
	Index     int        `json:"current_index"`
	Summary   *Summary   `json:"summary,omitempty"`
	Deadline  *time.Time `json:"deadline,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewSession returns an empty session in the selection phase.
func NewSession(userID string, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Phase:     PhaseSelection,
		Questions: []string{},
		Answers:   []string{},
		Feedback:  []string{},
		Scores:    []int{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Total returns the number of questions in the session.
func (s *Session) Total() int {
	return len(s.Questions)
}

// CurrentQuestion returns the question awaiting an answer.
func (s *Session) CurrentQuestion() (string, bool) {
	if s.Phase != PhaseInterview || s.Index >= len(s.Questions) {
		return "", false
	}
	return s.Questions[s.Index], true
}

// LastFeedback returns the feedback of the most recently answered question.
func (s *Session) LastFeedback() string {
	if len(s.Feedback) == 0 {
		return ""
	}
	return s.Feedback[len(s.Feedback)-1]
}

// Remaining returns the time left on the current question, if a timer is running.
func (s *Session) Remaining(now time.Time) (time.Duration, bool) {
	if s.Deadline == nil {
		return 0, false
	}
	left := s.Deadline.Sub(now)
	if left < 0 {
		left = 0
	}
	return left, true
}

// Average returns the mean score over recorded answers, skips included.
func (s *Session) Average() float64 {
	if len(s.Scores) == 0 {
		return 0
	}
	total := 0
	for _, score := range s.Scores {
		total += score
	}
	return float64(total) / float64(len(s.Scores))
}

// Validate checks the structural invariants of a session, e.g. after loading a snapshot.
func (s *Session) Validate() error {
	if s.UserID == "" {
		return fmt.Errorf("session has no user id")
	}
	switch s.Phase {
	case PhaseSelection, PhaseInterview, PhaseSummary:
	default:
		return fmt.Errorf("unknown phase %q", s.Phase)
	}
	if len(s.Answers) != s.Index || len(s.Feedback) != s.Index || len(s.Scores) != s.Index {
		return fmt.Errorf("answers (%d), feedback (%d) and scores (%d) must match current index %d",
			len(s.Answers), len(s.Feedback), len(s.Scores), s.Index)
	}
	if s.Index < 0 || s.Index > len(s.Questions) {
		return fmt.Errorf("current index %d out of range [0, %d]", s.Index, len(s.Questions))
	}
	for i, score := range s.Scores {
		if score < 0 || score > 10 {
			return fmt.Errorf("score %d at index %d out of range [0, 10]", score, i)
		}
	}
	switch s.Phase {
	case PhaseInterview:
		if len(s.Questions) == 0 || s.Index == len(s.Questions) {
			return fmt.Errorf("interview phase requires an unanswered question")
		}
	case PhaseSummary:
		if s.Index != len(s.Questions) {
			return fmt.Errorf("summary phase requires every question answered")
		}
	}
	return nil
}
