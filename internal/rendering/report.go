package rendering

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/jonathan/interview-coach/internal/interview"
)

// Report is the exportable view of a session.
type Report struct {
	UserID      string
	Role        string
	Domain      string
	Mode        string
	QuestionSet string
	Difficulty  string
	Date        string
	Average     string
	Items       []ReportItem
	Summary     string
}

// ReportItem is one question with its outcome.
type ReportItem struct {
	Number   int
	Question string
	Answer   string
	Feedback string
	Score    string
}

// BuildReport flattens a session into a Report. Unanswered questions are listed
// without answer or score.
func BuildReport(s *interview.Session) (*Report, error) {
	if s == nil {
		return nil, notExportable("session is nil")
	}
	if len(s.Questions) == 0 {
		return nil, notExportable("session has no questions")
	}

	r := &Report{
		UserID:      s.UserID,
		Role:        s.Settings.Role,
		Domain:      s.Settings.Domain,
		Mode:        string(s.Settings.Mode),
		QuestionSet: string(s.Settings.QuestionSet),
		Difficulty:  string(s.Settings.Difficulty),
		Date:        s.UpdatedAt.UTC().Format(time.RFC1123),
		Average:     fmt.Sprintf("%.1f/10", s.Average()),
		Items:       make([]ReportItem, 0, len(s.Questions)),
	}
	if s.Summary != nil {
		r.Summary = strings.TrimSpace(s.Summary.Text)
	}

	for i, q := range s.Questions {
		item := ReportItem{Number: i + 1, Question: q}
		if i < len(s.Answers) {
			item.Answer = s.Answers[i]
		}
		if i < len(s.Feedback) {
			item.Feedback = strings.TrimSpace(s.Feedback[i])
		}
		if i < len(s.Scores) {
			item.Score = fmt.Sprintf("%d/10", s.Scores[i])
		}
		r.Items = append(r.Items, item)
	}
	return r, nil
}

const textTemplate = `Interview Summary
=================
User:         {{.UserID}}
Role:         {{.Role}}{{if .Domain}} ({{.Domain}}){{end}}
Mode:         {{.Mode}}
Question set: {{.QuestionSet}}
Difficulty:   {{.Difficulty}}
Date:         {{.Date}}
Average:      {{.Average}}
{{range .Items}}
Question {{.Number}}: {{.Question}}
{{- if .Score}}
Answer: {{.Answer}}
Feedback: {{.Feedback}}
Score: {{.Score}}
{{- else}}
(not answered)
{{- end}}
{{end}}
{{- if .Summary}}
Overall Feedback
----------------
{{.Summary}}
{{end}}`

var reportTemplate = template.Must(template.New("report").Parse(textTemplate))

// Text renders the session as a plain-text report.
func Text(s *interview.Session) ([]byte, error) {
	report, err := BuildReport(s)
	if err != nil {
		return nil, err
	}

	var out strings.Builder
	if err := reportTemplate.Execute(&out, report); err != nil {
		return nil, &ExportError{Format: FormatText, Stage: "template", Err: err}
	}
	return []byte(out.String()), nil
}
