package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/rendering"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/sessions"
)

// SessionState is the client view of a session.
type SessionState struct {
	SessionID        string              `json:"session_id"`
	UserID           string              `json:"user_id"`
	Phase            interview.Phase     `json:"phase"`
	Settings         *interview.Settings `json:"settings,omitempty"`
	Question         string              `json:"question,omitempty"`
	Index            int                 `json:"index"`
	Total            int                 `json:"total"`
	LastFeedback     string              `json:"last_feedback,omitempty"`
	RemainingSeconds *int                `json:"remaining_seconds,omitempty"`
	Scores           []int               `json:"scores"`
	Average          float64             `json:"average"`
	Summary          *interview.Summary  `json:"summary,omitempty"`
	TimedOut         bool                `json:"timed_out,omitempty"`
}

// AnswerRequest is the body of POST /users/{user_id}/session/answer.
type AnswerRequest struct {
	Answer string `json:"answer"`
}

func newSessionState(sess *interview.Session, now time.Time) SessionState {
	state := SessionState{
		SessionID:    sess.ID,
		UserID:       sess.UserID,
		Phase:        sess.Phase,
		Total:        sess.Total(),
		LastFeedback: sess.LastFeedback(),
		Scores:       sess.Scores,
		Average:      sess.Average(),
		Summary:      sess.Summary,
	}
	if state.Scores == nil {
		state.Scores = []int{}
	}
	if sess.Phase != interview.PhaseSelection {
		settings := sess.Settings
		state.Settings = &settings
	}

	switch sess.Phase {
	case interview.PhaseInterview:
		state.Question, _ = sess.CurrentQuestion()
		state.Index = sess.Index + 1
		if left, ok := sess.Remaining(now); ok {
			seconds := int(left.Round(time.Second) / time.Second)
			state.RemainingSeconds = &seconds
		}
	case interview.PhaseSummary:
		state.Index = sess.Total()
	}
	return state
}

// loadSession returns the user's live session, or a fresh one in selection.
func (s *Server) loadSession(ctx context.Context, userID string) (*interview.Session, error) {
	sess, err := s.registry.Get(ctx, userID)
	if errors.Is(err, sessions.ErrNotFound) {
		return s.engine.NewSession(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// mutate runs action on the user's session under the user's lock and stores the
// result. ErrTimeExpired still stores, since the question was recorded.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, sess *interview.Session) error) {
	userID := pathUserID(r)
	unlock := s.locker.Lock(userID)
	defer unlock()

	ctx := r.Context()
	sess, err := s.loadSession(ctx, userID)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	timedOut := false
	if err := action(ctx, sess); err != nil {
		if !errors.Is(err, interview.ErrTimeExpired) {
			s.errorFromErr(w, r, err)
			return
		}
		timedOut = true
	}

	if err := s.registry.Put(ctx, sess); err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	state := newSessionState(sess, s.now())
	state.TimedOut = timedOut
	s.jsonResponse(w, http.StatusOK, state)
}

// handleGetSession returns the session state, recording a timeout if the
// current question's deadline has passed.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, sess *interview.Session) error {
		timedOut, err := s.engine.Tick(ctx, sess)
		if err != nil {
			return err
		}
		if timedOut {
			return interview.ErrTimeExpired
		}
		return nil
	})
}

// handleStartSession confirms settings and generates the questions.
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var settings interview.Settings
	if err := decodeJSON(w, r, &settings); err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	if settings.Count == 0 {
		settings.Count = s.cfg.DefaultCount
	}
	if settings.TimeLimitSeconds == 0 {
		settings.TimeLimitSeconds = s.cfg.DefaultTimeLimit
	}
	settings.UserID = pathUserID(r)

	s.mutate(w, r, func(ctx context.Context, sess *interview.Session) error {
		return s.engine.Start(ctx, sess, settings)
	})
}

// handleResetSession discards the live session and returns a fresh selection state.
func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)
	unlock := s.locker.Lock(userID)
	defer unlock()

	if err := s.registry.Delete(r.Context(), userID); err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionState(s.engine.NewSession(userID), s.now()))
}

// handleSubmitAnswer evaluates an answer to the current question.
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	s.mutate(w, r, func(ctx context.Context, sess *interview.Session) error {
		return s.engine.Submit(ctx, sess, req.Answer)
	})
}

func (s *Server) handleSkipQuestion(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(ctx context.Context, sess *interview.Session) error {
		return s.engine.Skip(ctx, sess)
	})
}

func (s *Server) handleRetryQuestion(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(_ context.Context, sess *interview.Session) error {
		return s.engine.Retry(sess)
	})
}

// handleExportSession downloads the finished session as text or PDF.
func (s *Server) handleExportSession(w http.ResponseWriter, r *http.Request) {
	format, err := rendering.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.errorFromErr(w, r, &RequestError{Message: err.Error()})
		return
	}

	userID := pathUserID(r)
	sess, err := s.registry.Get(r.Context(), userID)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	if sess.Phase != interview.PhaseSummary {
		s.errorFromErr(w, r, &interview.PhaseError{Action: "export", Phase: sess.Phase})
		return
	}

	var buf bytes.Buffer
	switch format {
	case rendering.FormatPDF:
		err = rendering.PDF(&buf, sess)
	default:
		var text []byte
		text, err = rendering.Text(sess)
		buf.Write(text)
	}
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}

	filename := rendering.Filename(userID, format, s.now())
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Warn("failed to write export", zap.Error(err))
	}
}

// handleSaveSnapshot stores the live session so it can be restored later.
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)
	unlock := s.locker.Lock(userID)
	defer unlock()

	sess, err := s.registry.Get(r.Context(), userID)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	data, err := json.Marshal(sess)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	if err := schemas.ValidateSnapshot(data); err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	if err := s.store.SaveSnapshot(r.Context(), userID, data); err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "saved", "session_id": sess.ID})
}

// handleRestoreSnapshot replaces the live session with the saved one.
func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	userID := pathUserID(r)
	unlock := s.locker.Lock(userID)
	defer unlock()

	data, err := s.store.LoadSnapshot(r.Context(), userID)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	sess, err := DecodeSnapshot(data, userID)
	if err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	if err := s.registry.Put(r.Context(), sess); err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, newSessionState(sess, s.now()))
}

func (s *Server) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSnapshot(r.Context(), pathUserID(r)); err != nil {
		s.errorFromErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DecodeSnapshot validates and decodes a saved session belonging to userID.
func DecodeSnapshot(data []byte, userID string) (*interview.Session, error) {
	if err := schemas.ValidateSnapshot(data); err != nil {
		return nil, err
	}
	var sess interview.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, &SnapshotError{Message: "cannot decode", Cause: err}
	}
	if err := sess.Validate(); err != nil {
		return nil, &SnapshotError{Message: "inconsistent session", Cause: err}
	}
	if sess.UserID != userID {
		return nil, &SnapshotError{Message: "snapshot belongs to another user"}
	}
	return &sess, nil
}
