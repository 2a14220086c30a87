package interview

import (
	"errors"
	"fmt"
)

// ErrTimeExpired is returned by Submit when the per-question deadline had
// already passed; the question was recorded as skipped instead.
var ErrTimeExpired = errors.New("time limit expired, question recorded as skipped")

// ValidationError reports malformed caller input. No state is changed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// PhaseError reports an action that is not allowed in the session's current phase.
type PhaseError struct {
	Action string
	Phase  Phase
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("cannot %s while session is in %s phase", e.Action, e.Phase)
}

// GenerationFailed reports that questions could not be generated; the session stays in selection.
type GenerationFailed struct {
	Cause error
}

func (e *GenerationFailed) Error() string {
	return fmt.Sprintf("question generation failed: %v", e.Cause)
}

func (e *GenerationFailed) Unwrap() error {
	return e.Cause
}

// RecordError reports that a completed answer could not be persisted; the session did not advance.
type RecordError struct {
	Cause error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("failed to record answer: %v", e.Cause)
}

func (e *RecordError) Unwrap() error {
	return e.Cause
}
