package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/interview"
	"github.com/jonathan/interview-coach/internal/rendering"
	"github.com/jonathan/interview-coach/internal/schemas"
	"github.com/jonathan/interview-coach/internal/sessions"
)

// RequestError indicates a malformed request body or query.
type RequestError struct {
	Message string
	Cause   error
}

func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error {
	return e.Cause
}

// SnapshotError indicates a stored snapshot that cannot be restored.
type SnapshotError struct {
	Message string
	Cause   error
}

func (e *SnapshotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid snapshot: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid snapshot: %s", e.Message)
}

func (e *SnapshotError) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		validationErr *interview.ValidationError
		storeValidErr *db.ValidationError
		requestErr    *RequestError
		schemaErr     *schemas.ValidationError
		snapshotErr   *SnapshotError
		phaseErr      *interview.PhaseError
		generationErr *interview.GenerationFailed
		recordErr     *interview.RecordError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &storeValidErr), errors.As(err, &requestErr):
		return http.StatusBadRequest
	case errors.As(err, &schemaErr), errors.As(err, &snapshotErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &phaseErr), errors.Is(err, rendering.ErrNotExportable):
		return http.StatusConflict
	case errors.Is(err, sessions.ErrNotFound), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &generationErr):
		return http.StatusBadGateway
	case errors.As(err, &recordErr):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message shown to clients for err.
func PublicMessage(err error, status int) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusBadGateway:
		return "question generation is unavailable, please try again"
	case http.StatusServiceUnavailable:
		return "your answer could not be saved, please try again"
	case http.StatusGatewayTimeout:
		return "request timed out"
	default:
		return err.Error()
	}
}
