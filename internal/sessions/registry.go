// Package sessions keeps live interview sessions between requests.
package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jonathan/interview-coach/internal/interview"
)

// ErrNotFound is returned when a user has no live session.
var ErrNotFound = errors.New("session not found")

// Registry stores one live session per user.
type Registry interface {
	Get(ctx context.Context, userID string) (*interview.Session, error)
	Put(ctx context.Context, s *interview.Session) error
	Delete(ctx context.Context, userID string) error
}

func encode(s *interview.Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return data, nil
}

func decode(data []byte) (*interview.Session, error) {
	var s interview.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &s, nil
}
