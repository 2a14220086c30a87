package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ProviderError is returned by a Client when the provider call fails.
// Transient marks throttling-like conditions that are worth retrying.
type ProviderError struct {
	Provider   string
	Message    string
	StatusCode int
	Transient  bool
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// GatewayFailure is a non-retryable failure (bad credentials, invalid request, cancellation).
type GatewayFailure struct {
	Cause error
}

func (e *GatewayFailure) Error() string {
	return fmt.Sprintf("llm gateway failure: %v", e.Cause)
}

func (e *GatewayFailure) Unwrap() error {
	return e.Cause
}

// GatewayExhausted is returned when every attempt failed transiently.
type GatewayExhausted struct {
	Attempts int
	Last     error
}

func (e *GatewayExhausted) Error() string {
	return fmt.Sprintf("llm gateway exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *GatewayExhausted) Unwrap() error {
	return e.Last
}

// IsTransient reports whether err is a retryable provider condition.
// Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var perr *ProviderError
	if errors.As(err, &perr) && perr.Transient {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "rate limit")
}

// IsExhausted reports whether err is a GatewayExhausted.
func IsExhausted(err error) bool {
	var exhausted *GatewayExhausted
	return errors.As(err, &exhausted)
}
