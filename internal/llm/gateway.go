package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/observability"
)

// DefaultMaxAttempts is the total number of calls per invocation (1 initial + 2 retries).
const DefaultMaxAttempts = 3

// DefaultBackoffUnit is the base of the exponential backoff (2^attempt units).
const DefaultBackoffUnit = time.Second

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Gateway wraps a Client with bounded retry and exponential backoff.
// It is safe for concurrent use if the underlying Client is.
type Gateway struct {
	client      Client
	defaults    Params
	maxAttempts int
	unit        time.Duration
	sleep       Sleeper
	logger      *zap.Logger
	metrics     *observability.Metrics
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithBackoffUnit sets the backoff base unit.
func WithBackoffUnit(unit time.Duration) GatewayOption {
	return func(g *Gateway) { g.unit = unit }
}

// WithSleeper replaces the wait function (tests use a no-op).
func WithSleeper(s Sleeper) GatewayOption {
	return func(g *Gateway) { g.sleep = s }
}

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(n int) GatewayOption {
	return func(g *Gateway) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithLogger sets the gateway logger.
func WithLogger(l *zap.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = l }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *observability.Metrics) GatewayOption {
	return func(g *Gateway) { g.metrics = m }
}

// NewGateway creates a Gateway over client; defaults fill unset request params.
func NewGateway(client Client, defaults Params, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		client:      client,
		defaults:    defaults,
		maxAttempts: DefaultMaxAttempts,
		unit:        DefaultBackoffUnit,
		sleep:       sleepContext,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// MaxAttempts returns the attempt budget per invocation.
func (g *Gateway) MaxAttempts() int {
	return g.maxAttempts
}

// Invoke sends one system/user prompt pair and returns the model text.
//
// Transient failures are retried after 2^attempt backoff units. A non-transient
// failure aborts immediately with *GatewayFailure; running out of attempts yields
// *GatewayExhausted. Empty content is returned unchanged.
func (g *Gateway) Invoke(ctx context.Context, systemPrompt, userPrompt string, params Params) (string, error) {
	req := Request{
		System: systemPrompt,
		User:   userPrompt,
		Params: params.Merge(g.defaults),
	}

	var last error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		start := time.Now()
		text, err := g.client.Complete(ctx, req)
		g.metrics.GatewayLatency(time.Since(start))

		if err == nil {
			g.metrics.GatewayAttempt("success")
			return text, nil
		}

		if ctx.Err() != nil || !IsTransient(err) {
			g.metrics.GatewayAttempt("fatal")
			g.logger.Error("llm call failed",
				zap.Int("attempt", attempt),
				zap.String("model", req.Params.Model),
				zap.Error(err),
			)
			return "", &GatewayFailure{Cause: err}
		}

		g.metrics.GatewayAttempt("transient")
		g.logger.Warn("llm call throttled",
			zap.Int("attempt", attempt),
			zap.String("model", req.Params.Model),
			zap.Error(err),
		)
		last = err

		if attempt == g.maxAttempts-1 {
			break
		}
		if err := g.Backoff(ctx, attempt); err != nil {
			return "", &GatewayFailure{Cause: err}
		}
	}

	g.metrics.GatewayExhausted()
	return "", &GatewayExhausted{Attempts: g.maxAttempts, Last: last}
}

// Backoff waits 2^attempt units. Callers that retry at a higher level share the schedule.
func (g *Gateway) Backoff(ctx context.Context, attempt int) error {
	d := g.unit * time.Duration(1<<attempt)
	g.metrics.GatewayBackoff(d)
	return g.sleep(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
