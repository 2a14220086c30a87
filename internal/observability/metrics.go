package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "interview"
)

// Answer kinds recorded by Metrics.Answer.
const (
	AnswerSubmitted = "submitted"
	AnswerSkipped   = "skipped"
	AnswerTimeout   = "timeout"
)

// Metrics holds the Prometheus collectors for the interview service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatewayAttempts     *prometheus.CounterVec
	gatewayBackoff      prometheus.Histogram
	gatewayLatency      prometheus.Histogram
	gatewayExhausted    prometheus.Counter
	scoreExtractionMiss prometheus.Counter
	degradedResults     *prometheus.CounterVec
	questionFallbacks   prometheus.Counter
	answers             *prometheus.CounterVec
	sessionsStarted     prometheus.Counter
	sessionsCompleted   prometheus.Counter
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	persistenceFailures prometheus.Counter
}

// NewMetrics registers all collectors on reg. Passing nil uses a fresh registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	auto := promauto.With(reg)

	return &Metrics{
		gatewayAttempts: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "attempts_total",
			Help:      "LLM gateway attempts by outcome (success, transient, fatal)",
		}, []string{"outcome"}),
		gatewayBackoff: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "backoff_seconds",
			Help:      "Backoff waits between gateway attempts",
			Buckets:   []float64{0.5, 1, 2, 4, 8, 16},
		}),
		gatewayLatency: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "call_duration_seconds",
			Help:      "Latency of single provider calls",
			Buckets:   prometheus.DefBuckets,
		}),
		gatewayExhausted: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gateway",
			Name:      "exhausted_total",
			Help:      "Gateway invocations that ran out of attempts on transient failures",
		}),
		scoreExtractionMiss: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "evaluator",
			Name:      "score_extraction_misses_total",
			Help:      "Feedback texts without a parsable Score: N/10 marker",
		}),
		degradedResults: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "degraded_results_total",
			Help:      "Fallback results returned instead of model output, by component",
		}, []string{"component"}),
		questionFallbacks: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "generator",
			Name:      "placeholder_sets_total",
			Help:      "Question sets replaced by deterministic placeholders",
		}),
		answers: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "answers_total",
			Help:      "Recorded answers by kind (submitted, skipped, timeout)",
		}, []string{"kind"}),
		sessionsStarted: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Sessions that entered the interview phase",
		}),
		sessionsCompleted: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "session",
			Name:      "completed_total",
			Help:      "Sessions that reached the summary phase",
		}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "status_code"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration by route and method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		persistenceFailures: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "store",
			Name:      "record_failures_total",
			Help:      "History/leaderboard writes that failed",
		}),
	}
}

// GatewayAttempt counts one provider call with the given outcome.
func (m *Metrics) GatewayAttempt(outcome string) {
	if m == nil {
		return
	}
	m.gatewayAttempts.WithLabelValues(outcome).Inc()
}

// GatewayBackoff records a wait between attempts.
func (m *Metrics) GatewayBackoff(d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayBackoff.Observe(d.Seconds())
}

// GatewayLatency records the duration of one provider call.
func (m *Metrics) GatewayLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayLatency.Observe(d.Seconds())
}

// GatewayExhausted counts an invocation that used every attempt.
func (m *Metrics) GatewayExhausted() {
	if m == nil {
		return
	}
	m.gatewayExhausted.Inc()
}

// ScoreExtractionMiss counts feedback without a score marker.
func (m *Metrics) ScoreExtractionMiss() {
	if m == nil {
		return
	}
	m.scoreExtractionMiss.Inc()
}

// Degraded counts a fallback result produced by component.
func (m *Metrics) Degraded(component string) {
	if m == nil {
		return
	}
	m.degradedResults.WithLabelValues(component).Inc()
}

// QuestionFallback counts a placeholder question set.
func (m *Metrics) QuestionFallback() {
	if m == nil {
		return
	}
	m.questionFallbacks.Inc()
}

// Answer counts a recorded answer of the given kind.
func (m *Metrics) Answer(kind string) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(kind).Inc()
}

// SessionStarted counts a session entering the interview phase.
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

// SessionCompleted counts a session reaching the summary phase.
func (m *Metrics) SessionCompleted() {
	if m == nil {
		return
	}
	m.sessionsCompleted.Inc()
}

// PersistenceFailure counts a failed history/leaderboard write.
func (m *Metrics) PersistenceFailure() {
	if m == nil {
		return
	}
	m.persistenceFailures.Inc()
}

// HTTPRequest records one served request.
func (m *Metrics) HTTPRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, statusLabel(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
