package ratelimit

import "time"

// Rule is a budget of Limit requests per Window for one route. Route is a
// template such as "/users/{user_id}/session" or "/admin/*"; see MatchEndpoint.
// Burst defaults to Limit.
type Rule struct {
	Route  string
	Method string
	Limit  int
	Window time.Duration
	Burst  int
}

// Config holds rate limiting configuration. Requests that match no rule draw
// from one shared per-client budget of DefaultLimit per DefaultWindow.
type Config struct {
	Enabled       bool
	DefaultLimit  int
	DefaultWindow time.Duration
	IdleTTL       time.Duration   // buckets unused this long are dropped; 0 means one hour
	Exempt        map[string]bool // client IDs that are never limited
	Rules         []Rule
}

// NewConfig allows rps requests per second with bursts of burst on ordinary
// routes, plus the stricter model-backed budgets from ModelRules. rps <= 0
// disables limiting.
func NewConfig(rps float64, burst int, exempt []string) *Config {
	if rps <= 0 {
		return &Config{}
	}
	if burst <= 0 {
		burst = max(int(rps), 1)
	}
	cfg := &Config{
		Enabled:       true,
		DefaultLimit:  burst,
		DefaultWindow: time.Duration(float64(burst) / rps * float64(time.Second)),
		Exempt:        make(map[string]bool, len(exempt)),
		Rules:         ModelRules(),
	}
	for _, id := range exempt {
		cfg.Exempt[id] = true
	}
	return cfg
}

// ModelRules budgets the routes that call the language model, per client.
func ModelRules() []Rule {
	return []Rule{
		// question generation
		{Route: "/users/{user_id}/session", Method: "POST", Limit: 20, Window: time.Hour, Burst: 3},
		// evaluation, and the summary after the last answer
		{Route: "/users/{user_id}/session/answer", Method: "POST", Limit: 120, Window: time.Hour, Burst: 5},
	}
}
