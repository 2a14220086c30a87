// Package ratelimit keeps per-client token buckets for the HTTP API, with
// tighter budgets on the routes that reach the language model.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const defaultIdleTTL = time.Hour

// Decision is the outcome of one Allow call. Limit is zero when the request
// was not subject to any budget.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Reset      time.Time // when the bucket is full again
	RetryAfter time.Duration
}

type bucket struct {
	tokens   *rate.Limiter
	lastSeen time.Time
}

// Limiter hands out tokens per client and rule. Idle buckets are swept from
// Allow, so a Limiter owns no goroutine.
type Limiter struct {
	cfg Config
	now func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	nextSweep time.Time
}

// NewLimiter returns a limiter for cfg. A nil cfg disables limiting.
func NewLimiter(cfg *Config) *Limiter {
	l := &Limiter{buckets: make(map[string]*bucket), now: time.Now}
	if cfg != nil {
		l.cfg = *cfg
	}
	if l.cfg.IdleTTL <= 0 {
		l.cfg.IdleTTL = defaultIdleTTL
	}
	return l
}

// Allow takes a token for clientID's request to path.
func (l *Limiter) Allow(clientID, path, method string) Decision {
	if !l.cfg.Enabled || l.cfg.Exempt[clientID] {
		return Decision{Allowed: true}
	}

	rule := MatchEndpoint(path, method, l.cfg.Rules)
	key := clientID + " *"
	if rule != nil {
		key = clientID + " " + method + " " + rule.Route
	} else {
		rule = &Rule{Limit: l.cfg.DefaultLimit, Window: l.cfg.DefaultWindow}
	}
	if rule.Limit <= 0 || rule.Window <= 0 {
		return Decision{Allowed: true}
	}

	now := l.now()
	tokens := l.take(key, rule, now)

	allowed := tokens.AllowN(now, 1)
	left := tokens.TokensAt(now)
	perSecond := float64(tokens.Limit())

	d := Decision{Allowed: allowed, Limit: rule.Limit, Remaining: max(int(left), 0), Reset: now}
	if missing := float64(tokens.Burst()) - left; missing > 0 {
		d.Reset = now.Add(time.Duration(missing / perSecond * float64(time.Second)))
	}
	if !allowed {
		d.RetryAfter = max(time.Duration((1-left)/perSecond*float64(time.Second)), 0)
	}
	return d
}

// take returns the bucket for key, creating it on first use, and sweeps idle
// buckets at most once per IdleTTL.
func (l *Limiter) take(key string, rule *Rule, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		l.sweep(now.Add(-l.cfg.IdleTTL))
		l.nextSweep = now.Add(l.cfg.IdleTTL)
	}

	b, ok := l.buckets[key]
	if !ok {
		burst := rule.Burst
		if burst <= 0 {
			burst = rule.Limit
		}
		b = &bucket{tokens: rate.NewLimiter(rate.Every(rule.Window/time.Duration(rule.Limit)), burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.tokens
}

// sweep drops buckets last used before cutoff. Callers hold mu.
func (l *Limiter) sweep(cutoff time.Time) {
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
