package ratelimit

import "strings"

// unlimited applies to probes and scrapes.
var unlimited = map[string]bool{"/health": true, "/metrics": true}

// unlimitedRule is returned for paths that are never limited.
var unlimitedRule = Rule{}

// MatchEndpoint returns the rule for a request, or nil when the default budget
// applies. A "{name}" route segment matches any single path segment and a
// trailing "*" matches one or more remaining segments. When several rules
// match, the one with the fewest wildcard segments wins, then the earliest.
func MatchEndpoint(path string, method string, rules []Rule) *Rule {
	if unlimited[path] {
		return &unlimitedRule
	}

	segments := splitPath(path)
	var best *Rule
	bestWild := -1
	for i := range rules {
		rule := &rules[i]
		if !strings.EqualFold(rule.Method, method) {
			continue
		}
		wild, ok := matchRoute(splitPath(rule.Route), segments)
		if ok && (best == nil || wild < bestWild) {
			best, bestWild = rule, wild
		}
	}
	return best
}

// matchRoute reports whether segments fit route and how many route segments
// were wildcards.
func matchRoute(route, segments []string) (int, bool) {
	wild := 0
	for i, part := range route {
		if i >= len(segments) {
			return 0, false
		}
		if part == "*" && i == len(route)-1 {
			return wild + 1, true
		}
		switch {
		case strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}"):
			wild++
		case part != segments[i]:
			return 0, false
		}
	}
	return wild, len(route) == len(segments)
}

func splitPath(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}
