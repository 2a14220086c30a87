// Package middleware holds the API's HTTP middleware: bearer-token auth and zap
// request logging.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// Authenticator resolves a bearer token to the user it was issued to.
type Authenticator interface {
	Authenticate(token string) (userID string, err error)
}

type userKey struct{}

// WithUser returns ctx carrying the authenticated userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userKey{}, userID)
}

// UserFrom returns the authenticated user stored by RequireBearer.
func UserFrom(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userKey{}).(string)
	return userID, ok && userID != ""
}

// RequireBearer rejects requests without a valid "Authorization: Bearer" token
// and stores the token's user in the request context.
func RequireBearer(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				challenge(w)
				return
			}
			userID, err := auth.Authenticate(token)
			if err != nil || userID == "" {
				challenge(w)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID)))
		})
	}
}

// RequireSameUser allows a request only when the authenticated user is the one
// pathUser names. It must run after RequireBearer.
func RequireSameUser(pathUser func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := UserFrom(r.Context())
			switch {
			case !ok:
				challenge(w)
			case userID != pathUser(r):
				deny(w, http.StatusForbidden, "token does not grant access to this user")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	fields := strings.Fields(r.Header.Get("Authorization"))
	if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
		return "", false
	}
	return fields[1], true
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="interview-coach"`)
	deny(w, http.StatusUnauthorized, "unauthorized")
}

func deny(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
