package server

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-coach/internal/config"
)

const testSecret = "test-secret-key-for-jwt-signing-minimum-32-bytes"

func testIssuer(ttl time.Duration) *TokenIssuer {
	return NewTokenIssuer(&config.JWTConfig{Secret: testSecret, TTL: ttl, Issuer: config.TokenIssuer})
}

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := testIssuer(24 * time.Hour)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.UserID())
	assert.Equal(t, config.TokenIssuer, claims.Issuer)
}

func TestTokenIssuer_IssueRequiresUser(t *testing.T) {
	_, err := testIssuer(time.Hour).Issue("")
	assert.Error(t, err)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	issuer := testIssuer(time.Hour)
	issuer.now = func() time.Time { return issued }
	good, err := issuer.Issue("alice")
	require.NoError(t, err)

	otherSecret := NewTokenIssuer(&config.JWTConfig{Secret: "another-secret", TTL: time.Hour, Issuer: config.TokenIssuer})
	otherSecret.now = issuer.now
	wrongKey, err := otherSecret.Issue("alice")
	require.NoError(t, err)

	otherIssuer := NewTokenIssuer(&config.JWTConfig{Secret: testSecret, TTL: time.Hour, Issuer: "someone-else"})
	otherIssuer.now = issuer.now
	wrongIss, err := otherIssuer.Issue("alice")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer: config.TokenIssuer, Subject: "alice", ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
	}}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		at    time.Time
		want  string
	}{
		{"empty", "", issued, "empty"},
		{"garbage", "not.a.jwt", issued, "malformed"},
		{"expired", good, issued.Add(2 * time.Hour), "expired"},
		{"wrong secret", wrongKey, issued, "bad signature"},
		{"wrong issuer", wrongIss, issued, "wrong issuer"},
		{"alg none", none, issued, "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at := tt.at
			issuer.now = func() time.Time { return at }
			_, err := issuer.Verify(tt.token)
			require.ErrorIs(t, err, ErrInvalidToken)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestTokenIssuer_Authenticate(t *testing.T) {
	issuer := testIssuer(time.Hour)
	token, err := issuer.Issue("bob")
	require.NoError(t, err)

	userID, err := issuer.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", userID)

	_, err = issuer.Authenticate("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
