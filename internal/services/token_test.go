package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.Issue("64f000000000000000000001", "asha")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "64f000000000000000000001", claims.StudentID)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, claims.StudentID, claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	token, err := issuer.Issue("64f000000000000000000001", "asha")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	corrupted := parts[0] + "." + parts[1] + "." + string(sig)

	expired := NewTokenIssuer("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	oldToken, err := expired.Issue("64f000000000000000000001", "asha")
	require.NoError(t, err)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"corrupted":    corrupted,
		"expired":      oldToken,
		"wrong secret": mustIssue(t, NewTokenIssuer("other", time.Hour)),
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Parse(tok)
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}
}

func mustIssue(t *testing.T, issuer *TokenIssuer) string {
	t.Helper()
	tok, err := issuer.Issue("64f000000000000000000001", "asha")
	require.NoError(t, err)
	return tok
}
