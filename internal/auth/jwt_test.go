package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("unit-secret", 7*24*time.Hour)

	token, expiresAt, err := m.Issue("user-1", "student")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// seven day session
	assert.WithinDuration(t, time.Now().UTC().Add(7*24*time.Hour), expiresAt, time.Minute)

	claims, err := m.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "student", claims.Role)
	assert.Equal(t, "session", claims.TokenType)
	assert.NotEmpty(t, claims.JTI)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewManager("secret-a", time.Hour)
	verifier := NewManager("secret-b", time.Hour)

	token, _, err := issuer.Issue("user-1", "student")
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := NewManager("unit-secret", -time.Minute)

	token, _, err := m.Issue("user-1", "student")
	require.NoError(t, err)

	_, err = m.Verify(token)
	assert.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := NewManager("unit-secret", time.Hour)

	_, err := m.Verify("not.a.token")
	assert.Error(t, err)
}

func TestTokensAreUnique(t *testing.T) {
	m := NewManager("unit-secret", time.Hour)

	a, _, err := m.Issue("user-1", "student")
	require.NoError(t, err)

	b, _, err := m.Issue("user-1", "student")
	require.NoError(t, err)

	// jti makes otherwise identical sessions distinct
	assert.NotEqual(t, a, b)
}
