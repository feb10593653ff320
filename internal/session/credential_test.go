package session

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("collaborator-secret"))
	require.NoError(t, err)
	return signed
}

func TestFromToken_AccessToken(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice@example.com",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Type: TokenTypeAccess,
	})

	cred, err := FromToken("Bearer " + token)
	require.NoError(t, err)

	assert.Equal(t, token, cred.Token)
	assert.Equal(t, "alice@example.com", cred.Subject)
	assert.True(t, exp.Equal(cred.ExpiresAt))
	assert.True(t, cred.Valid(time.Now()))
	assert.True(t, cred.Expired(exp.Add(time.Second)))
	assert.Equal(t, "Bearer "+token, cred.Header())
}

func TestFromToken_ExpiredTokenStillDecodes(t *testing.T) {
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "bob@example.com",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})

	cred, err := FromToken(token)
	require.NoError(t, err)
	assert.True(t, cred.Expired(time.Now()))
	assert.False(t, cred.Valid(time.Now()))
}

func TestFromToken_Rejects(t *testing.T) {
	_, err := FromToken("  ")
	assert.True(t, errors.Is(err, ErrEmptyToken))

	_, err = FromToken("not-a-jwt")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	refresh := signToken(t, Claims{Type: "refresh"})
	_, err = FromToken(refresh)
	assert.True(t, errors.Is(err, ErrInvalidTokenType))
}

func TestCredential_NoExpiry(t *testing.T) {
	cred := Credential{Token: "opaque"}
	assert.False(t, cred.Expired(time.Now().Add(24*time.Hour)))
	assert.True(t, cred.Valid(time.Now()))
	assert.False(t, Credential{}.Valid(time.Now()))
}
