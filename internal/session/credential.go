package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAccess is the only token type accepted as a dashboard credential
const TokenTypeAccess = "access"

var (
	// ErrEmptyToken is returned when no token is supplied
	ErrEmptyToken = errors.New("empty token")
	// ErrInvalidToken is returned when the token cannot be decoded
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidTokenType is returned for refresh or other non-access tokens
	ErrInvalidTokenType = errors.New("invalid token type")
)

// Claims are the fields the collaborator puts in its access tokens
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"type,omitempty"`
}

// Credential is the bearer token a client presents on every authenticated call.
// It is bound once at login and passed explicitly, never read from ambient state.
type Credential struct {
	Token     string
	Subject   string
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// FromToken decodes token without verifying its signature. The collaborator
// owns the signing key; the client only needs the subject and expiry to
// decide when to ask for a fresh login.
func FromToken(token string) (Credential, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Credential{}, ErrEmptyToken
	}

	parser := jwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, &Claims{})
	if err != nil {
		return Credential{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return Credential{}, ErrInvalidToken
	}
	if claims.Type != "" && claims.Type != TokenTypeAccess {
		return Credential{}, ErrInvalidTokenType
	}

	cred := Credential{Token: token, Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		cred.ExpiresAt = claims.ExpiresAt.Time
	}
	return cred, nil
}

// Expired reports whether the credential's expiry has passed at now
func (c Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Valid reports whether the credential can be sent at now
func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && !c.Expired(now)
}

// Header returns the Authorization header value
func (c Credential) Header() string {
	return "Bearer " + c.Token
}
