package auth

import (
	"errors"
	"strings"
	"time"
)

const (
	// AdminUserType is the backend user type allowed to sign in to the dashboard.
	AdminUserType = 99

	MethodBackend = "backend"
)

var (
	// ErrUnauthenticated means no usable bearer token is available. It is distinct from
	// transport failures so callers can send the user back to the login page.
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotAdmin           = errors.New("account is not an administrator")
)

type Principal struct {
	UserID string
	Name   string
	Email  string
	Method string
}

// Credentials is the auth context handed to every backend call.
type Credentials struct {
	Token     string
	ExpiresAt time.Time
	Principal Principal
}

// NewCredentials stamps a fixed-lifetime expiry on a freshly issued token. A JWT exp claim that
// falls earlier than issuedAt+lifetime wins.
func NewCredentials(token string, principal Principal, issuedAt time.Time, lifetime time.Duration) Credentials {
	token = strings.TrimSpace(token)
	expiresAt := issuedAt.Add(lifetime)
	if exp, ok := TokenExpiry(token); ok && exp.Before(expiresAt) {
		expiresAt = exp
	}
	return Credentials{
		Token:     token,
		ExpiresAt: expiresAt,
		Principal: principal,
	}
}

// Expired reports whether now is past the stored expiry.
func (c Credentials) Expired(now time.Time) bool {
	return c.ExpiresAt.IsZero() || now.After(c.ExpiresAt)
}

func (c Credentials) Valid(now time.Time) bool {
	return c.Token != "" && !c.Expired(now)
}

// Bearer returns the token to attach to a request, checked against now.
func (c Credentials) Bearer(now time.Time) (string, error) {
	if !c.Valid(now) {
		return "", ErrUnauthenticated
	}
	return c.Token, nil
}

// NormalizeEmail is applied to addresses of new student accounts. Sign-in sends the address as typed.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
