// Package ports defines the auth interfaces implemented under internal/adapters.
package ports

import (
	"context"
	"errors"

	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
)

// ErrSessionNotFound is returned by a SessionStore for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// LoginChallenge is the redirect a provider wants the browser to follow.
// State and Nonce are kept in short-lived cookies until the callback.
type LoginChallenge struct {
	URL   string
	State string
	Nonce string
}

// AuthProvider runs the login flow against an identity provider.
type AuthProvider interface {
	// Challenge starts a login that should end at the local path returnTo.
	Challenge(ctx context.Context, returnTo string) (LoginChallenge, error)

	// Exchange trades the callback code for an identity, checking the nonce.
	Exchange(ctx context.Context, code, nonce string) (domainauth.Identity, error)
}

// SessionStore persists sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// RoleMapper maps provider groups to a role.
type RoleMapper interface {
	RoleFor(groups []string) domainauth.Role
}
