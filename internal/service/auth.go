package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	"github.com/target/mmk-product-admin/internal/ports"
)

// ErrSessionExpired is returned for sessions past their expiry.
var ErrSessionExpired = errors.New("session expired")

// ErrStateMismatch is returned when the callback state does not match the issued one.
var ErrStateMismatch = errors.New("login state mismatch")

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.AuthProvider
	Sessions ports.SessionStore
	Roles    ports.RoleMapper
	// MaxSessionAge caps the session lifetime regardless of the provider token expiry.
	MaxSessionAge time.Duration
}

// AuthService runs the login flow and owns session lifecycle.
type AuthService struct {
	provider ports.AuthProvider
	sessions ports.SessionStore
	roles    ports.RoleMapper
	maxAge   time.Duration
	now      func() time.Time
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.MaxSessionAge <= 0 {
		opts.MaxSessionAge = 8 * time.Hour
	}
	return &AuthService{
		provider: opts.Provider,
		sessions: opts.Sessions,
		roles:    opts.Roles,
		maxAge:   opts.MaxSessionAge,
		now:      time.Now,
	}
}

// BeginLogin asks the provider for a login challenge.
func (s *AuthService) BeginLogin(ctx context.Context, redirectURL string) (ports.LoginChallenge, error) {
	if redirectURL == "" {
		return ports.LoginChallenge{}, errors.New("redirect URL is required")
	}
	ch, err := s.provider.Challenge(ctx, redirectURL)
	if err != nil {
		return ports.LoginChallenge{}, fmt.Errorf("begin login: %w", err)
	}
	return ch, nil
}

// CallbackInput carries the callback query plus the values kept in cookies at login.
type CallbackInput struct {
	Code          string
	State         string
	ExpectedState string
	Nonce         string
}

// CompleteLogin validates the callback, exchanges the code and stores a new session.
func (s *AuthService) CompleteLogin(ctx context.Context, in CallbackInput) (*domainauth.Session, error) {
	switch {
	case in.Code == "":
		return nil, errors.New("authorization code is required")
	case in.State == "" || in.State != in.ExpectedState:
		return nil, ErrStateMismatch
	case in.Nonce == "":
		return nil, errors.New("nonce is required")
	}

	id, err := s.provider.Exchange(ctx, in.Code, in.Nonce)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	now := s.now()
	expires := id.ExpiresAt
	if expires.IsZero() || expires.After(now.Add(s.maxAge)) {
		expires = now.Add(s.maxAge)
	}
	sess := domainauth.Session{
		ID:        uuid.NewString(),
		Subject:   id.Subject,
		Name:      id.Name,
		Email:     id.Email,
		Role:      s.roles.RoleFor(id.Groups),
		CreatedAt: now,
		ExpiresAt: expires,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &sess, nil
}

// GetSession loads a live session. Expired sessions are removed.
func (s *AuthService) GetSession(ctx context.Context, id string) (*domainauth.Session, error) {
	if id == "" {
		return nil, ports.ErrSessionNotFound
	}
	sess, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Expired(s.now()) {
		if delErr := s.sessions.Delete(ctx, id); delErr != nil {
			return nil, errors.Join(ErrSessionExpired, fmt.Errorf("delete session: %w", delErr))
		}
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

// Logout deletes the session. An empty id is a no-op.
func (s *AuthService) Logout(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
