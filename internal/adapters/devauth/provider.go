// Package devauth is a login provider for local development that signs in a fixed identity.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	"github.com/target/mmk-product-admin/internal/ports"
)

var _ ports.AuthProvider = (*Provider)(nil)

// Config describes the identity the provider signs in.
type Config struct {
	Subject         string
	Name            string
	Email           string
	Groups          []string
	SessionDuration time.Duration // 8h when zero
	// CallbackPath is where Challenge sends the browser. Defaults to /auth/callback.
	CallbackPath string
}

// Provider skips the identity provider round trip: Challenge points straight at
// the local callback and Exchange returns the configured identity.
type Provider struct {
	mu       sync.Mutex
	identity domainauth.Identity
	duration time.Duration
	callback string
}

// NewProvider constructs a dev provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: subject is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: email is required")
	}
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = 8 * time.Hour
	}
	if cfg.CallbackPath == "" {
		cfg.CallbackPath = "/auth/callback"
	}
	return &Provider{
		identity: domainauth.Identity{
			Subject: cfg.Subject,
			Name:    cfg.Name,
			Email:   cfg.Email,
			Groups:  append([]string(nil), cfg.Groups...),
		},
		duration: cfg.SessionDuration,
		callback: cfg.CallbackPath,
	}, nil
}

func (p *Provider) Challenge(_ context.Context, _ string) (ports.LoginChallenge, error) {
	state, err := token()
	if err != nil {
		return ports.LoginChallenge{}, fmt.Errorf("generate state: %w", err)
	}
	nonce, err := token()
	if err != nil {
		return ports.LoginChallenge{}, fmt.Errorf("generate nonce: %w", err)
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return ports.LoginChallenge{URL: p.callback + "?" + q.Encode(), State: state, Nonce: nonce}, nil
}

// Exchange ignores the code and returns the configured identity with a fresh expiry.
func (p *Provider) Exchange(_ context.Context, _, _ string) (domainauth.Identity, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.identity
	id.Groups = append([]string(nil), p.identity.Groups...)
	id.ExpiresAt = time.Now().Add(p.duration)
	return id, nil
}

func token() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
