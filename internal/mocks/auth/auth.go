// Package auth contains hand-written test doubles for the auth ports.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	"github.com/target/mmk-product-admin/internal/ports"
)

var (
	_ ports.AuthProvider = (*StubProvider)(nil)
	_ ports.RoleMapper   = FixedRoleMapper("")
)

// StubProvider issues deterministic challenges and returns Identity from Exchange.
type StubProvider struct {
	AuthURL     string
	Identity    domainauth.Identity
	ChallengeFn func(ctx context.Context, returnTo string) (ports.LoginChallenge, error)
	ExchangeErr error

	mu    sync.Mutex
	calls int
	// Exchanged records the code and nonce of each Exchange call.
	Exchanged [][2]string
}

// NewStubProvider returns a StubProvider with a viewer identity.
func NewStubProvider() *StubProvider {
	return &StubProvider{
		AuthURL: "https://idp.test/authorize",
		Identity: domainauth.Identity{
			Subject: "stub-user",
			Name:    "Stub User",
			Email:   "stub@example.com",
			Groups:  []string{"catalog"},
		},
	}
}

func (p *StubProvider) Challenge(ctx context.Context, returnTo string) (ports.LoginChallenge, error) {
	if p.ChallengeFn != nil {
		return p.ChallengeFn(ctx, returnTo)
	}
	p.mu.Lock()
	p.calls++
	n := p.calls
	p.mu.Unlock()
	state := fmt.Sprintf("state-%d", n)
	return ports.LoginChallenge{
		URL:   p.AuthURL + "?state=" + state,
		State: state,
		Nonce: fmt.Sprintf("nonce-%d", n),
	}, nil
}

func (p *StubProvider) Exchange(_ context.Context, code, nonce string) (domainauth.Identity, error) {
	p.mu.Lock()
	p.Exchanged = append(p.Exchanged, [2]string{code, nonce})
	p.mu.Unlock()
	if p.ExchangeErr != nil {
		return domainauth.Identity{}, p.ExchangeErr
	}
	id := p.Identity
	if id.ExpiresAt.IsZero() {
		id.ExpiresAt = time.Now().Add(time.Hour)
	}
	return id, nil
}

// FixedRoleMapper assigns the same role to everyone.
type FixedRoleMapper domainauth.Role

func (m FixedRoleMapper) RoleFor([]string) domainauth.Role { return domainauth.Role(m) }
