// Package oidc implements the login provider on top of OpenID Connect discovery.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	"github.com/target/mmk-product-admin/internal/ports"
	"golang.org/x/oauth2"
)

const defaultGroupsClaim = "groups"

var _ ports.AuthProvider = (*Provider)(nil)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	// IssuerURL may be the issuer or its /.well-known/openid-configuration URL.
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
	GroupsClaim  string
	HTTPClient   *http.Client
}

// Provider runs the authorization code flow and verifies ID tokens.
type Provider struct {
	oauth       *oauth2.Config
	op          *gooidc.Provider
	verifier    *gooidc.IDTokenVerifier
	httpClient  *http.Client
	groupsClaim string
}

// NewProvider fetches the discovery document and builds the provider.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	switch {
	case cfg.ClientID == "":
		return nil, errors.New("client ID is required")
	case cfg.ClientSecret == "":
		return nil, errors.New("client secret is required")
	case cfg.RedirectURL == "":
		return nil, errors.New("redirect URL is required")
	case cfg.IssuerURL == "":
		return nil, errors.New("issuer URL is required")
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	issuer := strings.TrimSuffix(strings.TrimSuffix(cfg.IssuerURL, "/"), "/.well-known/openid-configuration")

	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, hc), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}
	if !slices.Contains(scopes, gooidc.ScopeOpenID) {
		scopes = append([]string{gooidc.ScopeOpenID}, scopes...)
	}
	claim := cfg.GroupsClaim
	if claim == "" {
		claim = defaultGroupsClaim
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     op.Endpoint(),
		},
		op:          op,
		verifier:    op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		httpClient:  hc,
		groupsClaim: claim,
	}, nil
}

// Challenge returns the authorization URL with fresh state and nonce.
// returnTo is kept by the caller; the provider always calls back to RedirectURL.
func (p *Provider) Challenge(_ context.Context, _ string) (ports.LoginChallenge, error) {
	state, err := randomToken()
	if err != nil {
		return ports.LoginChallenge{}, fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken()
	if err != nil {
		return ports.LoginChallenge{}, fmt.Errorf("generate nonce: %w", err)
	}
	return ports.LoginChallenge{
		URL:   p.oauth.AuthCodeURL(state, gooidc.Nonce(nonce)),
		State: state,
		Nonce: nonce,
	}, nil
}

// Exchange redeems the code, verifies the ID token and nonce, and maps the claims.
// Missing email or name are filled from the userinfo endpoint.
func (p *Provider) Exchange(ctx context.Context, code, nonce string) (domainauth.Identity, error) {
	if code == "" {
		return domainauth.Identity{}, errors.New("authorization code is required")
	}
	ctx = gooidc.ClientContext(ctx, p.httpClient)

	tok, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code: %w", err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return domainauth.Identity{}, errors.New("missing id_token in token response")
	}
	idTok, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != nonce {
		return domainauth.Identity{}, errors.New("id_token nonce mismatch")
	}

	var claims map[string]any
	if err := idTok.Claims(&claims); err != nil {
		return domainauth.Identity{}, fmt.Errorf("decode id_token claims: %w", err)
	}
	id := identityFromClaims(claims, p.groupsClaim)
	id.ExpiresAt = idTok.Expiry

	if id.Email == "" || id.Name == "" {
		ui, uiErr := p.op.UserInfo(ctx, oauth2.StaticTokenSource(tok))
		if uiErr != nil {
			return domainauth.Identity{}, fmt.Errorf("fetch userinfo: %w", uiErr)
		}
		var more map[string]any
		if err := ui.Claims(&more); err != nil {
			return domainauth.Identity{}, fmt.Errorf("decode userinfo: %w", err)
		}
		fill := identityFromClaims(more, p.groupsClaim)
		id.Email = firstNonEmpty(id.Email, fill.Email)
		id.Name = firstNonEmpty(id.Name, fill.Name)
		if len(id.Groups) == 0 {
			id.Groups = fill.Groups
		}
	}
	return id, nil
}

// identityFromClaims maps standard OIDC claims. groupsClaim may hold a list or a single string.
func identityFromClaims(c map[string]any, groupsClaim string) domainauth.Identity {
	str := func(k string) string {
		s, _ := c[k].(string)
		return s
	}
	name := str("name")
	if name == "" {
		name = strings.TrimSpace(str("given_name") + " " + str("family_name"))
	}

	var groups []string
	switch g := c[groupsClaim].(type) {
	case []any:
		for _, v := range g {
			if s, ok := v.(string); ok && s != "" {
				groups = append(groups, s)
			}
		}
	case string:
		if g != "" {
			groups = []string{g}
		}
	}

	return domainauth.Identity{
		Subject: firstNonEmpty(str("preferred_username"), str("sub")),
		Name:    name,
		Email:   str("email"),
		Groups:  groups,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func randomToken() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
