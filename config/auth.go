package config

import (
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOAuth uses OAuth/OIDC for authentication.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
	// AuthModeNone disables authentication; every route is public.
	AuthModeNone AuthMode = "none"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oauth", "mock", "none":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oauth, mock, none)", v)
	}
}

// Enabled reports whether logins are required.
func (a AuthMode) Enabled() bool { return a != AuthModeNone }

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"product-admin"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	GroupsClaim  string `env:"GROUPS_CLAIM"  envDefault:"groups"`
}

// Scopes splits Scope on whitespace.
func (o OAuthConfig) Scopes() []string {
	return strings.Fields(o.Scope)
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-user"`
	Name   string   `env:"NAME"    envDefault:"Dev User"`
	Email  string   `env:"EMAIL"   envDefault:"dev@example.com"`
	Groups []string `env:"GROUPS"  envDefault:"admins"          envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oauth"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroups grant the admin role. Semicolon separated.
	AdminGroups []string `env:"ADMIN_GROUP" envDefault:"admins" envSeparator:";"`

	// UserGroups grant the viewer role. Empty lets every signed-in user view.
	UserGroups []string `env:"USER_GROUP" envSeparator:";"`

	// SessionBackend selects where sessions live.
	SessionBackend Backend `env:"SESSION_BACKEND" envDefault:"memory"`

	// SessionMaxAge caps a session's lifetime.
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" envDefault:"8h"`
}

// Sanitize trims group lists and enforces a minimum session age.
func (a *AuthConfig) Sanitize() {
	a.AdminGroups = trimAll(a.AdminGroups)
	a.UserGroups = trimAll(a.UserGroups)
	a.DevAuth.Groups = trimAll(a.DevAuth.Groups)
	a.OAuth.DiscoveryURL = strings.TrimSpace(a.OAuth.DiscoveryURL)
	if a.SessionMaxAge < time.Minute {
		a.SessionMaxAge = 8 * time.Hour
	}
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
