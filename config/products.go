package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// Backend selects where per-process state is stored.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendRedis  Backend = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for Backend.
func (b *Backend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "redis":
		*b = Backend(v)
		return nil
	default:
		return fmt.Errorf("invalid backend: %q (valid options: memory, redis)", v)
	}
}

// ProductsConfig controls where the listing comes from and how it is shown.
type ProductsConfig struct {
	// APIURL is the base URL of a remote listing API. Empty serves the listing
	// from the local database.
	APIURL     string        `env:"PRODUCTS_API_URL"`
	APITimeout time.Duration `env:"PRODUCTS_API_TIMEOUT" envDefault:"10s"`

	// Client-credentials auth against the remote API; disabled when ClientID is empty.
	TokenURL     string   `env:"PRODUCTS_API_TOKEN_URL"`
	ClientID     string   `env:"PRODUCTS_API_CLIENT_ID"`
	ClientSecret string   `env:"PRODUCTS_API_CLIENT_SECRET"`
	Scopes       []string `env:"PRODUCTS_API_SCOPES"        envSeparator:" "`

	// PageLimit is the page size of the local backend.
	PageLimit int `env:"PRODUCTS_PAGE_LIMIT" envDefault:"10"`

	// TableColumns is "Label=jmespath;Label=jmespath". Empty uses the built-in columns.
	TableColumns string `env:"PRODUCTS_TABLE_COLUMNS"`

	// ContactOptionsLimit caps the contacts offered by the filter.
	ContactOptionsLimit int `env:"PRODUCTS_CONTACT_OPTIONS_LIMIT" envDefault:"200"`
}

// Sanitize applies guardrails to product listing configuration values.
func (p *ProductsConfig) Sanitize() {
	p.APIURL = strings.TrimRight(strings.TrimSpace(p.APIURL), "/")
	p.TokenURL = strings.TrimSpace(p.TokenURL)
	p.TableColumns = strings.TrimSpace(p.TableColumns)
	if p.APITimeout <= 0 {
		p.APITimeout = 10 * time.Second
	}
	if p.PageLimit < 1 {
		p.PageLimit = defaultPageLimit
	}
	if p.PageLimit > maxPageLimit {
		p.PageLimit = maxPageLimit
	}
	if p.ContactOptionsLimit < 1 {
		p.ContactOptionsLimit = 200
	}
}

// UseRemoteAPI reports whether the listing is fetched from a remote API.
func (p *ProductsConfig) UseRemoteAPI() bool {
	return p.APIURL != ""
}

// ViewStateConfig controls per-browser listing state.
type ViewStateConfig struct {
	Backend Backend       `env:"VIEW_STATE_BACKEND" envDefault:"memory"`
	TTL     time.Duration `env:"VIEW_STATE_TTL"     envDefault:"30m"`
}

// Sanitize applies guardrails to view state configuration values.
func (v *ViewStateConfig) Sanitize() {
	if v.TTL < time.Minute {
		v.TTL = 30 * time.Minute
	}
	if v.Backend == "" {
		v.Backend = BackendMemory
	}
}
