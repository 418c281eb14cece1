// Package productsapi fetches the product listing from a remote listing API.
package productsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/domain/model"
	apperrors "github.com/target/mmk-product-admin/internal/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	productsPath = "/api/products"
	contactsPath = "/api/contacts"

	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Config configures the listing API client.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	// Client is the base transport. Tests inject an httpmock-backed client here.
	Client *http.Client

	// Client-credentials bearer auth; disabled when ClientID is empty.
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Client implements the listing backend over HTTP.
type Client struct {
	base      *url.URL
	userAgent string
	http      *http.Client
}

var _ core.ListingBackend = (*Client)(nil)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("listing api returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("listing api returned status %d: %s", e.StatusCode, e.Body)
}

// NewClient validates cfg and builds a Client.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	raw := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if raw == "" {
		return nil, errors.New("listing api base url is required")
	}
	base, err := url.Parse(raw)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid listing api base url %q", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	if cfg.ClientID != "" {
		if cfg.TokenURL == "" {
			return nil, errors.New("token url is required when client id is set")
		}
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		// Token fetches and API calls share the base transport.
		authed := cc.Client(context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, hc))
		authed.Timeout = hc.Timeout
		hc = authed
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = "mmk-product-admin"
	}
	return &Client{
		base:      base,
		userAgent: ua,
		http:      hc,
	}, nil
}

// ListProducts fetches one listing page. next and previous are returned as sent by the API.
func (c *Client) ListProducts(ctx context.Context, q model.ProductQuery) (*model.ProductPage, error) {
	var page model.ProductPage
	if err := c.getJSON(ctx, c.endpoint(productsPath, q.Values()), &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		page.Results = []model.Product{}
	}
	return &page, nil
}

// contactsEnvelope is the body of GET /api/contacts.
type contactsEnvelope struct {
	Results []model.Contact `json:"results"`
	Count   int             `json:"count"`
}

// ListContacts fetches contacts for the filter.
func (c *Client) ListContacts(ctx context.Context, opts model.ContactListOptions) ([]model.Contact, error) {
	v := url.Values{}
	if s := strings.TrimSpace(opts.Search); s != "" {
		v.Set("search", s)
	}
	if opts.Limit > 0 {
		v.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		v.Set("offset", strconv.Itoa(opts.Offset))
	}

	var out contactsEnvelope
	if err := c.getJSON(ctx, c.endpoint(contactsPath, v), &out); err != nil {
		return nil, err
	}
	if out.Results == nil {
		return []model.Contact{}, nil
	}
	return out.Results, nil
}

func (c *Client) endpoint(path string, v url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = v.Encode()
	return u.String()
}

// getJSON performs one GET and decodes a 2xx body into out. Failures are not retried.
func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create listing request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return apperrors.Wrap(err, apperrors.ErrCodeUpstream, "listing api request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		return apperrors.Wrap(statusErr, apperrors.ErrCodeUpstream, "listing api error")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeUpstream, "listing api returned malformed JSON")
	}
	return nil
}
