package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
)

func newTestRouter(auth AuthServiceInterface, listing ListingService) http.Handler {
	svcs := RouterServices{Listing: listing}
	if auth != nil {
		svcs.Auth = auth
	}
	return NewRouter(svcs)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Healthz(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		rec := serve(NewRouter(RouterServices{}), httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("failing check", func(t *testing.T) {
		r := NewRouter(RouterServices{HealthChecks: map[string]HealthCheck{
			"redis":    func(context.Context) error { return errors.New("connection refused") },
			"postgres": func(context.Context) error { return nil },
		}})
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.JSONEq(t, `{"status":"unavailable","checks":{"redis":"connection refused"}}`, rec.Body.String())
	})

	t.Run("head has no body", func(t *testing.T) {
		rec := serve(NewRouter(RouterServices{}), httptest.NewRequest(http.MethodHead, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	metricsHandler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	rec := serve(NewRouter(RouterServices{MetricsHandler: metricsHandler}), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestRouter_StaticCacheHeaders(t *testing.T) {
	rec := serve(NewRouter(RouterServices{}), httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))

	hashed := httptest.NewRecorder()
	staticWithCacheHeaders(http.NotFoundHandler()).ServeHTTP(hashed,
		httptest.NewRequest(http.MethodGet, "/static/js/app.0a1b2c3d.js", nil))
	assert.Equal(t, "public, max-age=31536000, immutable", hashed.Header().Get("Cache-Control"))
}

func TestRouter_NotFound(t *testing.T) {
	r := newTestRouter(nil, &fakeListing{state: sampleState()})

	t.Run("api clients get json", func(t *testing.T) {
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "not_found", body["error"])
	})

	t.Run("browsers get the error page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		req.Header.Set("Accept", "text/html")
		rec := serve(r, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `<p class="error-code">404</p>`)
	})

	t.Run("method mismatch is not a 404", func(t *testing.T) {
		rec := serve(r, httptest.NewRequest(http.MethodPost, "/products", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestRouter_ProductsWithoutAuth(t *testing.T) {
	r := newTestRouter(nil, &fakeListing{state: sampleState()})

	rec := serve(r, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Widget")
	assert.NotContains(t, rec.Body.String(), "Sign out")

	rec = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/products", rec.Header().Get("Location"))
}

func TestRouter_ProductsRequireSession(t *testing.T) {
	auth := newFakeAuth().withSession("viewer-1", domainauth.RoleViewer).withSession("guest-1", domainauth.RoleGuest)
	r := newTestRouter(auth, &fakeListing{state: sampleState()})

	t.Run("anonymous browser is sent to login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products?contact=3", nil)
		req.Header.Set("Accept", "text/html")
		rec := serve(r, req)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/auth/login?redirect_uri="+url.QueryEscape("/products?contact=3"), rec.Header().Get("Location"))
	})

	t.Run("anonymous htmx request is sent to signed-out page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products/next", nil)
		req.Header.Set("Hx-Request", "true")
		req.Header.Set("Hx-Current-Url", "https://admin.example.com/products?offset=10")
		rec := serve(r, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "/auth/signed-out?redirect_uri="+url.QueryEscape("/products?offset=10"), rec.Header().Get("Hx-Redirect"))
	})

	t.Run("guest is forbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "guest-1"})
		rec := serve(r, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("viewer sees the listing and gets a csrf token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "viewer-1"})
		rec := serve(r, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var csrf string
		for _, c := range rec.Result().Cookies() {
			if c.Name == DefaultCSRFCookieName {
				csrf = c.Value
			}
		}
		require.NotEmpty(t, csrf)
		body := rec.Body.String()
		assert.True(t, ContainsAll(body, []string{"Test User", "Sign out", `name="csrf_token" value="` + strings.TrimRight(csrf, "=")}), body)
	})
}

func TestRouter_LogoutRequiresCSRF(t *testing.T) {
	auth := newFakeAuth().withSession("viewer-1", domainauth.RoleViewer)
	r := newTestRouter(auth, &fakeListing{state: sampleState()})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "viewer-1"})
	rec := serve(r, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, auth.loggedOut)

	form := url.Values{"csrf_token": {"tok"}}
	req = httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "viewer-1"})
	req.AddCookie(&http.Cookie{Name: DefaultCSRFCookieName, Value: "tok"})
	rec = serve(r, req)
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, []string{"viewer-1"}, auth.loggedOut)
}
