package httpx

import (
	"bytes"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	productadmin "github.com/target/mmk-product-admin"
	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	httpassets "github.com/target/mmk-product-admin/internal/http/assets"
	"github.com/target/mmk-product-admin/internal/http/ui/columns"
	"github.com/target/mmk-product-admin/internal/observability/statsd"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Listing ListingService
	// Catalog enables the JSON listing API; nil when listing from a remote API.
	Catalog ProductCatalog
	// Auth enables login and guards the UI; nil disables authentication.
	Auth    AuthServiceInterface
	Columns columns.Set
	// Metrics records per-route request metrics (optional).
	Metrics statsd.Sink
	// MetricsHandler is served at /metrics (optional).
	MetricsHandler http.Handler
	HealthChecks   map[string]HealthCheck
	CookieDomain   string
	IsDev          bool         // Development mode flag for hot reloading, etc.
	Logger         *slog.Logger // Logger for template and HTTP errors (optional)
}

// NewRouter creates and configures the HTTP router with browser and metrics middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	cfg := routeConfig{Auth: services.Auth, CookieDomain: services.CookieDomain}

	mux.Handle("GET /healthz", healthHandler(services.HealthChecks))
	if services.MetricsHandler != nil {
		mux.Handle("GET /metrics", services.MetricsHandler)
	}
	mux.Handle("GET /static/", staticWithFallback(services.IsDev, logger))

	if services.Auth != nil {
		registerAuthRoutes(mux, &AuthHandlers{Svc: services.Auth, CookieDomain: services.CookieDomain, Logger: logger}, cfg)
	}
	if services.Catalog != nil {
		registerProductAPIRoutes(mux, &ProductHandlers{Svc: services.Catalog, Logger: logger}, cfg)
	}

	uiHandlers := setupUIHandlers(services, logger)
	if uiHandlers != nil {
		registerUIRoutes(mux, uiHandlers, cfg)
	}

	var handler http.Handler = &notFoundHandler{mux: mux, uiHandlers: uiHandlers}
	handler = BrowserDetection()(handler)
	return Metrics(services.Metrics, mux)(handler)
}

// setupUIHandlers creates UI handlers with template renderer and asset resolver.
// In dev mode templates and assets are read from disk for hot reloading; otherwise
// the embedded copies are used.
func setupUIHandlers(services RouterServices, logger *slog.Logger) *UIHandlers {
	if services.Listing == nil {
		return nil
	}

	var (
		templateFS, staticFS fs.FS
		err                  error
	)
	if services.IsDev {
		templateFS = os.DirFS(TemplatePathFromRoot)
		staticFS = os.DirFS(filepath.Join("frontend", "static"))
	} else {
		if templateFS, err = fs.Sub(productadmin.TemplateFS, TemplatePathFromRoot); err != nil {
			logger.Error("failed to open embedded templates", slog.Any("error", err))
			return nil
		}
		if staticFS, err = fs.Sub(productadmin.StaticFS, "frontend/static"); err != nil {
			logger.Error("failed to open embedded static assets", slog.Any("error", err))
			return nil
		}
	}

	resolver, err := httpassets.NewAssetResolverFromFS(staticFS, "manifest.json")
	if err != nil {
		logger.Warn("failed to load asset manifest; falling back to logical asset names", slog.Any("error", err))
		resolver = nil
	}

	tr, err := NewTemplateRenderer(TemplateRendererConfig{
		TemplateFS:    templateFS,
		Resolver:      resolver,
		CriticalCSSFS: staticFS,
		DevMode:       services.IsDev,
		Logger:        logger,
	})
	if err != nil {
		logger.Error("failed to create template renderer", slog.Any("error", err))
		return nil
	}

	return &UIHandlers{
		T:            tr,
		Listing:      services.Listing,
		Columns:      services.Columns,
		AuthEnabled:  services.Auth != nil,
		CookieDomain: services.CookieDomain,
		IsDev:        services.IsDev,
		Logger:       logger,
	}
}

// staticWithFallback serves /static/* from disk in dev mode and from the embedded FS otherwise.
func staticWithFallback(isDev bool, logger *slog.Logger) http.Handler {
	if isDev {
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))))
	}
	staticSub, err := fs.Sub(productadmin.StaticFS, "frontend/static")
	if err != nil {
		logger.Error("failed to open embedded static assets; serving from disk", slog.Any("error", err))
		return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.Dir("frontend/static"))))
	}
	return staticWithCacheHeaders(http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))
}

// hashedFilePattern matches content-hashed filenames such as app.3f2a1c9b.css.
var hashedFilePattern = regexp.MustCompile(`\.[a-f0-9]{8}\.(?:js|css)(?:\.map)?$`)

// staticWithCacheHeaders caches hashed assets for a year and disables caching otherwise.
func staticWithCacheHeaders(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hashedFilePattern.MatchString(r.URL.Path) {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		handler.ServeHTTP(w, r)
	})
}

// notFoundHandler wraps a ServeMux and provides custom 404 handling.
type notFoundHandler struct {
	mux        *http.ServeMux
	uiHandlers *UIHandlers
}

// ServeHTTP implements http.Handler and provides custom 404 handling.
func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if _, pattern := h.mux.Handler(r); pattern != "" {
		h.mux.ServeHTTP(w, r)
		return
	}

	cw := newCaptureWriter(w)
	h.mux.ServeHTTP(cw, r)
	if cw.status != http.StatusNotFound {
		cw.flushTo(w)
		return
	}
	if h.uiHandlers != nil {
		h.uiHandlers.NotFound(w, r)
		return
	}
	http.NotFound(w, r)
}

// captureWriter buffers headers, status and body so we can decide post-dispatch.
type captureWriter struct {
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(_ http.ResponseWriter) *captureWriter {
	return &captureWriter{header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	_, _ = w.Write(c.buf.Bytes())
}

// routeConfig holds what route registration needs to build its middleware.
type routeConfig struct {
	Auth         AuthServiceInterface
	CookieDomain string
}

func identity(h http.Handler) http.Handler { return h }

// viewerWrap requires a viewer session when auth is enabled.
func (cfg routeConfig) viewerWrap() func(http.Handler) http.Handler {
	if cfg.Auth == nil {
		return identity
	}
	return RequireRoleBrowser(cfg.Auth, domainauth.RoleViewer)
}

// adminWrap requires an admin session when auth is enabled.
func (cfg routeConfig) adminWrap() func(http.Handler) http.Handler {
	if cfg.Auth == nil {
		return identity
	}
	return RequireRoleBrowser(cfg.Auth, domainauth.RoleAdmin)
}

// sessionWrap attaches the session when present without requiring one.
func (cfg routeConfig) sessionWrap() func(http.Handler) http.Handler {
	if cfg.Auth == nil {
		return identity
	}
	return OptionalAuth(cfg.Auth)
}

func (cfg routeConfig) csrf() func(http.Handler) http.Handler {
	return CSRFProtection(CSRFConfig{CookieDomain: cfg.CookieDomain})
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, cfg routeConfig) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET /auth/callback", h.Callback)
	mux.HandleFunc("GET /auth/logout", h.Logout)
	mux.Handle("POST /auth/logout", cfg.csrf()(http.HandlerFunc(h.Logout)))
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerProductAPIRoutes(mux *http.ServeMux, h *ProductHandlers, cfg routeConfig) {
	view, admin := cfg.viewerWrap(), cfg.adminWrap()
	mux.Handle("GET /api/products", view(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/products/{id}", view(http.HandlerFunc(h.Get)))
	mux.Handle("GET /api/contacts", view(http.HandlerFunc(h.ListContacts)))
	mux.Handle("POST /api/products", admin(http.HandlerFunc(h.Create)))
	mux.Handle("POST /api/contacts", admin(http.HandlerFunc(h.CreateContact)))
}

func registerUIRoutes(mux *http.ServeMux, h *UIHandlers, cfg routeConfig) {
	csrf, view := cfg.csrf(), cfg.viewerWrap()
	page := func(fn http.HandlerFunc) http.Handler { return view(csrf(fn)) }

	mux.Handle("GET /{$}", view(http.HandlerFunc(h.Index)))
	mux.Handle("GET /products", page(h.Products))
	mux.Handle("GET /products/next", page(h.ProductsNext))
	mux.Handle("GET /products/prev", page(h.ProductsPrev))
	mux.Handle("GET /products/filter", page(h.ProductsFilter))
	mux.Handle("GET /auth/signed-out", cfg.sessionWrap()(http.HandlerFunc(h.SignedOut)))
}
