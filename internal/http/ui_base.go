package httpx

import (
	"context"
	"html"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/domain/model"
	"github.com/target/mmk-product-admin/internal/http/ui/columns"
	"github.com/target/mmk-product-admin/internal/http/ui/viewmodel"
	"github.com/target/mmk-product-admin/internal/service"
)

// ListingService is the part of the product listing the UI drives.
type ListingService interface {
	Mount(ctx context.Context, viewID string, v url.Values) (*model.ListingState, error)
	ApplyFilter(ctx context.Context, viewID string, q model.ProductQuery) (*model.ListingState, error)
	Navigate(ctx context.Context, viewID string, dir service.Direction, u core.URLState) (*model.ListingState, bool, error)
	State(ctx context.Context, viewID string) (*model.ListingState, error)
	FilterOptions(ctx context.Context) ([]model.Contact, error)
}

var _ ListingService = (*service.ProductListing)(nil)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T       *TemplateRenderer
	Listing ListingService
	Columns columns.Set
	// AuthEnabled shows the sign-in/sign-out controls.
	AuthEnabled  bool
	CookieDomain string
	IsDev        bool // Development mode flag for enhanced error reporting
	Logger       *slog.Logger
}

// logger returns the configured logger or falls back to slog.Default().
func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) columns() columns.Set {
	if len(h.Columns) == 0 {
		return columns.MustParse(columns.Default)
	}
	return h.Columns
}

// PageMeta contains metadata for page rendering.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// buildLayout constructs shared layout metadata from the request/session context.
func (h *UIHandlers) buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CSRFToken:   GetCSRFToken(r),
		AuthEnabled: h.AuthEnabled,
	}

	if session := GetSessionFromContext(r.Context()); session != nil {
		layout.User = &viewmodel.User{
			Name:  session.DisplayName(),
			Email: session.Email,
			Role:  string(session.Role),
		}
		layout.IsAuthenticated = true
		layout.CanManage = session.Role.CanManage()
	}
	return layout
}

// renderPage renders a page with htmx partial support.
// Partial responses carry the content template plus out-of-band title updates.
func (h *UIHandlers) renderPage(w http.ResponseWriter, r *http.Request, data viewmodel.LayoutProvider) {
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, r, data); err != nil {
			h.logAndRenderTemplateError(w, r, err, "full page render")
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})

	layout := data.LayoutData()
	if _, err := w.Write([]byte(`<title>` + html.EscapeString(layout.Title) + `</title>`)); err != nil {
		h.logger().Error("failed to write partial document title", "error", err)
		return
	}
	header := `<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` +
		html.EscapeString(layout.PageTitle) + `</h1>`
	if _, err := w.Write([]byte(header)); err != nil {
		h.logger().Error("failed to write partial header title", "error", err)
		return
	}

	if err := h.T.executeTo(w, ContentTemplateFor(layout.CurrentPage), data); err != nil {
		h.logAndRenderTemplateError(w, r, err, "partial content render")
	}
}

// logAndRenderTemplateError logs template errors and renders them in dev mode.
func (h *UIHandlers) logAndRenderTemplateError(w http.ResponseWriter, r *http.Request, err error, context string) {
	h.logger().Error("template rendering failed",
		"error", err,
		"context", context,
		"path", r.URL.Path,
		"method", r.Method,
	)

	if h.IsDev {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		body := `<div class="template-error"><h2>Template Rendering Error</h2>` +
			`<p><strong>Context:</strong> ` + html.EscapeString(context) + `</p>` +
			`<p><strong>Path:</strong> ` + html.EscapeString(r.URL.Path) + `</p>` +
			`<pre>` + html.EscapeString(err.Error()) + `</pre></div>`
		if _, writeErr := w.Write([]byte(body)); writeErr != nil {
			h.logger().Error("failed to write template error response", "error", writeErr)
		}
		return
	}

	http.Error(w, "internal server error", http.StatusInternalServerError)
}
