package httpx

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/target/mmk-product-admin/internal/domain/model"
	"github.com/target/mmk-product-admin/internal/http/ui/viewmodel"
	"github.com/target/mmk-product-admin/internal/service"
)

var productsMeta = PageMeta{
	Title:       "Products - Product Admin",
	PageTitle:   "Products",
	CurrentPage: PageProducts,
}

// Index redirects to the product listing.
// GET /.
func (h *UIHandlers) Index(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, viewmodel.ListingPath, http.StatusSeeOther)
}

// Products mounts the listing from the URL query and renders the page.
// GET /products.
func (h *UIHandlers) Products(w http.ResponseWriter, r *http.Request) {
	viewID := h.viewID(w, r)

	var (
		st       *model.ListingState
		contacts []model.Contact
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		st, err = h.Listing.Mount(ctx, viewID, r.URL.Query())
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = h.Listing.FilterOptions(ctx)
		if err != nil {
			h.logger().Warn("failed to load contact filter options", "view_id", viewID, "error", err)
			contacts = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		h.renderServerError(w, r, err)
		return
	}

	view := h.listingView(r, st)
	view.Contacts = viewmodel.ContactOptions(contacts, view.SelectedContact)
	h.renderPage(w, r, view)
}

// ProductsNext follows the view's next cursor.
// GET /products/next.
func (h *UIHandlers) ProductsNext(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, service.DirectionNext)
}

// ProductsPrev follows the view's previous cursor.
// GET /products/prev.
func (h *UIHandlers) ProductsPrev(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, service.DirectionPrev)
}

func (h *UIHandlers) navigate(w http.ResponseWriter, r *http.Request, dir service.Direction) {
	viewID := h.viewID(w, r)
	if !WantsPartial(r) {
		h.redirectToCursor(w, r, viewID, dir)
		return
	}
	u := &urlState{}
	st, _, err := h.Listing.Navigate(r.Context(), viewID, dir, u)
	if err != nil {
		h.renderServerError(w, r, err)
		return
	}
	if u.commit(w, r) {
		return
	}
	h.renderListing(w, r, st)
}

// redirectToCursor sends a plain browser request to the listing URL of the
// stored cursor without loading. The page it lands on mounts and loads once.
func (h *UIHandlers) redirectToCursor(w http.ResponseWriter, r *http.Request, viewID string, dir service.Direction) {
	st, err := h.Listing.State(r.Context(), viewID)
	if err != nil {
		h.renderServerError(w, r, err)
		return
	}
	cursor := st.Pagination.Next
	if dir == service.DirectionPrev {
		cursor = st.Pagination.Prev
	}
	q := st.Query
	if cursor != nil {
		if parsed, err := model.ParseCursor(*cursor); err == nil {
			q = parsed
		}
	}
	// Without a usable cursor the browser goes back to the listing it is on.
	http.Redirect(w, r, listingURL(q), http.StatusSeeOther)
}

// ProductsFilter reloads the listing for a contact filter change. The URL is left alone.
// GET /products/filter?contact=<id>.
func (h *UIHandlers) ProductsFilter(w http.ResponseWriter, r *http.Request) {
	q := model.ProductQuery{}
	if contact := strings.TrimSpace(r.URL.Query().Get(string(model.QueryContact))); contact != "" {
		q[model.QueryContact] = contact
	}
	if !WantsPartial(r) {
		http.Redirect(w, r, listingURL(q), http.StatusSeeOther)
		return
	}

	st, err := h.Listing.ApplyFilter(r.Context(), h.viewID(w, r), q)
	if err != nil {
		h.renderServerError(w, r, err)
		return
	}
	h.renderListing(w, r, st)
}

// renderListing renders the table and pagination fragment swapped by htmx.
func (h *UIHandlers) renderListing(w http.ResponseWriter, r *http.Request, st *model.ListingState) {
	if err := h.T.RenderFragment(w, listingTemplate, h.listingView(r, st)); err != nil {
		h.logAndRenderTemplateError(w, r, err, "listing fragment render")
	}
}

func (h *UIHandlers) listingView(r *http.Request, st *model.ListingState) *viewmodel.ProductListing {
	cols := h.columns()
	view := &viewmodel.ProductListing{
		Layout:          h.buildLayout(r, productsMeta),
		Columns:         cols.Labels(),
		Rows:            make([]viewmodel.ProductRow, 0, len(st.Products)),
		Pagination:      viewmodel.NewPagination(st.Pagination, st.Loading),
		Loading:         st.Loading,
		SelectedContact: st.Query.Contact(),
	}
	for _, p := range st.Products {
		cells, err := cols.Row(p)
		if err != nil {
			h.logger().Warn("failed to evaluate table column", "product_id", p.ID, "error", err)
		}
		view.Rows = append(view.Rows, viewmodel.ProductRow{ID: p.ID, Cells: cells})
	}
	return view
}

// viewID returns the listing view of the browser, issuing a new one when the
// product_view cookie is missing or malformed.
func (h *UIHandlers) viewID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(ViewCookieName); err == nil {
		if _, parseErr := uuid.Parse(c.Value); parseErr == nil {
			return c.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     ViewCookieName,
		Value:    id,
		Path:     "/",
		Domain:   h.CookieDomain,
		HttpOnly: true,
		Secure:   isSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	})
	return id
}
