package httpx

import (
	"net/http"

	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/domain/model"
	"github.com/target/mmk-product-admin/internal/http/ui/viewmodel"
)

// urlState records the query the listing wants in the address bar and writes it to
// the response once the load has finished.
type urlState struct {
	query model.ProductQuery
	set   bool
}

var _ core.URLState = (*urlState)(nil)

// SetQuery implements core.URLState.
func (u *urlState) SetQuery(q model.ProductQuery) {
	u.query = q.Merge(nil)
	u.set = true
}

// Location is the listing URL for the recorded query.
func (u *urlState) Location() string { return listingURL(u.query) }

// commit writes the recorded URL: htmx requests get Hx-Push-Url, plain requests a
// 303 redirect. It reports whether the response has been completed.
func (u *urlState) commit(w http.ResponseWriter, r *http.Request) bool {
	if !u.set {
		return false
	}
	if IsHTMX(r) {
		SetHXPushURL(w, u.Location())
		return false
	}
	http.Redirect(w, r, u.Location(), http.StatusSeeOther)
	return true
}

// listingURL renders q as a /products URL with only the non-empty recognized keys.
func listingURL(q model.ProductQuery) string {
	if enc := q.Encode(); enc != "" {
		return viewmodel.ListingPath + "?" + enc
	}
	return viewmodel.ListingPath
}
