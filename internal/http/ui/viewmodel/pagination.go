package viewmodel

import (
	"fmt"

	"github.com/target/mmk-product-admin/internal/domain/model"
)

// ListingPath is the page the listing lives on.
const ListingPath = "/products"

// PageLink is one side of the pagination control.
type PageLink struct {
	Href     string // plain link for non-JS navigation
	HXGet    string // htmx endpoint
	Disabled bool
}

// Pagination contains the pagination control rendered above and below the table.
type Pagination struct {
	Summary string
	Prev    PageLink
	Next    PageLink
}

// NewPagination derives the pagination control from the view state.
func NewPagination(st model.PaginationState, loading bool) Pagination {
	return Pagination{
		Summary: ResultSummary(st, loading),
		Prev:    cursorLink(st.Prev, ListingPath+"/prev"),
		Next:    cursorLink(st.Next, ListingPath+"/next"),
	}
}

// ResultSummary is the result-count line shown with the pagination control.
func ResultSummary(st model.PaginationState, loading bool) string {
	switch {
	case loading:
		return "Loading products…"
	case st.Total() == 0:
		return "No products found"
	default:
		return fmt.Sprintf("Showing %d–%d of %d products", st.FirstItem(), st.LastItem(), st.Total())
	}
}

// CursorHref converts a backend cursor into a listing page URL, or "" when unusable.
func CursorHref(cursor *string) string {
	if cursor == nil {
		return ""
	}
	q, err := model.ParseCursor(*cursor)
	if err != nil {
		return ""
	}
	if enc := q.Encode(); enc != "" {
		return ListingPath + "?" + enc
	}
	return ListingPath
}

func cursorLink(cursor *string, hxGet string) PageLink {
	href := CursorHref(cursor)
	if href == "" {
		return PageLink{Disabled: true}
	}
	return PageLink{Href: href, HXGet: hxGet}
}
