//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import "time"

// DefaultPageLimit is the page size used when none is configured.
const DefaultPageLimit = 10

// PaginationState is the pagination metadata derived from the last successful load.
type PaginationState struct {
	Next         *string `json:"next"`
	Prev         *string `json:"prev"`
	Count        *int    `json:"count"`
	ResultsCount int     `json:"results_count"`
	Offset       *int    `json:"offset"`
	HasOffset    bool    `json:"has_offset"`
	Limit        int     `json:"limit"`
}

// NewPaginationState returns the state before any load has completed.
func NewPaginationState(limit int) PaginationState {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	return PaginationState{HasOffset: true, Limit: limit}
}

// FirstItem returns the 1-based index of the first displayed row, or 0 when empty.
func (p PaginationState) FirstItem() int {
	if p.ResultsCount == 0 {
		return 0
	}
	return p.offset() + 1
}

// LastItem returns the 1-based index of the last displayed row.
func (p PaginationState) LastItem() int {
	return p.offset() + p.ResultsCount
}

// Total returns the backend count, or 0 before the first load.
func (p PaginationState) Total() int {
	if p.Count == nil {
		return 0
	}
	return *p.Count
}

func (p PaginationState) offset() int {
	if p.Offset == nil || *p.Offset < 0 {
		return 0
	}
	return *p.Offset
}

// ListingState is the per-view state of the product listing page.
type ListingState struct {
	ViewID     string          `json:"view_id"`
	Products   []Product       `json:"products"`
	Pagination PaginationState `json:"pagination"`
	Loading    bool            `json:"loading"`
	// Generation increases with every load that starts; only the newest load may write results.
	Generation int64        `json:"generation"`
	Query      ProductQuery `json:"query,omitempty"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// NewListingState returns an empty state for viewID.
func NewListingState(viewID string, limit int) *ListingState {
	return &ListingState{
		ViewID:     viewID,
		Products:   []Product{},
		Pagination: NewPaginationState(limit),
	}
}

// Clone returns a copy that shares no mutable data with s.
func (s *ListingState) Clone() ListingState {
	out := *s
	out.Products = append([]Product(nil), s.Products...)
	out.Pagination.Next = clonePtr(s.Pagination.Next)
	out.Pagination.Prev = clonePtr(s.Pagination.Prev)
	out.Pagination.Count = clonePtr(s.Pagination.Count)
	out.Pagination.Offset = clonePtr(s.Pagination.Offset)
	if s.Query != nil {
		out.Query = s.Query.Merge(nil)
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
