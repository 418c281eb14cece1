package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/domain/model"
	"github.com/target/mmk-product-admin/internal/observability/metrics"
	"github.com/target/mmk-product-admin/internal/observability/statsd"
)

// Trigger names what started a listing load.
type Trigger string

const (
	TriggerMount    Trigger = "mount"
	TriggerNavigate Trigger = "navigate"
	TriggerFilter   Trigger = "filter"
	TriggerReload   Trigger = "reload"
)

// Direction of a cursor navigation.
type Direction string

const (
	DirectionNext Direction = "next"
	DirectionPrev Direction = "prev"
)

// ErrNoBackend is returned when the listing has no product backend configured.
var ErrNoBackend = errors.New("product listing backend not configured")

// ProductListingOptions groups dependencies for ProductListing.
type ProductListingOptions struct {
	Products core.ProductLister
	Contacts core.ContactLister
	States   core.ViewStateStore
	Metrics  statsd.Sink
	Logger   *slog.Logger
	// ContactOptionsLimit caps the contacts offered by the filter (default 200).
	ContactOptionsLimit int
}

// ProductListing drives the product listing page: it resolves the query on mount,
// loads pages from the backend and follows next/previous cursors.
//
// Fetch failures never reach the caller; the view keeps its last good data and only
// the loading flag clears. Errors returned by its methods come from the state store.
type ProductListing struct {
	products     core.ProductLister
	contacts     core.ContactLister
	states       core.ViewStateStore
	sink         statsd.Sink
	logger       *slog.Logger
	contactLimit int
	now          func() time.Time
}

// NewProductListing constructs a ProductListing.
func NewProductListing(opts ProductListingOptions) (*ProductListing, error) {
	if opts.Products == nil {
		return nil, ErrNoBackend
	}
	if opts.States == nil {
		return nil, errors.New("view state store is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := opts.ContactOptionsLimit
	if limit <= 0 {
		limit = 200
	}
	return &ProductListing{
		products:     opts.Products,
		contacts:     opts.Contacts,
		states:       opts.States,
		sink:         opts.Metrics,
		logger:       logger.With("component", "product_listing"),
		contactLimit: limit,
		now:          time.Now,
	}, nil
}

// ResolveQuery derives the listing query from page URL parameters.
// Unrecognized parameters are dropped.
func (s *ProductListing) ResolveQuery(v url.Values) model.ProductQuery {
	q, ignored := model.ParseProductQuery(v)
	if len(ignored) > 0 {
		s.logger.Debug("ignoring unrecognized listing parameters", "params", ignored)
	}
	return q
}

// Mount performs the first load of a view from its URL parameters.
// With no recognized parameters the default listing is requested.
func (s *ProductListing) Mount(ctx context.Context, viewID string, v url.Values) (*model.ListingState, error) {
	q := s.ResolveQuery(v)
	if q.IsEmpty() {
		return s.load(ctx, viewID, nil, TriggerMount)
	}
	return s.load(ctx, viewID, q, TriggerMount)
}

// LoadProducts fetches the listing for q and records the outcome on the view.
// A nil query requests the default listing.
func (s *ProductListing) LoadProducts(ctx context.Context, viewID string, q model.ProductQuery) (*model.ListingState, error) {
	return s.load(ctx, viewID, q, TriggerReload)
}

// ApplyFilter loads the listing for a filter change. The URL is left alone.
func (s *ProductListing) ApplyFilter(ctx context.Context, viewID string, q model.ProductQuery) (*model.ListingState, error) {
	if q.IsEmpty() {
		q = nil
	}
	return s.load(ctx, viewID, q, TriggerFilter)
}

// HandleNext follows a "next" cursor. A nil cursor is a no-op and reports false.
func (s *ProductListing) HandleNext(
	ctx context.Context,
	viewID string,
	next *string,
	u core.URLState,
) (*model.ListingState, bool, error) {
	return s.navigate(ctx, navigation{viewID: viewID, cursor: next, dir: DirectionNext, url: u})
}

// HandlePrev follows a "previous" cursor. A nil cursor is a no-op and reports false.
func (s *ProductListing) HandlePrev(
	ctx context.Context,
	viewID string,
	prev *string,
	u core.URLState,
) (*model.ListingState, bool, error) {
	return s.navigate(ctx, navigation{viewID: viewID, cursor: prev, dir: DirectionPrev, url: u})
}

// Navigate follows the stored cursor of the view in the given direction.
func (s *ProductListing) Navigate(
	ctx context.Context,
	viewID string,
	dir Direction,
	u core.URLState,
) (*model.ListingState, bool, error) {
	st, err := s.states.Get(ctx, viewID)
	if err != nil {
		return nil, false, fmt.Errorf("get view state: %w", err)
	}
	switch dir {
	case DirectionNext:
		return s.HandleNext(ctx, viewID, st.Pagination.Next, u)
	case DirectionPrev:
		return s.HandlePrev(ctx, viewID, st.Pagination.Prev, u)
	default:
		return nil, false, fmt.Errorf("unknown direction %q", dir)
	}
}

// State returns the current state of a view without loading.
func (s *ProductListing) State(ctx context.Context, viewID string) (*model.ListingState, error) {
	return s.states.Get(ctx, viewID)
}

// FilterOptions returns the contacts offered by the contact filter.
// Without a contact lister the filter has no options.
func (s *ProductListing) FilterOptions(ctx context.Context) ([]model.Contact, error) {
	if s.contacts == nil {
		return nil, nil
	}
	return s.contacts.ListContacts(ctx, model.ContactListOptions{Limit: s.contactLimit})
}

type navigation struct {
	viewID string
	cursor *string
	dir    Direction
	url    core.URLState
}

func (s *ProductListing) navigate(ctx context.Context, n navigation) (*model.ListingState, bool, error) {
	if n.cursor == nil {
		metrics.EmitNavigation(s.sink, string(n.dir), metrics.ResultNoop)
		st, err := s.states.Get(ctx, n.viewID)
		return st, false, err
	}

	q, err := model.ParseCursor(*n.cursor)
	if err != nil {
		s.logger.Warn("ignoring unparseable pagination cursor",
			"view_id", n.viewID, "direction", n.dir, "error", err)
		metrics.EmitNavigation(s.sink, string(n.dir), metrics.ResultError)
		st, getErr := s.states.Get(ctx, n.viewID)
		return st, false, getErr
	}

	if n.url != nil {
		n.url.SetQuery(q)
	}
	metrics.EmitNavigation(s.sink, string(n.dir), metrics.ResultSuccess)

	st, err := s.load(ctx, n.viewID, q, TriggerNavigate)
	return st, true, err
}

func (s *ProductListing) load(
	ctx context.Context,
	viewID string,
	q model.ProductQuery,
	trigger Trigger,
) (*model.ListingState, error) {
	var gen int64
	if _, err := s.states.Update(ctx, viewID, func(st *model.ListingState) error {
		st.Generation++
		st.Loading = true
		gen = st.Generation
		return nil
	}); err != nil {
		return nil, fmt.Errorf("begin load: %w", err)
	}

	start := s.now()
	merged := model.DefaultProductQuery().Merge(q)
	page, fetchErr := s.products.ListProducts(ctx, merged)
	if fetchErr == nil && page == nil {
		fetchErr = errors.New("listing backend returned no page")
	}
	elapsed := s.now().Sub(start)

	superseded := false
	st, err := s.states.Update(context.WithoutCancel(ctx), viewID, func(st *model.ListingState) error {
		if st.Generation != gen {
			superseded = true
			return core.ErrSkipUpdate
		}
		st.Loading = false
		if fetchErr == nil {
			s.applyPage(st, page, q)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("complete load: %w", err)
	}

	m := metrics.ListingMetric{Trigger: string(trigger), Duration: elapsed}
	switch {
	case superseded:
		m.Result = metrics.ResultSuperseded
		s.logger.Debug("discarding superseded listing load", "view_id", viewID, "generation", gen)
	case fetchErr != nil:
		m.Result = metrics.ResultError
		m.Err = fetchErr
		s.logger.Error("failed to load products",
			"view_id", viewID, "query", merged.Encode(), "trigger", trigger, "error", fetchErr)
	default:
		m.Result = metrics.ResultSuccess
		m.Results = len(page.Results)
	}
	metrics.EmitListingLoad(s.sink, m)
	return st, nil
}

// applyPage replaces the result set and merges the derived pagination fields over the existing state.
func (s *ProductListing) applyPage(st *model.ListingState, page *model.ProductPage, q model.ProductQuery) {
	products := make([]model.Product, len(page.Results))
	copy(products, page.Results)
	st.Products = products

	p := st.Pagination
	p.Next = page.Next
	p.Prev = page.Previous
	count := page.Count
	p.Count = &count
	p.ResultsCount = len(products)
	p.Offset = nil
	if off, ok := q.Offset(); ok {
		p.Offset = &off
	} else if raw := q[model.QueryOffset]; raw != "" {
		s.logger.Debug("ignoring non-numeric offset", "view_id", st.ViewID, "offset", raw)
	}
	st.Pagination = p

	if q != nil {
		st.Query = q.Merge(nil)
	} else {
		st.Query = nil
	}
}
