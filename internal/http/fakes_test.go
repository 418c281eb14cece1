package httpx

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/target/mmk-product-admin/internal/core"
	domainauth "github.com/target/mmk-product-admin/internal/domain/auth"
	"github.com/target/mmk-product-admin/internal/domain/model"
	"github.com/target/mmk-product-admin/internal/ports"
	"github.com/target/mmk-product-admin/internal/service"
)

// fakeListing records calls and answers with canned state.
type fakeListing struct {
	mu sync.Mutex

	state    *model.ListingState
	contacts []model.Contact
	err      error
	// push is written to the URL state by Navigate when non-nil.
	push model.ProductQuery

	mounted  url.Values
	filtered model.ProductQuery
	moves    []service.Direction
	viewIDs  []string
}

func (f *fakeListing) record(viewID string) {
	f.mu.Lock()
	f.viewIDs = append(f.viewIDs, viewID)
	f.mu.Unlock()
}

func (f *fakeListing) Mount(_ context.Context, viewID string, v url.Values) (*model.ListingState, error) {
	f.record(viewID)
	f.mu.Lock()
	f.mounted = v
	f.mu.Unlock()
	return f.state, f.err
}

func (f *fakeListing) ApplyFilter(_ context.Context, viewID string, q model.ProductQuery) (*model.ListingState, error) {
	f.record(viewID)
	f.filtered = q
	return f.state, f.err
}

func (f *fakeListing) Navigate(
	_ context.Context,
	viewID string,
	dir service.Direction,
	u core.URLState,
) (*model.ListingState, bool, error) {
	f.record(viewID)
	f.moves = append(f.moves, dir)
	if f.err != nil {
		return nil, false, f.err
	}
	if f.push != nil {
		u.SetQuery(f.push)
		return f.state, true, nil
	}
	return f.state, false, nil
}

func (f *fakeListing) State(_ context.Context, viewID string) (*model.ListingState, error) {
	f.record(viewID)
	return f.state, f.err
}

func (f *fakeListing) FilterOptions(context.Context) ([]model.Contact, error) {
	return f.contacts, nil
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }

// sampleState is a first page of two products out of 12.
func sampleState() *model.ListingState {
	st := model.NewListingState("view-1", 10)
	st.Products = []model.Product{
		{
			ID: 1, Name: "Widget", SKU: "W-1", Price: decimal.RequireFromString("9.99"), Currency: "USD", Stock: 4,
			Contact: &model.ContactRef{ID: 3, Name: "Acme"},
		},
		{ID: 2, Name: "Gadget", SKU: "G-1", Price: decimal.RequireFromString("19.5"), Currency: "USD", Stock: 0},
	}
	st.Pagination.Count = intPtr(12)
	st.Pagination.ResultsCount = 2
	st.Pagination.Offset = intPtr(0)
	st.Pagination.Next = strPtr("https://api.example.com/api/products?limit=10&offset=10&paginate=true")
	st.Query = model.ProductQuery{model.QueryPaginate: "true"}
	return st
}

// fakeAuth serves sessions from a map.
type fakeAuth struct {
	sessions  map[string]*domainauth.Session
	challenge ports.LoginChallenge
	beginErr  error
	complete  *domainauth.Session
	compErr   error

	gotRedirect string
	gotInput    service.CallbackInput
	loggedOut   []string
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{sessions: map[string]*domainauth.Session{}}
}

func (f *fakeAuth) withSession(id string, role domainauth.Role) *fakeAuth {
	f.sessions[id] = &domainauth.Session{
		ID:        id,
		Subject:   "user-" + id,
		Name:      "Test User",
		Email:     "test@example.com",
		Role:      role,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	return f
}

func (f *fakeAuth) BeginLogin(_ context.Context, redirectURL string) (ports.LoginChallenge, error) {
	f.gotRedirect = redirectURL
	return f.challenge, f.beginErr
}

func (f *fakeAuth) CompleteLogin(_ context.Context, in service.CallbackInput) (*domainauth.Session, error) {
	f.gotInput = in
	return f.complete, f.compErr
}

func (f *fakeAuth) GetSession(_ context.Context, id string) (*domainauth.Session, error) {
	if s, ok := f.sessions[id]; ok {
		return s, nil
	}
	return nil, errors.New("no session")
}

func (f *fakeAuth) Logout(_ context.Context, id string) error {
	f.loggedOut = append(f.loggedOut, id)
	delete(f.sessions, id)
	return nil
}
