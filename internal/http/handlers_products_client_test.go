package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-product-admin/internal/adapters/productsapi"
	"github.com/target/mmk-product-admin/internal/domain/model"
)

// The remote listing client must read what this service's own JSON API writes.
func TestProductHandlers_ServeRemoteClient(t *testing.T) {
	next := "http://listing.test/api/products?limit=1&offset=1&paginate=true"
	cat := &fakeCatalog{
		page: &model.ProductPage{
			Results: []model.Product{{ID: 1, Name: "Widget", Price: decimal.RequireFromString("9.99"), Currency: "USD"}},
			Next:    &next,
			Count:   2,
		},
		contacts: []model.Contact{{ID: 3, Name: "Acme"}, {ID: 4, Name: "Globex"}},
	}
	h := &ProductHandlers{Svc: cat}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/products", h.List)
	mux.HandleFunc("GET /api/contacts", h.ListContacts)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := productsapi.NewClient(context.Background(), productsapi.Config{
		BaseURL: srv.URL,
		Client:  srv.Client(),
	})
	require.NoError(t, err)

	page, err := client.ListProducts(context.Background(), model.ProductQuery{model.QueryPaginate: "true"})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "Widget", page.Results[0].Name)
	require.NotNil(t, page.Next)
	assert.Equal(t, next, *page.Next)
	assert.Equal(t, 2, page.Count)

	contacts, err := client.ListContacts(context.Background(), model.ContactListOptions{Limit: 50, Search: "ac"})
	require.NoError(t, err)
	assert.Equal(t, cat.contacts, contacts)
	assert.Equal(t, model.ContactListOptions{Limit: 50, Search: "ac"}, cat.gotOpts)
}

func TestProductHandlers_ServeRemoteClient_NoContacts(t *testing.T) {
	h := &ProductHandlers{Svc: &fakeCatalog{}}
	srv := httptest.NewServer(http.HandlerFunc(h.ListContacts))
	t.Cleanup(srv.Close)

	client, err := productsapi.NewClient(context.Background(), productsapi.Config{BaseURL: srv.URL, Client: srv.Client()})
	require.NoError(t, err)

	contacts, err := client.ListContacts(context.Background(), model.ContactListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, contacts)
	assert.Empty(t, contacts)
}
