package productsapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-product-admin/internal/domain/model"
	apperrors "github.com/target/mmk-product-admin/internal/errors"
)

const (
	baseURL     = "http://listing.test"
	productsURL = baseURL + "/api/products"
)

func newTestClient(t *testing.T, cfg Config) (*Client, *httpmock.MockTransport) {
	t.Helper()
	mt := httpmock.NewMockTransport()
	cfg.BaseURL = baseURL
	cfg.Client = &http.Client{Transport: mt}
	c, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	return c, mt
}

const pageBody = `{
	"count": 25,
	"next": "http://listing.test/api/products?limit=10&offset=10&paginate=true",
	"previous": null,
	"results": [
		{"id": 1, "name": "Lamp", "sku": "L-1", "price": "19.99", "currency": "USD", "stock": 3,
		 "contact": {"id": 7, "name": "Acme"}}
	]
}`

func TestClient_ListProducts(t *testing.T) {
	c, mt := newTestClient(t, Config{})

	var gotQuery string
	mt.RegisterResponder(http.MethodGet, productsURL, func(req *http.Request) (*http.Response, error) {
		gotQuery = req.URL.RawQuery
		assert.Equal(t, "application/json", req.Header.Get("Accept"))
		return httpmock.NewStringResponse(http.StatusOK, pageBody), nil
	})

	page, err := c.ListProducts(context.Background(), model.ProductQuery{
		model.QueryPaginate: "true",
		model.QueryContact:  "7",
	})
	require.NoError(t, err)
	assert.Equal(t, "contact=7&paginate=true", gotQuery)
	assert.Equal(t, 25, page.Count)
	require.NotNil(t, page.Next)
	assert.Equal(t, "http://listing.test/api/products?limit=10&offset=10&paginate=true", *page.Next)
	assert.Nil(t, page.Previous)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "19.99", page.Results[0].Price.StringFixed(2))
	require.NotNil(t, page.Results[0].Contact)
	assert.Equal(t, "Acme", page.Results[0].Contact.Name)
}

func TestClient_ListProducts_EmptyResults(t *testing.T) {
	c, mt := newTestClient(t, Config{})
	mt.RegisterResponder(http.MethodGet, productsURL,
		httpmock.NewStringResponder(http.StatusOK, `{"count":0,"next":null,"previous":null}`))

	page, err := c.ListProducts(context.Background(), model.ProductQuery{})
	require.NoError(t, err)
	assert.NotNil(t, page.Results)
	assert.Empty(t, page.Results)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name      string
		responder httpmock.Responder
		wantCalls int
		wantMsg   string
	}{
		{
			name:      "client error",
			responder: httpmock.NewStringResponder(http.StatusBadRequest, `{"contact":["invalid"]}`),
			wantCalls: 1,
			wantMsg:   "status 400",
		},
		{
			name:      "server error is not retried",
			responder: httpmock.NewStringResponder(http.StatusBadGateway, "bad gateway"),
			wantCalls: 1,
			wantMsg:   "status 502",
		},
		{
			name:      "transport error is not retried",
			responder: httpmock.NewErrorResponder(errors.New("connection refused")),
			wantCalls: 1,
			wantMsg:   "listing api request failed",
		},
		{
			name:      "malformed json",
			responder: httpmock.NewStringResponder(http.StatusOK, `{"results": [`),
			wantCalls: 1,
			wantMsg:   "malformed JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mt := newTestClient(t, Config{})
			mt.RegisterResponder(http.MethodGet, productsURL, tt.responder)

			_, err := c.ListProducts(context.Background(), model.ProductQuery{})
			require.Error(t, err)
			assert.True(t, apperrors.IsUpstream(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.Equal(t, tt.wantCalls, mt.GetTotalCallCount())
		})
	}
}

func TestClient_StatusErrorUnwraps(t *testing.T) {
	c, mt := newTestClient(t, Config{})
	mt.RegisterResponder(http.MethodGet, productsURL, httpmock.NewStringResponder(http.StatusNotFound, ""))

	_, err := c.ListProducts(context.Background(), model.ProductQuery{})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestClient_ListContacts(t *testing.T) {
	c, mt := newTestClient(t, Config{})
	mt.RegisterResponder(http.MethodGet, baseURL+"/api/contacts", func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "200", req.URL.Query().Get("limit"))
		assert.Equal(t, "ac me", req.URL.Query().Get("search"))
		return httpmock.NewStringResponse(http.StatusOK, `{"results":[{"id":1,"name":"Acme"},{"id":2,"name":"Globex"}],"count":2}`), nil
	})

	got, err := c.ListContacts(context.Background(), model.ContactListOptions{Limit: 200, Search: " ac me "})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Globex", got[1].Name)
}

func TestClient_ClientCredentials(t *testing.T) {
	c, mt := newTestClient(t, Config{
		TokenURL:     baseURL + "/oauth/token",
		ClientID:     "admin",
		ClientSecret: "secret",
	})

	mt.RegisterResponder(http.MethodPost, baseURL+"/oauth/token", httpmock.NewStringResponder(http.StatusOK,
		`{"access_token":"tok-123","token_type":"bearer","expires_in":3600}`))
	mt.RegisterResponder(http.MethodGet, productsURL, func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "Bearer tok-123" {
			return httpmock.NewStringResponse(http.StatusUnauthorized, ""), nil
		}
		return httpmock.NewStringResponse(http.StatusOK, pageBody), nil
	})

	_, err := c.ListProducts(context.Background(), model.ProductQuery{})
	require.NoError(t, err)
	_, err = c.ListProducts(context.Background(), model.ProductQuery{})
	require.NoError(t, err)

	info := mt.GetCallCountInfo()
	assert.Equal(t, 1, info["POST "+baseURL+"/oauth/token"])
	assert.Equal(t, 2, info["GET "+productsURL])
}

func TestNewClient_Validation(t *testing.T) {
	ctx := context.Background()
	_, err := NewClient(ctx, Config{})
	require.Error(t, err)

	_, err = NewClient(ctx, Config{BaseURL: "not a url"})
	require.Error(t, err)

	_, err = NewClient(ctx, Config{BaseURL: baseURL, ClientID: "x"})
	require.Error(t, err)
}
