package service

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/domain/model"
	"github.com/target/mmk-product-admin/internal/mocks"
	"go.uber.org/mock/gomock"
)

const testViewID = "view-123"

type listingFixture struct {
	lister   *mocks.MockProductLister
	contacts *mocks.MockContactLister
	url      *mocks.MockURLState
	store    *core.MemoryViewStateStore
	svc      *ProductListing
}

func newListingFixture(t *testing.T) *listingFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &listingFixture{
		lister:   mocks.NewMockProductLister(ctrl),
		contacts: mocks.NewMockContactLister(ctrl),
		url:      mocks.NewMockURLState(ctrl),
		store:    core.NewMemoryViewStateStore(core.DefaultViewStateConfig()),
	}
	svc, err := NewProductListing(ProductListingOptions{
		Products: f.lister,
		Contacts: f.contacts,
		States:   f.store,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func productPage(n, count int, next, prev *string) *model.ProductPage {
	results := make([]model.Product, n)
	for i := range results {
		results[i] = model.Product{ID: int64(i + 1), Name: "product"}
	}
	return &model.ProductPage{Results: results, Count: count, Next: next, Previous: prev}
}

func TestNewProductListing_RequiresDeps(t *testing.T) {
	t.Parallel()

	_, err := NewProductListing(ProductListingOptions{States: core.NewMemoryViewStateStore(core.ViewStateConfig{})})
	require.ErrorIs(t, err, ErrNoBackend)

	ctrl := gomock.NewController(t)
	_, err = NewProductListing(ProductListingOptions{Products: mocks.NewMockProductLister(ctrl)})
	require.Error(t, err)
}

func TestProductListing_MountWithoutParams(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)
	ctx := context.Background()

	f.lister.EXPECT().
		ListProducts(gomock.Any(), model.ProductQuery{model.QueryPaginate: "true"}).
		Return(productPage(10, 25, stringPtr("http://b/api/products?limit=10&offset=10&paginate=true"), nil), nil)

	st, err := f.svc.Mount(ctx, testViewID, url.Values{})
	require.NoError(t, err)
	assert.False(t, st.Loading)
	assert.Len(t, st.Products, 10)
	assert.Equal(t, 10, st.Pagination.ResultsCount)
	assert.Nil(t, st.Pagination.Offset)
	assert.Nil(t, st.Pagination.Prev)
	require.NotNil(t, st.Pagination.Count)
	assert.Equal(t, 25, *st.Pagination.Count)
	assert.Equal(t, model.DefaultPageLimit, st.Pagination.Limit)
	assert.True(t, st.Pagination.HasOffset)
}

func TestProductListing_MountWithParams(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)

	f.lister.EXPECT().
		ListProducts(gomock.Any(), model.ProductQuery{
			model.QueryPaginate: "true",
			model.QueryContact:  "3",
			model.QueryLimit:    "10",
			model.QueryOffset:   "0",
		}).
		Return(productPage(4, 4, nil, nil), nil)

	v := url.Values{"contact": {"3"}, "limit": {"10"}, "offset": {"0"}, "utm_source": {"mail"}}
	st, err := f.svc.Mount(context.Background(), testViewID, v)
	require.NoError(t, err)
	require.NotNil(t, st.Pagination.Offset)
	assert.Equal(t, 0, *st.Pagination.Offset)
	assert.Equal(t, model.ProductQuery{model.QueryContact: "3", model.QueryLimit: "10", model.QueryOffset: "0"}, st.Query)
}

func TestProductListing_LoadOffsetHandling(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		query      model.ProductQuery
		wantOffset *int
	}{
		{name: "no offset key", query: model.ProductQuery{model.QueryContact: "1"}, wantOffset: nil},
		{name: "numeric offset", query: model.ProductQuery{model.QueryOffset: "20"}, wantOffset: intPtr(20)},
		{name: "non numeric offset", query: model.ProductQuery{model.QueryOffset: "abc"}, wantOffset: nil},
		{name: "nil query", query: nil, wantOffset: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newListingFixture(t)
			f.lister.EXPECT().ListProducts(gomock.Any(), gomock.Any()).Return(productPage(3, 30, nil, nil), nil)

			st, err := f.svc.LoadProducts(context.Background(), testViewID, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOffset, st.Pagination.Offset)
		})
	}
}

func TestProductListing_ResultsCountTracksLatestLoad(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)
	ctx := context.Background()

	gomock.InOrder(
		f.lister.EXPECT().ListProducts(gomock.Any(), gomock.Any()).Return(productPage(10, 23, nil, nil), nil),
		f.lister.EXPECT().ListProducts(gomock.Any(), gomock.Any()).Return(productPage(3, 23, nil, nil), nil),
		f.lister.EXPECT().ListProducts(gomock.Any(), gomock.Any()).Return(productPage(0, 0, nil, nil), nil),
	)

	for _, want := range []int{10, 3, 0} {
		st, err := f.svc.LoadProducts(ctx, testViewID, nil)
		require.NoError(t, err)
		assert.Equal(t, want, st.Pagination.ResultsCount)
		assert.Len(t, st.Products, want)
	}
}

func TestProductListing_FetchFailureKeepsData(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)
	ctx := context.Background()

	next := stringPtr("http://b/api/products?limit=10&offset=10&paginate=true")
	gomock.InOrder(
		f.lister.EXPECT().ListProducts(gomock.Any(), gomock.Any()).Return(productPage(10, 25, next, nil), nil),
		f.lister.EXPECT().ListProducts(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ model.ProductQuery) (*model.ProductPage, error) {
				// the view reports loading while the request is in flight
				st, err := f.store.Get(ctx, testViewID)
				require.NoError(t, err)
				assert.True(t, st.Loading)
				return nil, errors.New("connection refused")
			}),
	)

	before, err := f.svc.LoadProducts(ctx, testViewID, nil)
	require.NoError(t, err)

	after, err := f.svc.LoadProducts(ctx, testViewID, model.ProductQuery{model.QueryOffset: "10"})
	require.NoError(t, err)
	assert.False(t, after.Loading)
	assert.Equal(t, before.Products, after.Products)
	assert.Equal(t, before.Pagination, after.Pagination)
}

func TestProductListing_NilPageIsFailure(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)

	f.lister.EXPECT().ListProducts(gomock.Any(), gomock.Any()).Return(nil, nil)

	st, err := f.svc.LoadProducts(context.Background(), testViewID, nil)
	require.NoError(t, err)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Products)
	assert.Nil(t, st.Pagination.Count)
}

func TestProductListing_HandleNextNilIsNoop(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)

	// no ListProducts and no SetQuery expectations: any call fails the test
	st, ok, err := f.svc.HandleNext(context.Background(), testViewID, nil, f.url)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(0), st.Generation)

	_, ok, err = f.svc.HandlePrev(context.Background(), testViewID, nil, f.url)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductListing_HandleNextFollowsCursor(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)

	cursorQuery := model.ProductQuery{
		model.QueryContact:  "5",
		model.QueryLimit:    "10",
		model.QueryOffset:   "10",
		model.QueryPaginate: "true",
	}
	next := "https://api.example.com/api/products/?contact=5&limit=10&offset=10&paginate=true"
	prev := "https://api.example.com/api/products/?contact=5&limit=10&paginate=true"

	gomock.InOrder(
		f.url.EXPECT().SetQuery(cursorQuery),
		f.lister.EXPECT().ListProducts(gomock.Any(), cursorQuery).Return(productPage(10, 35, nil, &prev), nil),
	)

	st, ok, err := f.svc.HandleNext(context.Background(), testViewID, &next, f.url)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotNil(t, st.Pagination.Offset)
	assert.Equal(t, 10, *st.Pagination.Offset)
	assert.Equal(t, &prev, st.Pagination.Prev)
	assert.Nil(t, st.Pagination.Next)
}

func TestProductListing_HandlePrevWithoutOffset(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)

	prev := "https://api.example.com/api/products/?limit=10&paginate=true"
	want := model.ProductQuery{model.QueryLimit: "10", model.QueryPaginate: "true"}

	f.url.EXPECT().SetQuery(want)
	f.lister.EXPECT().ListProducts(gomock.Any(), want).Return(productPage(10, 35, stringPtr("n"), nil), nil)

	st, ok, err := f.svc.HandlePrev(context.Background(), testViewID, &prev, f.url)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Nil(t, st.Pagination.Offset)
}

func TestProductListing_InvalidCursorIsNoop(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)

	bad := "http://[::1"
	_, ok, err := f.svc.HandleNext(context.Background(), testViewID, &bad, f.url)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductListing_NavigateUsesStoredCursor(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)
	ctx := context.Background()

	next := "http://b/api/products?limit=10&offset=10&paginate=true"
	page2 := model.ProductQuery{model.QueryLimit: "10", model.QueryOffset: "10", model.QueryPaginate: "true"}

	gomock.InOrder(
		f.lister.EXPECT().ListProducts(gomock.Any(), gomock.Any()).Return(productPage(10, 15, &next, nil), nil),
		f.url.EXPECT().SetQuery(page2),
		f.lister.EXPECT().ListProducts(gomock.Any(), page2).Return(productPage(5, 15, nil, stringPtr("p")), nil),
	)

	_, err := f.svc.Mount(ctx, testViewID, nil)
	require.NoError(t, err)

	st, ok, err := f.svc.Navigate(ctx, testViewID, DirectionNext, f.url)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 5, st.Pagination.ResultsCount)

	// last page: next is nil so navigating again does nothing
	_, ok, err = f.svc.Navigate(ctx, testViewID, DirectionNext, f.url)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = f.svc.Navigate(ctx, testViewID, Direction("sideways"), f.url)
	require.Error(t, err)
}

func TestProductListing_ApplyFilterDoesNotTouchURL(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)

	f.lister.EXPECT().
		ListProducts(gomock.Any(), model.ProductQuery{model.QueryPaginate: "true", model.QueryContact: "7"}).
		Return(productPage(2, 2, nil, nil), nil)
	f.lister.EXPECT().
		ListProducts(gomock.Any(), model.ProductQuery{model.QueryPaginate: "true"}).
		Return(productPage(9, 9, nil, nil), nil)

	st, err := f.svc.ApplyFilter(context.Background(), testViewID, model.ProductQuery{model.QueryContact: "7"})
	require.NoError(t, err)
	assert.Equal(t, 2, st.Pagination.ResultsCount)

	st, err = f.svc.ApplyFilter(context.Background(), testViewID, model.ProductQuery{model.QueryContact: ""})
	require.NoError(t, err)
	assert.Equal(t, 9, st.Pagination.ResultsCount)
}

func TestProductListing_SupersededLoadIsDiscarded(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)
	ctx := context.Background()

	slow := model.ProductQuery{model.QueryPaginate: "true", model.QueryContact: "1"}
	fast := model.ProductQuery{model.QueryPaginate: "true", model.QueryContact: "2"}
	started := make(chan struct{})
	release := make(chan struct{})

	f.lister.EXPECT().ListProducts(gomock.Any(), slow).
		DoAndReturn(func(context.Context, model.ProductQuery) (*model.ProductPage, error) {
			close(started)
			<-release
			return productPage(7, 7, nil, nil), nil
		})
	f.lister.EXPECT().ListProducts(gomock.Any(), fast).Return(productPage(2, 2, nil, nil), nil)

	var wg sync.WaitGroup
	wg.Add(1)
	var slowState *model.ListingState
	go func() {
		defer wg.Done()
		var err error
		slowState, err = f.svc.LoadProducts(ctx, testViewID, model.ProductQuery{model.QueryContact: "1"})
		assert.NoError(t, err)
	}()

	<-started
	fastState, err := f.svc.LoadProducts(ctx, testViewID, model.ProductQuery{model.QueryContact: "2"})
	require.NoError(t, err)
	assert.Equal(t, 2, fastState.Pagination.ResultsCount)

	close(release)
	wg.Wait()

	// the older load finished last but must not overwrite the newer result
	assert.Equal(t, 2, slowState.Pagination.ResultsCount)
	st, err := f.store.Get(ctx, testViewID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Pagination.ResultsCount)
	assert.Equal(t, "2", st.Query.Contact())
	assert.False(t, st.Loading)
}

func TestProductListing_StoreErrorsPropagate(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	lister := mocks.NewMockProductLister(ctrl)
	store := mocks.NewMockViewStateStore(ctrl)

	svc, err := NewProductListing(ProductListingOptions{Products: lister, States: store})
	require.NoError(t, err)

	store.EXPECT().Update(gomock.Any(), testViewID, gomock.Any()).Return(nil, errors.New("redis down"))

	_, err = svc.LoadProducts(context.Background(), testViewID, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin load")
}

func TestProductListing_FilterOptions(t *testing.T) {
	t.Parallel()
	f := newListingFixture(t)

	contacts := []model.Contact{{ID: 1, Name: "Acme"}}
	f.contacts.EXPECT().ListContacts(gomock.Any(), model.ContactListOptions{Limit: 200}).Return(contacts, nil)

	got, err := f.svc.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, contacts, got)

	noContacts, err := NewProductListing(ProductListingOptions{Products: f.lister, States: f.store})
	require.NoError(t, err)
	got, err = noContacts.FilterOptions(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func stringPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
