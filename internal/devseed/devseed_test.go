package devseed

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-product-admin/internal/domain/model"
	apperrors "github.com/target/mmk-product-admin/internal/errors"
)

type memContacts struct {
	byName map[string]model.Contact
	nextID int64
}

func (m *memContacts) Create(_ context.Context, req *model.CreateContactRequest) (*model.Contact, error) {
	key := strings.ToLower(req.Name)
	if _, ok := m.byName[key]; ok {
		return nil, apperrors.Conflict("contact name already exists")
	}
	m.nextID++
	c := model.Contact{ID: m.nextID, Name: req.Name, Email: req.Email}
	m.byName[key] = c
	return &c, nil
}

func (m *memContacts) List(_ context.Context, opts model.ContactListOptions) ([]model.Contact, error) {
	var out []model.Contact
	for _, c := range m.byName {
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(opts.Search)) {
			out = append(out, c)
		}
	}
	return out, nil
}

type memProducts struct {
	bySKU map[string]model.CreateProductRequest
}

func (m *memProducts) Create(_ context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if _, ok := m.bySKU[req.SKU]; ok {
		return nil, apperrors.Conflict("sku already exists")
	}
	m.bySKU[req.SKU] = *req
	return &model.Product{Name: req.Name, SKU: req.SKU}, nil
}

func TestRun_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	contacts := &memContacts{byName: map[string]model.Contact{}}
	products := &memProducts{bySKU: map[string]model.CreateProductRequest{}}
	svcs := Services{Contacts: contacts, Products: products}

	stats, err := Run(ctx, svcs, logger)
	require.NoError(t, err)
	assert.Equal(t, len(seedContacts), stats.ContactsCreated)
	assert.Equal(t, ProductCount, stats.ProductsCreated)
	assert.Zero(t, stats.Skipped)

	stats, err = Run(ctx, svcs, logger)
	require.NoError(t, err)
	assert.Zero(t, stats.ContactsCreated)
	assert.Zero(t, stats.ProductsCreated)
	assert.Equal(t, len(seedContacts)+ProductCount, stats.Skipped)
	assert.Len(t, products.bySKU, ProductCount)
}

func TestProducts_Deterministic(t *testing.T) {
	a := Products([]int64{1, 2})
	b := Products([]int64{1, 2})
	require.Len(t, a, ProductCount)
	assert.Equal(t, a, b)

	for i, p := range a {
		require.NoError(t, p.Validate(), "product %d", i)
		if i%4 == 3 {
			assert.Nil(t, p.ContactID)
		} else {
			require.NotNil(t, p.ContactID)
		}
	}
	assert.Equal(t, "DEV-0001", a[0].SKU)
	assert.Equal(t, "4.99", a[0].Price.StringFixed(2))
}

func TestRun_RequiresStores(t *testing.T) {
	_, err := Run(context.Background(), Services{}, nil)
	require.Error(t, err)
}
