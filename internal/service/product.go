package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/target/mmk-product-admin/internal/core"
	"github.com/target/mmk-product-admin/internal/domain/model"
	apperrors "github.com/target/mmk-product-admin/internal/errors"
)

// MaxPageLimit caps the page size accepted by the listing backend.
const MaxPageLimit = 100

// ProductServiceOptions groups dependencies for ProductService.
type ProductServiceOptions struct {
	Products core.ProductRepository
	Contacts core.ContactRepository
	// ListURL is the absolute URL of the listing endpoint, used to build next/previous links.
	ListURL   string
	PageLimit int
}

// ProductService serves the product listing from the database.
// It produces the same limit/offset envelope a remote listing API returns.
type ProductService struct {
	products  core.ProductRepository
	contacts  core.ContactRepository
	listURL   string
	pageLimit int
}

var _ core.ListingBackend = (*ProductService)(nil)

// NewProductService constructs a new ProductService.
func NewProductService(opts ProductServiceOptions) *ProductService {
	limit := opts.PageLimit
	if limit <= 0 {
		limit = model.DefaultPageLimit
	}
	return &ProductService{
		products:  opts.Products,
		contacts:  opts.Contacts,
		listURL:   strings.TrimRight(opts.ListURL, "?"),
		pageLimit: min(limit, MaxPageLimit),
	}
}

// ListParams are the normalized listing parameters.
type ListParams struct {
	Options  model.ProductListOptions
	Paginate bool
}

// ParseListParams normalizes a listing query.
// limit falls back to the page limit and is clamped to [1, MaxPageLimit]; a bad offset becomes 0.
func (s *ProductService) ParseListParams(q model.ProductQuery) (ListParams, error) {
	p := ListParams{Options: model.ProductListOptions{Limit: s.pageLimit}}

	if raw := q[model.QueryLimit]; raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			p.Options.Limit = min(max(n, 1), MaxPageLimit)
		}
	}
	if off, ok := q.Offset(); ok && off > 0 {
		p.Options.Offset = off
	}
	if raw := q.Contact(); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return ListParams{}, apperrors.ValidationField("contact", "contact must be a positive integer")
		}
		p.Options.ContactID = &id
	}
	p.Paginate = strings.EqualFold(q[model.QueryPaginate], "true")
	return p, nil
}

// ListProducts returns one page of products.
// Without paginate=true only the first limit rows are returned and no cursors are set.
func (s *ProductService) ListProducts(ctx context.Context, q model.ProductQuery) (*model.ProductPage, error) {
	p, err := s.ParseListParams(q)
	if err != nil {
		return nil, err
	}
	if !p.Paginate {
		p.Options.Offset = 0
	}

	products, err := s.products.List(ctx, p.Options)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	count, err := s.products.Count(ctx, p.Options)
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if products == nil {
		products = []model.Product{}
	}

	page := &model.ProductPage{Results: products, Count: count}
	if !p.Paginate {
		return page, nil
	}

	opts := p.Options
	if opts.Offset+opts.Limit < count {
		page.Next = s.pageURL(opts, opts.Offset+opts.Limit)
	}
	if opts.Offset > 0 {
		page.Previous = s.pageURL(opts, max(opts.Offset-opts.Limit, 0))
	}
	return page, nil
}

// ListContacts returns contacts for the filter dropdown.
func (s *ProductService) ListContacts(ctx context.Context, opts model.ContactListOptions) ([]model.Contact, error) {
	if s.contacts == nil {
		return nil, nil
	}
	if opts.Limit <= 0 || opts.Limit > 500 {
		opts.Limit = 500
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	opts.Search = strings.TrimSpace(opts.Search)
	return s.contacts.List(ctx, opts)
}

// GetProduct retrieves a product by ID.
func (s *ProductService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return s.products.GetByID(ctx, id)
}

// CreateProduct validates and stores a product.
func (s *ProductService) CreateProduct(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	return s.products.Create(ctx, req)
}

// CreateContact validates and stores a contact.
func (s *ProductService) CreateContact(ctx context.Context, req *model.CreateContactRequest) (*model.Contact, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	return s.contacts.Create(ctx, req)
}

// pageURL builds the absolute link of the page starting at offset.
// The first page carries no offset parameter.
func (s *ProductService) pageURL(opts model.ProductListOptions, offset int) *string {
	q := model.ProductQuery{
		model.QueryLimit:    strconv.Itoa(opts.Limit),
		model.QueryPaginate: "true",
	}
	if opts.ContactID != nil {
		q[model.QueryContact] = strconv.FormatInt(*opts.ContactID, 10)
	}
	if offset > 0 {
		q[model.QueryOffset] = strconv.Itoa(offset)
	}

	base := s.listURL
	u, err := url.Parse(base)
	if err != nil || base == "" {
		out := "?" + q.Encode()
		return &out
	}
	u.RawQuery = q.Encode()
	out := u.String()
	return &out
}
