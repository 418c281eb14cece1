package core

import (
	"context"

	"github.com/target/mmk-product-admin/internal/domain/model"
)

// This file contains the ports between the listing service, storage and the listing backend.

// ProductRepository defines storage operations for products.
type ProductRepository interface {
	Create(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error)
	GetByID(ctx context.Context, id int64) (*model.Product, error)
	List(ctx context.Context, opts model.ProductListOptions) ([]model.Product, error)
	Count(ctx context.Context, opts model.ProductListOptions) (int, error)
}

// ContactRepository defines storage operations for contacts.
type ContactRepository interface {
	Create(ctx context.Context, req *model.CreateContactRequest) (*model.Contact, error)
	GetByID(ctx context.Context, id int64) (*model.Contact, error)
	List(ctx context.Context, opts model.ContactListOptions) ([]model.Contact, error)
}

// ProductLister fetches one page of the product listing for a query.
// Implementations return the backend's next/previous URLs untouched.
type ProductLister interface {
	ListProducts(ctx context.Context, q model.ProductQuery) (*model.ProductPage, error)
}

// ContactLister returns the contacts offered by the contact filter.
type ContactLister interface {
	ListContacts(ctx context.Context, opts model.ContactListOptions) ([]model.Contact, error)
}

// ListingBackend is a full listing backend: products plus filter options.
type ListingBackend interface {
	ProductLister
	ContactLister
}

// URLState writes the active listing query into the page URL.
type URLState interface {
	SetQuery(q model.ProductQuery)
}

// ViewStateStore persists per-view listing state.
type ViewStateStore interface {
	// Get returns the stored state, or a fresh state when none exists.
	Get(ctx context.Context, viewID string) (*model.ListingState, error)

	// Update applies fn to the current state atomically and persists the result.
	// Returning ErrSkipUpdate from fn leaves the stored state untouched and Update returns nil.
	Update(ctx context.Context, viewID string, fn func(*model.ListingState) error) (*model.ListingState, error)

	// Delete removes the state for viewID.
	Delete(ctx context.Context, viewID string) error
}

// Sweeper drops expired entries from an in-process store.
type Sweeper interface {
	Sweep() int
}
