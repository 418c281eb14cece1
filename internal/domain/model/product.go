//revive:disable-next-line:var-naming // legacy package name widely used across the project
package model

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxProductNameLen = 255
	maxSKULen         = 64
)

// ContactRef is the embedded contact summary carried on each product.
type ContactRef struct {
	ID   int64  `json:"id"   db:"contact_id"`
	Name string `json:"name" db:"contact_name"`
}

// Product is a single row of the product listing.
type Product struct {
	ID          int64           `json:"id"                    db:"id"`
	Name        string          `json:"name"                  db:"name"`
	SKU         string          `json:"sku"                   db:"sku"`
	Description string          `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price"                 db:"price"`
	Currency    string          `json:"currency"              db:"currency"`
	Stock       int             `json:"stock"                 db:"stock"`
	Contact     *ContactRef     `json:"contact,omitempty"     db:"-"`
	CreatedAt   time.Time       `json:"created_at"            db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"            db:"updated_at"`
}

// ProductListOptions controls paging and filtering when listing products from storage.
type ProductListOptions struct {
	Limit     int
	Offset    int
	ContactID *int64 // exact match on contact_id
}

// ProductPage is the envelope returned by the listing API.
// Next and Previous are absolute URLs, nil when there is no page in that direction.
type ProductPage struct {
	Results  []Product `json:"results"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
	Count    int       `json:"count"`
}

// CreateProductRequest represents parameters to create a Product.
type CreateProductRequest struct {
	Name        string          `json:"name"`
	SKU         string          `json:"sku"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency,omitempty"`
	Stock       int             `json:"stock"`
	ContactID   *int64          `json:"contact_id,omitempty"`
}

// Validate validates CreateProductRequest and normalizes its fields.
func (r *CreateProductRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.SKU = strings.TrimSpace(r.SKU)
	if r.Name == "" {
		return errors.New("name is required and cannot be empty")
	}
	if utf8.RuneCountInString(r.Name) > maxProductNameLen {
		return errors.New("name cannot exceed 255 characters")
	}
	if r.SKU == "" {
		return errors.New("sku is required")
	}
	if len(r.SKU) > maxSKULen {
		return errors.New("sku cannot exceed 64 characters")
	}
	if r.Price.IsNegative() {
		return errors.New("price must be >= 0")
	}
	if r.Stock < 0 {
		return errors.New("stock must be >= 0")
	}
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = "USD"
	}
	if len(r.Currency) != 3 {
		return errors.New("currency must be a 3-letter code")
	}
	if r.ContactID != nil && *r.ContactID <= 0 {
		return errors.New("contact_id must be > 0")
	}
	return nil
}
