package testutil

import (
	"fmt"
	"sync/atomic"

	"github.com/shopspring/decimal"
	"github.com/target/mmk-product-admin/internal/domain/model"
)

var seq atomic.Int64

// ProductRequestBuilder builds CreateProductRequest values with unique SKUs.
type ProductRequestBuilder struct {
	req model.CreateProductRequest
}

// NewProductRequest starts a builder with a unique name and SKU.
func NewProductRequest() *ProductRequestBuilder {
	n := seq.Add(1)
	return &ProductRequestBuilder{req: model.CreateProductRequest{
		Name:     fmt.Sprintf("Product %d", n),
		SKU:      fmt.Sprintf("SKU-%d", n),
		Price:    decimal.NewFromInt(10),
		Currency: "USD",
		Stock:    1,
	}}
}

func (b *ProductRequestBuilder) WithName(name string) *ProductRequestBuilder {
	b.req.Name = name
	return b
}

func (b *ProductRequestBuilder) WithSKU(sku string) *ProductRequestBuilder {
	b.req.SKU = sku
	return b
}

func (b *ProductRequestBuilder) WithPrice(price string) *ProductRequestBuilder {
	b.req.Price = decimal.RequireFromString(price)
	return b
}

func (b *ProductRequestBuilder) WithContact(id int64) *ProductRequestBuilder {
	b.req.ContactID = &id
	return b
}

// Build returns a copy of the request.
func (b *ProductRequestBuilder) Build() *model.CreateProductRequest {
	out := b.req
	return &out
}
