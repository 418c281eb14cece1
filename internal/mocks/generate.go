// Package mocks provides mock implementations of the product admin ports.
//
// The mocks are generated with go.uber.org/mock (gomock). To regenerate after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	lister := mocks.NewMockProductLister(ctrl)
//	lister.EXPECT().ListProducts(gomock.Any(), gomock.Any()).Return(page, nil)
package mocks

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=product_lister_mock.go github.com/target/mmk-product-admin/internal/core ProductLister

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=contact_lister_mock.go github.com/target/mmk-product-admin/internal/core ContactLister

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=view_state_store_mock.go github.com/target/mmk-product-admin/internal/core ViewStateStore

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=url_state_mock.go github.com/target/mmk-product-admin/internal/core URLState

// ProductRepository and ContactRepository back the local listing backend.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=product_repository_mock.go github.com/target/mmk-product-admin/internal/core ProductRepository

//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=contact_repository_mock.go github.com/target/mmk-product-admin/internal/core ContactRepository
