//go:build tools

// Package tools lists the development tools used with this module. They are run
// with `go run pkg@version` or installed with `go install` and are not tracked in go.mod.
package tools

// mockgen regenerates internal/mocks from the core listing interfaces:
//
//	go generate ./internal/mocks
//
// air reloads cmd/product-admin on template or Go changes during local development:
//
//	go install github.com/air-verse/air@v1.63.0
//	air --build.cmd "go build -o ./tmp/product-admin ./cmd/product-admin" --build.bin ./tmp/product-admin
