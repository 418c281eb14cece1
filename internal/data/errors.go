package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrContactNotFound = errors.New("contact not found")
	ErrRequestRequired = errors.New("request is required")
)
