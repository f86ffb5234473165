package catalog

import "errors"

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
)
