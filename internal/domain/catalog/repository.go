package catalog

import "context"

type Repository interface {
	GetProduct(ctx context.Context, id int64) (*Product, error)
	// ListVendorProducts returns the vendor's active, available products in
	// menu order.
	ListVendorProducts(ctx context.Context, vendorID int64) ([]*Product, error)
	// ListProductOptionGroups returns the product's active option-group links
	// with their active items, in sort order.
	ListProductOptionGroups(ctx context.Context, productID int64) ([]ProductOptionGroup, error)
}
