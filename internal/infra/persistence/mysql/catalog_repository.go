package mysql

import (
	"context"
	"database/sql"
	"errors"

	domcatalog "github.com/hsdarestani/vaadehrep/internal/domain/catalog"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id int64) (*domcatalog.Product, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, vendor_id, category_id, name, short_description, base_price,
               sort_order, is_active, is_available, created_at
        FROM products WHERE id = ?
    `, id)

	var p domcatalog.Product
	err := row.Scan(&p.ID, &p.VendorID, &p.CategoryID, &p.Name, &p.ShortDescription,
		&p.BasePrice, &p.SortOrder, &p.IsActive, &p.IsAvailable, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domcatalog.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *CatalogRepository) ListVendorProducts(ctx context.Context, vendorID int64) ([]*domcatalog.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, vendor_id, category_id, name, short_description, base_price,
               sort_order, is_active, is_available, created_at
        FROM products
        WHERE vendor_id = ? AND is_active = TRUE AND is_available = TRUE
        ORDER BY sort_order, id
    `, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domcatalog.Product
	for rows.Next() {
		var p domcatalog.Product
		if err := rows.Scan(&p.ID, &p.VendorID, &p.CategoryID, &p.Name, &p.ShortDescription,
			&p.BasePrice, &p.SortOrder, &p.IsActive, &p.IsAvailable, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

// ListProductOptionGroups loads the product's active option-group links with
// their groups and active items, in link sort order.
func (r *CatalogRepository) ListProductOptionGroups(ctx context.Context, productID int64) ([]domcatalog.ProductOptionGroup, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT l.product_id, l.is_required, l.min_select, l.max_select, l.sort_order, l.is_active,
               g.id, g.vendor_id, g.name, g.description, g.is_required, g.min_select, g.max_select,
               g.sort_order, g.is_active
        FROM product_option_groups l
        JOIN option_groups g ON g.id = l.option_group_id
        WHERE l.product_id = ? AND l.is_active = TRUE AND g.is_active = TRUE
        ORDER BY l.sort_order, g.id
    `, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []domcatalog.ProductOptionGroup
	for rows.Next() {
		var l domcatalog.ProductOptionGroup
		if err := rows.Scan(&l.ProductID, &l.IsRequired, &l.MinSelect, &l.MaxSelect,
			&l.SortOrder, &l.IsActive,
			&l.Group.ID, &l.Group.VendorID, &l.Group.Name, &l.Group.Description,
			&l.Group.IsRequired, &l.Group.MinSelect, &l.Group.MaxSelect,
			&l.Group.SortOrder, &l.Group.IsActive); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range links {
		items, err := r.listOptionItems(ctx, links[i].Group.ID)
		if err != nil {
			return nil, err
		}
		links[i].Items = items
	}
	return links, nil
}

func (r *CatalogRepository) listOptionItems(ctx context.Context, groupID int64) ([]domcatalog.OptionItem, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, option_group_id, name, description, price_delta, sort_order, is_active
        FROM option_items
        WHERE option_group_id = ? AND is_active = TRUE
        ORDER BY sort_order, id
    `, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domcatalog.OptionItem
	for rows.Next() {
		var it domcatalog.OptionItem
		if err := rows.Scan(&it.ID, &it.GroupID, &it.Name, &it.Description,
			&it.PriceDelta, &it.SortOrder, &it.IsActive); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}
