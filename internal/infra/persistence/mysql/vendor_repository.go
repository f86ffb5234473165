package mysql

import (
	"context"
	"database/sql"
	"errors"

	domvendor "github.com/hsdarestani/vaadehrep/internal/domain/vendor"
)

type VendorRepository struct {
	db *sql.DB
}

func NewVendorRepository(db *sql.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

const vendorColumns = `
        id, name, slug, is_active, is_visible, is_accepting_orders, city, area,
        lat, lng, primary_phone, telegram_chat_id, prep_time_minutes,
        min_order_amount, max_active_orders, supports_in_zone_delivery,
        supports_out_of_zone_passthrough, created_at`

func (r *VendorRepository) GetByID(ctx context.Context, id int64) (*domvendor.Vendor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+vendorColumns+` FROM vendors WHERE id = ?`, id)
	v, err := scanVendor(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domvendor.ErrVendorNotFound
		}
		return nil, err
	}
	return v, nil
}

func (r *VendorRepository) ListOpen(ctx context.Context) ([]*domvendor.Vendor, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+vendorColumns+`
         FROM vendors
         WHERE is_active = TRUE AND is_visible = TRUE AND is_accepting_orders = TRUE
         ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vendors []*domvendor.Vendor
	for rows.Next() {
		v, err := scanVendor(rows.Scan)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (r *VendorRepository) ListActiveLocations(ctx context.Context, vendorID int64) ([]domvendor.Location, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, vendor_id, title, is_active, address_text, lat, lng, service_radius_m, created_at
        FROM vendor_locations
        WHERE vendor_id = ? AND is_active = TRUE
    `, vendorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []domvendor.Location
	for rows.Next() {
		var l domvendor.Location
		if err := rows.Scan(&l.ID, &l.VendorID, &l.Title, &l.IsActive, &l.AddressText,
			&l.Lat, &l.Lng, &l.ServiceRadiusM, &l.CreatedAt); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

func (r *VendorRepository) ActiveStaffForUser(ctx context.Context, userID int64) (*domvendor.Staff, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT vs.id, vs.vendor_id, vs.user_id, vs.role, vs.is_active, vs.created_at
        FROM vendor_staff vs
        JOIN vendors v ON v.id = vs.vendor_id
        WHERE vs.user_id = ? AND vs.is_active = TRUE
          AND v.is_active = TRUE AND v.is_visible = TRUE
        ORDER BY vs.created_at DESC
        LIMIT 1
    `, userID)

	var s domvendor.Staff
	if err := row.Scan(&s.ID, &s.VendorID, &s.UserID, &s.Role, &s.IsActive, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domvendor.ErrStaffNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanVendor(scan func(dest ...any) error) (*domvendor.Vendor, error) {
	var v domvendor.Vendor
	err := scan(&v.ID, &v.Name, &v.Slug, &v.IsActive, &v.IsVisible, &v.IsAcceptingOrders,
		&v.City, &v.Area, &v.Lat, &v.Lng, &v.PrimaryPhone, &v.TelegramChatID,
		&v.PrepTimeMinutes, &v.MinOrderAmount, &v.MaxActiveOrders,
		&v.SupportsInZoneDelivery, &v.SupportsOutOfZonePassthrough, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
