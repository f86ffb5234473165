package mysql

import (
	"context"
	"database/sql"
	"errors"

	domaddress "github.com/hsdarestani/vaadehrep/internal/domain/address"
)

type AddressRepository struct {
	db *sql.DB
}

func NewAddressRepository(db *sql.DB) *AddressRepository {
	return &AddressRepository{db: db}
}

func (r *AddressRepository) GetByID(ctx context.Context, id int64) (*domaddress.Address, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, user_id, title, receiver_name, receiver_phone, city, district, street,
               full_text, notes, latitude, longitude, is_default, is_active, created_at
        FROM addresses WHERE id = ?
    `, id)

	var a domaddress.Address
	err := row.Scan(&a.ID, &a.UserID, &a.Title, &a.ReceiverName, &a.ReceiverPhone,
		&a.City, &a.District, &a.Street, &a.FullText, &a.Notes,
		&a.Latitude, &a.Longitude, &a.IsDefault, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domaddress.ErrAddressNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AddressRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM addresses WHERE user_id = ? AND is_active = TRUE`,
		userID,
	).Scan(&n)
	return n, err
}

func (r *AddressRepository) Create(ctx context.Context, a *domaddress.Address) (*domaddress.Address, error) {
	res, err := r.db.ExecContext(ctx, `
        INSERT INTO addresses (user_id, title, receiver_name, receiver_phone, city, district,
                               street, full_text, notes, latitude, longitude, is_default, is_active)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, a.UserID, a.Title, a.ReceiverName, a.ReceiverPhone, a.City, a.District,
		a.Street, a.FullText, a.Notes, a.Latitude, a.Longitude, a.IsDefault, a.IsActive)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	a.ID = id
	return a, nil
}
