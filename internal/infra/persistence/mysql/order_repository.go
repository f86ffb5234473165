package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `
        id, short_code, user_id, vendor_id, delivery_address_id, source, status,
        customer_note, subtotal, discount, delivery_fee, service_fee, total, currency,
        payment_status, payment_method, placed_at, confirmed_at, delivered_at,
        cancelled_at, meta`

// Create persists the order, its items, the delivery record and the initial
// history row in one transaction.
func (r *OrderRepository) Create(ctx context.Context, o *domorder.Order, initial domorder.HistoryEntry) (_ *domorder.Order, retErr error) {
	metaJSON, err := json.Marshal(o.Meta)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO orders (id, short_code, user_id, vendor_id, delivery_address_id, source,
                            status, customer_note, subtotal, discount, delivery_fee,
                            service_fee, total, currency, payment_status, payment_method,
                            placed_at, meta)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, o.ID.String(), o.ShortCode(), o.UserID, o.VendorID, o.DeliveryAddressID, o.Source,
		o.Status, o.CustomerNote, o.Subtotal, o.Discount, o.DeliveryFee,
		o.ServiceFee, o.Total, o.Currency, o.PaymentStatus, o.PaymentMethod,
		o.PlacedAt, metaJSON)
	if err != nil {
		retErr = err
		return nil, retErr
	}

	for _, it := range o.Items {
		modsJSON, err := json.Marshal(it.Modifiers)
		if err != nil {
			retErr = err
			return nil, retErr
		}
		_, err = tx.ExecContext(ctx, `
            INSERT INTO order_items (order_id, product_id, title_snapshot, unit_price_snapshot,
                                     quantity, modifiers, line_subtotal)
            VALUES (?, ?, ?, ?, ?, ?, ?)
        `, o.ID.String(), it.ProductID, it.TitleSnapshot, it.UnitPriceSnapshot,
			it.Quantity, modsJSON, it.LineSubtotal)
		if err != nil {
			retErr = err
			return nil, retErr
		}
	}

	if o.Delivery != nil {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO order_deliveries (order_id, type, is_cash_on_delivery, courier_name,
                                          courier_phone, tracking_code, tracking_url, external_provider)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        `, o.ID.String(), o.Delivery.Type, o.Delivery.IsCashOnDelivery, o.Delivery.CourierName,
			o.Delivery.CourierPhone, o.Delivery.TrackingCode, o.Delivery.TrackingURL,
			o.Delivery.ExternalProvider)
		if err != nil {
			retErr = err
			return nil, retErr
		}
	}

	if err = insertHistory(ctx, tx, o.ID, initial); err != nil {
		retErr = err
		return nil, retErr
	}

	if err = tx.Commit(); err != nil {
		retErr = err
		return nil, retErr
	}
	return r.GetByID(ctx, o.ID)
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domorder.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id.String())
}

func (r *OrderRepository) GetByShortCode(ctx context.Context, code string) (*domorder.Order, error) {
	return r.getOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE short_code = ?`, code)
}

// GetByProviderOrderID resolves the gateway's order reference stored in the
// payment metadata.
func (r *OrderRepository) GetByProviderOrderID(ctx context.Context, ref string) (*domorder.Order, error) {
	return r.getOne(ctx, `
        SELECT `+orderColumns+`
        FROM orders
        WHERE JSON_UNQUOTE(JSON_EXTRACT(meta, '$.payment.provider_order_id')) = ?
        ORDER BY placed_at DESC LIMIT 1
    `, ref)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]*domorder.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = ? ORDER BY placed_at DESC`, userID)
}

func (r *OrderRepository) ListByVendor(ctx context.Context, vendorID int64) ([]*domorder.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE vendor_id = ? ORDER BY placed_at DESC`, vendorID)
}

func (r *OrderRepository) LatestActiveByUser(ctx context.Context, userID int64) (*domorder.Order, error) {
	in, args := activeStatusArgs()
	args = append([]any{userID}, args...)
	return r.getOne(ctx, `
        SELECT `+orderColumns+`
        FROM orders
        WHERE user_id = ? AND status IN (`+in+`)
        ORDER BY placed_at DESC LIMIT 1
    `, args...)
}

func (r *OrderRepository) CountActiveByVendor(ctx context.Context, vendorID int64) (int64, error) {
	in, args := activeStatusArgs()
	args = append([]any{vendorID}, args...)
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM orders WHERE vendor_id = ? AND status IN (`+in+`)`,
		args...,
	).Scan(&n)
	return n, err
}

// UpdateStatus applies upd only while the row's status still equals from.
// Zero rows affected means another writer got there first: ErrStaleStatus.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from domorder.Status, upd domorder.StatusUpdate, entry *domorder.HistoryEntry) (_ *domorder.Order, retErr error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	set := []string{"status = ?"}
	args := []any{upd.To}
	if upd.PaymentStatus != nil {
		set = append(set, "payment_status = ?")
		args = append(args, *upd.PaymentStatus)
	}
	if upd.ConfirmedAt != nil {
		set = append(set, "confirmed_at = ?")
		args = append(args, *upd.ConfirmedAt)
	}
	if upd.DeliveredAt != nil {
		set = append(set, "delivered_at = ?")
		args = append(args, *upd.DeliveredAt)
	}
	if upd.CancelledAt != nil {
		set = append(set, "cancelled_at = ?")
		args = append(args, *upd.CancelledAt)
	}
	args = append(args, id.String(), from)

	res, err := tx.ExecContext(ctx,
		`UPDATE orders SET `+strings.Join(set, ", ")+` WHERE id = ? AND status = ?`,
		args...)
	if err != nil {
		retErr = err
		return nil, retErr
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		var exists bool
		if err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM orders WHERE id = ?)`, id.String(),
		).Scan(&exists); err != nil {
			retErr = err
			return nil, retErr
		}
		if !exists {
			retErr = domorder.ErrOrderNotFound
		} else {
			retErr = domorder.ErrStaleStatus
		}
		return nil, retErr
	}

	if entry != nil {
		if err = insertHistory(ctx, tx, id, *entry); err != nil {
			retErr = err
			return nil, retErr
		}
	}

	if err = tx.Commit(); err != nil {
		retErr = err
		return nil, retErr
	}
	return r.GetByID(ctx, id)
}

func (r *OrderRepository) UpdateMeta(ctx context.Context, id uuid.UUID, meta domorder.Meta) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET meta = ? WHERE id = ?`, metaJSON, id.String())
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domorder.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) ListStaleUnpaid(ctx context.Context, before time.Time) ([]*domorder.Order, error) {
	return r.list(ctx, `
        SELECT `+orderColumns+`
        FROM orders
        WHERE status = ? AND payment_status = ? AND placed_at <= ?
    `, domorder.StatusPendingPayment, domorder.PaymentUnpaid, before)
}

func (r *OrderRepository) ListHistory(ctx context.Context, orderID uuid.UUID) ([]domorder.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, order_id, from_status, to_status, actor_type, actor_user_id, reason, created_at
        FROM order_status_history
        WHERE order_id = ?
        ORDER BY id
    `, orderID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domorder.HistoryEntry
	for rows.Next() {
		var e domorder.HistoryEntry
		var rawID string
		if err := rows.Scan(&e.ID, &rawID, &e.FromStatus, &e.ToStatus, &e.ActorType,
			&e.ActorUserID, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.OrderID, err = uuid.Parse(rawID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *OrderRepository) getOne(ctx context.Context, query string, args ...any) (*domorder.Order, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	o, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domorder.ErrOrderNotFound
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]*domorder.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domorder.Order
	for rows.Next() {
		o, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, o := range orders {
		if err := r.loadChildren(ctx, o); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *OrderRepository) loadChildren(ctx context.Context, o *domorder.Order) error {
	items, err := r.listItems(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Items = items

	d, err := r.getDelivery(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Delivery = d
	return nil
}

func (r *OrderRepository) listItems(ctx context.Context, orderID uuid.UUID) ([]domorder.Item, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, order_id, product_id, title_snapshot, unit_price_snapshot,
               quantity, modifiers, line_subtotal, created_at
        FROM order_items WHERE order_id = ? ORDER BY id
    `, orderID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domorder.Item
	for rows.Next() {
		var it domorder.Item
		var rawID string
		var modsJSON []byte
		if err := rows.Scan(&it.ID, &rawID, &it.ProductID, &it.TitleSnapshot,
			&it.UnitPriceSnapshot, &it.Quantity, &modsJSON, &it.LineSubtotal, &it.CreatedAt); err != nil {
			return nil, err
		}
		it.OrderID, err = uuid.Parse(rawID)
		if err != nil {
			return nil, err
		}
		if len(modsJSON) > 0 {
			if err := json.Unmarshal(modsJSON, &it.Modifiers); err != nil {
				return nil, fmt.Errorf("decoding item modifiers: %w", err)
			}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *OrderRepository) getDelivery(ctx context.Context, orderID uuid.UUID) (*domorder.Delivery, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT order_id, type, is_cash_on_delivery, courier_name, courier_phone,
               tracking_code, tracking_url, external_provider, created_at
        FROM order_deliveries WHERE order_id = ?
    `, orderID.String())

	var d domorder.Delivery
	var rawID string
	err := row.Scan(&rawID, &d.Type, &d.IsCashOnDelivery, &d.CourierName, &d.CourierPhone,
		&d.TrackingCode, &d.TrackingURL, &d.ExternalProvider, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	d.OrderID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, orderID uuid.UUID, e domorder.HistoryEntry) error {
	_, err := tx.ExecContext(ctx, `
        INSERT INTO order_status_history (order_id, from_status, to_status, actor_type, actor_user_id, reason)
        VALUES (?, ?, ?, ?, ?, ?)
    `, orderID.String(), e.FromStatus, e.ToStatus, e.ActorType, e.ActorUserID, e.Reason)
	return err
}

func scanOrder(scan func(dest ...any) error) (*domorder.Order, error) {
	var o domorder.Order
	var rawID, shortCode string
	var metaJSON []byte
	err := scan(&rawID, &shortCode, &o.UserID, &o.VendorID, &o.DeliveryAddressID, &o.Source,
		&o.Status, &o.CustomerNote, &o.Subtotal, &o.Discount, &o.DeliveryFee,
		&o.ServiceFee, &o.Total, &o.Currency, &o.PaymentStatus, &o.PaymentMethod,
		&o.PlacedAt, &o.ConfirmedAt, &o.DeliveredAt, &o.CancelledAt, &metaJSON)
	if err != nil {
		return nil, err
	}
	o.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, err
	}
	if len(metaJSON) > 0 {
		if err := json.Unmarshal(metaJSON, &o.Meta); err != nil {
			return nil, fmt.Errorf("decoding order meta: %w", err)
		}
	}
	return &o, nil
}

func activeStatusArgs() (string, []any) {
	placeholders := make([]string, len(domorder.ActiveStatuses))
	args := make([]any, len(domorder.ActiveStatuses))
	for i, s := range domorder.ActiveStatuses {
		placeholders[i] = "?"
		args[i] = s
	}
	return strings.Join(placeholders, ", "), args
}
