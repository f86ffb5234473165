package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists the order, its items, its delivery record and the
	// initial history entry in one transaction. A failure leaves no rows.
	Create(ctx context.Context, o *Order, initial HistoryEntry) (*Order, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// GetByProviderOrderID resolves the gateway's order reference stored in
	// the payment metadata. Returns ErrOrderNotFound.
	GetByProviderOrderID(ctx context.Context, ref string) (*Order, error)
	GetByShortCode(ctx context.Context, code string) (*Order, error)

	ListByUser(ctx context.Context, userID int64) ([]*Order, error)
	ListByVendor(ctx context.Context, vendorID int64) ([]*Order, error)
	// LatestActiveByUser returns the user's most recent order in an active
	// status, or ErrOrderNotFound.
	LatestActiveByUser(ctx context.Context, userID int64) (*Order, error)

	// CountActiveByVendor must read fresh state; it backs the best-effort
	// MaxActiveOrders gate.
	CountActiveByVendor(ctx context.Context, vendorID int64) (int64, error)

	// UpdateStatus applies upd only if the row's status still equals from
	// (optimistic check); otherwise it returns ErrStaleStatus. A non-nil
	// entry is appended to the status history in the same transaction.
	UpdateStatus(ctx context.Context, id uuid.UUID, from Status, upd StatusUpdate, entry *HistoryEntry) (*Order, error)

	UpdateMeta(ctx context.Context, id uuid.UUID, meta Meta) error

	// ListStaleUnpaid returns orders still PENDING_PAYMENT/UNPAID placed at
	// or before the cutoff.
	ListStaleUnpaid(ctx context.Context, before time.Time) ([]*Order, error)

	ListHistory(ctx context.Context, orderID uuid.UUID) ([]HistoryEntry, error)
}
