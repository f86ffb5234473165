package order

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusDraft          Status = "DRAFT"
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusPlaced         Status = "PLACED"
	StatusConfirmed      Status = "CONFIRMED"
	StatusPreparing      Status = "PREPARING"
	StatusReady          Status = "READY"
	StatusOutForDelivery Status = "OUT_FOR_DELIVERY"
	StatusDelivered      Status = "DELIVERED"
	StatusCancelled      Status = "CANCELLED"
	StatusFailed         Status = "FAILED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPendingPayment, StatusPlaced, StatusConfirmed,
		StatusPreparing, StatusReady, StatusOutForDelivery,
		StatusDelivered, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no further transition is permitted out of the
// status. The payment-capture path has its own carve-out for FAILED.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// ActiveStatuses are the statuses that count against a vendor's
// MaxActiveOrders capacity.
var ActiveStatuses = []Status{
	StatusPendingPayment,
	StatusDraft,
	StatusPlaced,
	StatusConfirmed,
	StatusPreparing,
	StatusReady,
	StatusOutForDelivery,
}

type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "UNPAID"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentFailed   PaymentStatus = "FAILED"
)

type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "ONLINE"
	PaymentCOD    PaymentMethod = "COD"
)

type Source string

const (
	SourceWeb      Source = "WEB"
	SourceTelegram Source = "TELEGRAM"
	SourceAdmin    Source = "ADMIN"
)

type DeliveryType string

const (
	DeliveryInZone            DeliveryType = "IN_ZONE"
	DeliveryOutOfZonePassthru DeliveryType = "OUT_OF_ZONE_PASSTHROUGH"
)

type ActorType string

const (
	ActorSystem   ActorType = "SYSTEM"
	ActorCustomer ActorType = "CUSTOMER"
	ActorVendor   ActorType = "VENDOR"
	ActorAdmin    ActorType = "ADMIN"
)

// SelectedOptionItem is one normalized modifier choice snapshotted onto an
// order item.
type SelectedOptionItem struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	PriceDelta int64  `json:"price_delta_amount"`
	Quantity   int64  `json:"quantity"`
}

type SelectedOptionGroup struct {
	GroupID   int64                `json:"group_id"`
	GroupName string               `json:"group_name"`
	Items     []SelectedOptionItem `json:"items"`
}

// Item is an order line. Title and unit price are snapshotted at creation so
// later catalog edits cannot change historical orders. Modifier price deltas
// live in Modifiers and are not folded into UnitPriceSnapshot.
type Item struct {
	ID                int64
	OrderID           uuid.UUID
	ProductID         int64
	TitleSnapshot     string
	UnitPriceSnapshot int64
	Quantity          int64
	Modifiers         []SelectedOptionGroup
	LineSubtotal      int64
	CreatedAt         time.Time
}

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// PaymentMeta is the stored mapping to the payment gateway's view of the
// order, written when an intent is created.
type PaymentMeta struct {
	ProviderOrderID string         `json:"provider_order_id,omitempty"`
	PaymentURL      string         `json:"payment_url,omitempty"`
	Reference       string         `json:"reference,omitempty"`
	Raw             map[string]any `json:"raw,omitempty"`
}

// Meta is the typed form of the order's free-form metadata. Extra keeps
// unknown fields round-trippable for external consumers.
type Meta struct {
	AcceptTerms      bool           `json:"accept_terms,omitempty"`
	DeliveryType     DeliveryType   `json:"delivery_type,omitempty"`
	CustomerLocation *Coordinates   `json:"customer_location,omitempty"`
	Payment          *PaymentMeta   `json:"payment,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// Delivery is the one-to-one delivery record. IsCashOnDelivery is true
// exactly when the order ships via the out-of-zone passthrough courier.
type Delivery struct {
	OrderID          uuid.UUID
	Type             DeliveryType
	IsCashOnDelivery bool
	CourierName      string
	CourierPhone     string
	TrackingCode     string
	TrackingURL      string
	ExternalProvider string
	CreatedAt        time.Time
}

type Order struct {
	ID                uuid.UUID
	UserID            int64
	VendorID          int64
	DeliveryAddressID int64
	Source            Source
	Status            Status
	CustomerNote      string

	Subtotal    int64
	Discount    int64
	DeliveryFee int64
	ServiceFee  int64
	Total       int64
	Currency    string

	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod

	PlacedAt    time.Time
	ConfirmedAt *time.Time
	DeliveredAt *time.Time
	CancelledAt *time.Time

	Meta     Meta
	Items    []Item
	Delivery *Delivery
}

// HistoryEntry is one append-only status-transition record. FromStatus is
// empty for the creation entry.
type HistoryEntry struct {
	ID          int64
	OrderID     uuid.UUID
	FromStatus  Status
	ToStatus    Status
	ActorType   ActorType
	ActorUserID *int64
	Reason      string
	CreatedAt   time.Time
}

// StatusUpdate is the write side of one state-machine step. Nil fields are
// left untouched.
type StatusUpdate struct {
	To            Status
	PaymentStatus *PaymentStatus
	ConfirmedAt   *time.Time
	DeliveredAt   *time.Time
	CancelledAt   *time.Time
}
