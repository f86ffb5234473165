package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")

	// Placement validation, detected before any write.
	ErrEmptyItems       = errors.New("at least one item is required")
	ErrInvalidQuantity  = errors.New("item quantity must be at least one")
	ErrMixedVendors     = errors.New("all items must belong to one vendor")
	ErrTermsNotAccepted = errors.New("terms must be accepted")
	ErrOrderingClosed   = errors.New("ordering is temporarily closed")

	// State machine.
	ErrInvalidStatus      = errors.New("invalid order status")
	ErrIllegalTransition  = errors.New("illegal status transition")
	ErrTerminalStatus     = errors.New("order is in a terminal status")
	ErrForbiddenForVendor = errors.New("status not reachable by vendor action")
	// ErrStaleStatus is returned by the repository when a conditional status
	// write found the row changed since it was read.
	ErrStaleStatus = errors.New("order status changed concurrently")

	// Payment.
	ErrAlreadyPaid = errors.New("order is already paid")
	ErrNotPayable  = errors.New("order is not in a payable status")
)
