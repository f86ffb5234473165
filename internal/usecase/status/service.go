// Package status is the order state machine: it enforces legal transitions,
// appends history, and fans out notifications when a status actually changes.
package status

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
	"github.com/hsdarestani/vaadehrep/pkg/logger"
)

// Notifier receives transition events after the write commits. Calls are
// best-effort; they never fail or delay the transition.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, o *domorder.Order, from, to domorder.Status)
	PaymentVerified(ctx context.Context, o *domorder.Order)
}

// SweepSettings supplies the age threshold for the unpaid-order sweep.
type SweepSettings interface {
	UnpaidOrderTTL(ctx context.Context) time.Duration
}

// vendorTransitions maps each vendor-reachable target to the statuses it may
// be entered from. Anything else is only reachable by the operator action.
var vendorTransitions = map[domorder.Status][]domorder.Status{
	domorder.StatusPreparing:      {domorder.StatusPlaced, domorder.StatusConfirmed, domorder.StatusPreparing},
	domorder.StatusOutForDelivery: {domorder.StatusPreparing, domorder.StatusReady, domorder.StatusConfirmed},
}

// operatorTargets is the wider set reachable from any non-terminal status.
var operatorTargets = map[domorder.Status]struct{}{
	domorder.StatusConfirmed:      {},
	domorder.StatusPreparing:      {},
	domorder.StatusReady:          {},
	domorder.StatusOutForDelivery: {},
	domorder.StatusDelivered:      {},
	domorder.StatusCancelled:      {},
}

type Service struct {
	orders   domorder.Repository
	notifier Notifier
	settings SweepSettings
	log      *logger.Logger
}

func NewService(orders domorder.Repository, notifier Notifier, settings SweepSettings, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{orders: orders, notifier: notifier, settings: settings, log: log}
}

// ApplyPaymentResult folds a gateway verification result into the order.
// Payment capture is monotonic: once PAID the order never downgrades, no
// matter what later callbacks report. Returns the (possibly unchanged) order.
func (s *Service) ApplyPaymentResult(ctx context.Context, orderID uuid.UUID, paid bool) (*domorder.Order, error) {
	return s.applyWithRetry(ctx, orderID, func(o *domorder.Order) (*domorder.StatusUpdate, domorder.HistoryEntry, bool) {
		if paid {
			if o.PaymentStatus == domorder.PaymentPaid {
				return nil, domorder.HistoryEntry{}, false
			}
			if o.Status != domorder.StatusPendingPayment && o.Status != domorder.StatusFailed {
				return nil, domorder.HistoryEntry{}, false
			}
			now := time.Now()
			ps := domorder.PaymentPaid
			return &domorder.StatusUpdate{
					To:            domorder.StatusConfirmed,
					PaymentStatus: &ps,
					ConfirmedAt:   &now,
				}, domorder.HistoryEntry{
					FromStatus: o.Status,
					ToStatus:   domorder.StatusConfirmed,
					ActorType:  domorder.ActorSystem,
					Reason:     "payment verified",
				}, true
		}

		if o.PaymentStatus == domorder.PaymentPaid || o.Status != domorder.StatusPendingPayment {
			return nil, domorder.HistoryEntry{}, false
		}
		ps := domorder.PaymentFailed
		return &domorder.StatusUpdate{
				To:            domorder.StatusFailed,
				PaymentStatus: &ps,
			}, domorder.HistoryEntry{
				FromStatus: o.Status,
				ToStatus:   domorder.StatusFailed,
				ActorType:  domorder.ActorSystem,
				Reason:     "payment failed",
			}, true
	})
}

// VendorSetStatus applies a kitchen-side action. Vendors may only move orders
// to PREPARING or OUT_FOR_DELIVERY, each from a narrow set of prior statuses.
// Re-sending the current status is tolerated as a no-op.
func (s *Service) VendorSetStatus(ctx context.Context, orderID uuid.UUID, target domorder.Status, actorUserID int64) (*domorder.Order, error) {
	allowedFrom, ok := vendorTransitions[target]
	if !ok {
		return nil, domorder.ErrForbiddenForVendor
	}

	var denied error
	o, err := s.applyWithRetry(ctx, orderID, func(o *domorder.Order) (*domorder.StatusUpdate, domorder.HistoryEntry, bool) {
		denied = nil
		if o.Status == target {
			return nil, domorder.HistoryEntry{}, false
		}
		if !statusIn(o.Status, allowedFrom) {
			denied = domorder.ErrIllegalTransition
			return nil, domorder.HistoryEntry{}, false
		}
		actor := actorUserID
		return statusUpdateFor(target), domorder.HistoryEntry{
			FromStatus:  o.Status,
			ToStatus:    target,
			ActorType:   domorder.ActorVendor,
			ActorUserID: &actor,
		}, true
	})
	if err != nil {
		return nil, err
	}
	if denied != nil {
		return nil, denied
	}
	return o, nil
}

// OperatorSetStatus applies an admin/bot action: any operational target from
// any non-terminal status. Requesting the current status again is a no-op.
func (s *Service) OperatorSetStatus(ctx context.Context, orderID uuid.UUID, target domorder.Status, actor domorder.ActorType, actorUserID *int64) (*domorder.Order, error) {
	if _, ok := operatorTargets[target]; !ok {
		return nil, domorder.ErrInvalidStatus
	}

	var denied error
	o, err := s.applyWithRetry(ctx, orderID, func(o *domorder.Order) (*domorder.StatusUpdate, domorder.HistoryEntry, bool) {
		denied = nil
		if o.Status == target {
			return nil, domorder.HistoryEntry{}, false
		}
		if o.Status.IsTerminal() {
			denied = domorder.ErrTerminalStatus
			return nil, domorder.HistoryEntry{}, false
		}
		return statusUpdateFor(target), domorder.HistoryEntry{
			FromStatus:  o.Status,
			ToStatus:    target,
			ActorType:   actor,
			ActorUserID: actorUserID,
		}, true
	})
	if err != nil {
		return nil, err
	}
	if denied != nil {
		return nil, denied
	}
	return o, nil
}

// CancelStaleUnpaid cancels orders still awaiting payment past the configured
// age. Each order is handled independently so one failure cannot stall the
// sweep. Returns the number of orders cancelled.
func (s *Service) CancelStaleUnpaid(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.settings.UnpaidOrderTTL(ctx))
	stale, err := s.orders.ListStaleUnpaid(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	var cancelled int
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	results := make([]bool, len(stale))
	for i, o := range stale {
		i, o := i, o
		g.Go(func() error {
			_, err := s.applyWithRetry(gctx, o.ID, func(o *domorder.Order) (*domorder.StatusUpdate, domorder.HistoryEntry, bool) {
				if o.Status != domorder.StatusPendingPayment || o.PaymentStatus != domorder.PaymentUnpaid {
					return nil, domorder.HistoryEntry{}, false
				}
				now := time.Now()
				ps := domorder.PaymentFailed
				return &domorder.StatusUpdate{
						To:            domorder.StatusCancelled,
						PaymentStatus: &ps,
						CancelledAt:   &now,
					}, domorder.HistoryEntry{
						FromStatus: o.Status,
						ToStatus:   domorder.StatusCancelled,
						ActorType:  domorder.ActorSystem,
						Reason:     "unpaid order expired",
					}, true
			})
			if err != nil {
				s.log.Warn("stale order sweep failed for order", "order_id", o.ID, "error", err)
				return nil
			}
			results[i] = true
			return nil
		})
	}
	_ = g.Wait()
	for _, ok := range results {
		if ok {
			cancelled++
		}
	}
	return cancelled, nil
}

// decideFunc inspects the current row and either produces the update to apply
// or declines (apply=false), which makes the operation a no-op.
type decideFunc func(o *domorder.Order) (upd *domorder.StatusUpdate, entry domorder.HistoryEntry, apply bool)

// applyWithRetry runs one optimistic transition. When the conditional write
// loses a race it re-reads the row and re-decides once; a second loss
// surfaces ErrStaleStatus.
func (s *Service) applyWithRetry(ctx context.Context, orderID uuid.UUID, decide decideFunc) (*domorder.Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		upd, entry, apply := decide(o)
		if !apply {
			return o, nil
		}

		from := o.Status
		updated, err := s.orders.UpdateStatus(ctx, o.ID, from, *upd, &entry)
		if err == nil {
			s.dispatch(ctx, updated, from, upd.To, upd.PaymentStatus)
			return updated, nil
		}
		if !errors.Is(err, domorder.ErrStaleStatus) {
			return nil, err
		}

		o, err = s.orders.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
	}
	return nil, domorder.ErrStaleStatus
}

func (s *Service) dispatch(ctx context.Context, o *domorder.Order, from, to domorder.Status, ps *domorder.PaymentStatus) {
	if s.notifier == nil {
		return
	}
	bg := context.WithoutCancel(ctx)
	captured := ps != nil && *ps == domorder.PaymentPaid
	go func() {
		if captured {
			s.notifier.PaymentVerified(bg, o)
		}
		s.notifier.OrderStatusChanged(bg, o, from, to)
	}()
}

func statusUpdateFor(target domorder.Status) *domorder.StatusUpdate {
	upd := &domorder.StatusUpdate{To: target}
	now := time.Now()
	switch target {
	case domorder.StatusConfirmed:
		upd.ConfirmedAt = &now
	case domorder.StatusDelivered:
		upd.DeliveredAt = &now
	case domorder.StatusCancelled:
		upd.CancelledAt = &now
	}
	return upd
}

func statusIn(s domorder.Status, set []domorder.Status) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
