// Package payment creates gateway payment intents for orders and folds
// gateway callbacks back into the order state machine.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
	"github.com/hsdarestani/vaadehrep/pkg/logger"
)

// IntentRequest is what the gateway needs to open a payment session.
type IntentRequest struct {
	OrderID     uuid.UUID
	ShortCode   string
	Amount      int64
	Currency    string
	Description string
	Phone       string
}

// Intent is the gateway's session: the provider's own order reference and the
// URL the customer is redirected to.
type Intent struct {
	ProviderOrderID string
	PaymentURL      string
	Reference       string
	Raw             map[string]any
}

// VerifyResult is the gateway's authoritative answer for a payment session.
type VerifyResult struct {
	Paid      bool
	Reference string
}

type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	Verify(ctx context.Context, providerOrderID string) (*VerifyResult, error)
}

// StatusMachine applies the monotonic payment transition.
type StatusMachine interface {
	ApplyPaymentResult(ctx context.Context, orderID uuid.UUID, paid bool) (*domorder.Order, error)
}

// Callback is a gateway postback. OrderRef may be the provider's order id,
// the order uuid, or the short code, depending on gateway configuration.
type Callback struct {
	OrderRef  string
	Success   bool
	Reference string
}

type Service struct {
	orders  domorder.Repository
	gateway Gateway
	machine StatusMachine
	log     *logger.Logger
}

func NewService(orders domorder.Repository, gateway Gateway, machine StatusMachine, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{orders: orders, gateway: gateway, machine: machine, log: log}
}

// StartPayment opens a gateway session for the order and stores the session
// mapping in the order metadata. Repeated calls on a still-unpaid order open
// a fresh session and overwrite the stored mapping.
func (s *Service) StartPayment(ctx context.Context, orderID uuid.UUID) (*domorder.PaymentMeta, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.PaymentStatus == domorder.PaymentPaid {
		return nil, domorder.ErrAlreadyPaid
	}
	if o.Status != domorder.StatusPendingPayment && o.Status != domorder.StatusFailed {
		return nil, domorder.ErrNotPayable
	}

	intent, err := s.gateway.CreateIntent(ctx, IntentRequest{
		OrderID:     o.ID,
		ShortCode:   o.ShortCode(),
		Amount:      o.Total,
		Currency:    o.Currency,
		Description: fmt.Sprintf("Order %s", o.ShortCode()),
	})
	if err != nil {
		return nil, err
	}

	meta := o.Meta
	meta.Payment = &domorder.PaymentMeta{
		ProviderOrderID: intent.ProviderOrderID,
		PaymentURL:      intent.PaymentURL,
		Reference:       intent.Reference,
		Raw:             intent.Raw,
	}
	if err := s.orders.UpdateMeta(ctx, o.ID, meta); err != nil {
		return nil, err
	}
	return meta.Payment, nil
}

// HandleCallback resolves the referenced order and applies the verified
// payment result. A successful postback is re-verified with the gateway; the
// gateway's answer wins over the postback's claim.
func (s *Service) HandleCallback(ctx context.Context, cb Callback) (*domorder.Order, error) {
	o, err := s.resolveOrder(ctx, cb.OrderRef)
	if err != nil {
		return nil, err
	}

	paid := cb.Success
	if paid && s.gateway != nil {
		ref := cb.OrderRef
		if o.Meta.Payment != nil && o.Meta.Payment.ProviderOrderID != "" {
			ref = o.Meta.Payment.ProviderOrderID
		}
		vr, err := s.gateway.Verify(ctx, ref)
		if err != nil {
			s.log.Warn("gateway verification failed", "order_id", o.ID, "error", err)
			return nil, err
		}
		paid = vr.Paid
		if vr.Reference != "" {
			meta := o.Meta
			if meta.Payment == nil {
				meta.Payment = &domorder.PaymentMeta{}
			}
			meta.Payment.Reference = vr.Reference
			if err := s.orders.UpdateMeta(ctx, o.ID, meta); err != nil {
				s.log.Warn("storing payment reference failed", "order_id", o.ID, "error", err)
			}
		}
	}

	return s.machine.ApplyPaymentResult(ctx, o.ID, paid)
}

// resolveOrder tries the stored provider order-id mapping first, then a
// direct order id, then the short code.
func (s *Service) resolveOrder(ctx context.Context, ref string) (*domorder.Order, error) {
	if ref == "" {
		return nil, domorder.ErrOrderNotFound
	}

	o, err := s.orders.GetByProviderOrderID(ctx, ref)
	if err == nil {
		return o, nil
	}
	if !errors.Is(err, domorder.ErrOrderNotFound) {
		return nil, err
	}

	if id, perr := uuid.Parse(ref); perr == nil {
		o, err = s.orders.GetByID(ctx, id)
		if err == nil {
			return o, nil
		}
		if !errors.Is(err, domorder.ErrOrderNotFound) {
			return nil, err
		}
	}

	return s.orders.GetByShortCode(ctx, ref)
}
