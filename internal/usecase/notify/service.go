// Package notify implements the dispatch policy for order events: who is
// told, through which channel, with which text. Channel failures are logged
// and never propagate to the operation that triggered the event.
package notify

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	domaccount "github.com/hsdarestani/vaadehrep/internal/domain/account"
	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
	domvendor "github.com/hsdarestani/vaadehrep/internal/domain/vendor"
	"github.com/hsdarestani/vaadehrep/pkg/logger"
)

// Button is one inline keyboard button; exactly one of CallbackData or URL
// should be set.
type Button struct {
	Text         string
	CallbackData string
	URL          string
}

type InlineKeyboard struct {
	Rows [][]Button
}

type Message struct {
	Text     string
	Keyboard *InlineKeyboard
}

// ChatChannel sends a message to a chat endpoint (a Telegram chat id).
type ChatChannel interface {
	Send(ctx context.Context, chatID string, msg Message) error
}

// SMSChannel sends a plain text to a phone number.
type SMSChannel interface {
	Send(ctx context.Context, phone, text string) error
}

type VendorReader interface {
	GetByID(ctx context.Context, id int64) (*domvendor.Vendor, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*domaccount.User, error)
}

type Service struct {
	vendors     VendorReader
	users       UserReader
	chat        ChatChannel
	sms         SMSChannel
	adminChatID string
	log         *logger.Logger
}

func NewService(vendors VendorReader, users UserReader, chat ChatChannel, sms SMSChannel, adminChatID string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		vendors:     vendors,
		users:       users,
		chat:        chat,
		sms:         sms,
		adminChatID: adminChatID,
		log:         log,
	}
}

// OrderCreated announces a new order to the vendor (with action buttons), the
// admin channel and the customer, plus a confirmation SMS to the customer.
func (s *Service) OrderCreated(ctx context.Context, o *domorder.Order) {
	v, u := s.resolveParties(ctx, o)

	vendorMsg := Message{
		Text:     orderSummary("New order", o),
		Keyboard: statusKeyboard(o),
	}
	customerText := fmt.Sprintf("Your order %s has been received. We will notify you as it progresses.", o.ShortCode())

	s.fanOut(ctx, "order_created", o,
		s.vendorChatSend(v, vendorMsg),
		s.adminChatSend(Message{Text: orderSummary("New order", o)}),
		s.customerChatSend(u, Message{Text: customerText}),
		s.customerSMSSend(u, customerText),
	)
}

// OrderStatusChanged tells every party about a committed transition.
func (s *Service) OrderStatusChanged(ctx context.Context, o *domorder.Order, from, to domorder.Status) {
	v, u := s.resolveParties(ctx, o)

	line := fmt.Sprintf("Order %s: %s -> %s", o.ShortCode(), from, to)
	vendorMsg := Message{Text: line}
	if !to.IsTerminal() {
		vendorMsg.Keyboard = statusKeyboard(o)
	}

	sends := []sendFunc{
		s.vendorChatSend(v, vendorMsg),
		s.adminChatSend(Message{Text: line}),
	}
	if text := customerStatusText(o, to); text != "" {
		sends = append(sends,
			s.customerChatSend(u, Message{Text: text}),
			s.customerSMSSend(u, text),
		)
	}
	s.fanOut(ctx, "order_status_changed", o, sends...)
}

// PaymentVerified is dispatched once, on the capture edge only.
func (s *Service) PaymentVerified(ctx context.Context, o *domorder.Order) {
	v, u := s.resolveParties(ctx, o)

	line := fmt.Sprintf("Payment received for order %s (%d %s).", o.ShortCode(), o.Total, o.Currency)
	customerText := fmt.Sprintf("Payment for order %s was successful. The kitchen has been notified.", o.ShortCode())

	s.fanOut(ctx, "payment_verified", o,
		s.vendorChatSend(v, Message{Text: line, Keyboard: statusKeyboard(o)}),
		s.adminChatSend(Message{Text: line}),
		s.customerChatSend(u, Message{Text: customerText}),
		s.customerSMSSend(u, customerText),
	)
}

type sendFunc func(ctx context.Context) (target string, err error, skipped bool)

// fanOut runs every send independently; one failure never blocks another.
func (s *Service) fanOut(ctx context.Context, event string, o *domorder.Order, sends ...sendFunc) {
	g, gctx := errgroup.WithContext(ctx)
	for _, send := range sends {
		send := send
		g.Go(func() error {
			target, err, skipped := send(gctx)
			if skipped {
				s.log.Debug("notification skipped", "event", event, "order_id", o.ID, "target", target)
				return nil
			}
			if err != nil {
				s.log.Warn("notification failed", "event", event, "order_id", o.ID, "target", target, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Service) resolveParties(ctx context.Context, o *domorder.Order) (*domvendor.Vendor, *domaccount.User) {
	var v *domvendor.Vendor
	var u *domaccount.User
	var err error
	if s.vendors != nil {
		if v, err = s.vendors.GetByID(ctx, o.VendorID); err != nil {
			s.log.Warn("notification vendor lookup failed", "order_id", o.ID, "error", err)
		}
	}
	if s.users != nil {
		if u, err = s.users.GetByID(ctx, o.UserID); err != nil {
			s.log.Warn("notification user lookup failed", "order_id", o.ID, "error", err)
		}
	}
	return v, u
}

func (s *Service) vendorChatSend(v *domvendor.Vendor, msg Message) sendFunc {
	return func(ctx context.Context) (string, error, bool) {
		if s.chat == nil || v == nil || v.TelegramChatID == "" {
			return "vendor", nil, true
		}
		return "vendor", s.chat.Send(ctx, v.TelegramChatID, msg), false
	}
}

func (s *Service) adminChatSend(msg Message) sendFunc {
	return func(ctx context.Context) (string, error, bool) {
		if s.chat == nil || s.adminChatID == "" {
			return "admin", nil, true
		}
		return "admin", s.chat.Send(ctx, s.adminChatID, msg), false
	}
}

func (s *Service) customerChatSend(u *domaccount.User, msg Message) sendFunc {
	return func(ctx context.Context) (string, error, bool) {
		if s.chat == nil || u == nil || u.TelegramChatID == "" {
			return "customer", nil, true
		}
		return "customer", s.chat.Send(ctx, u.TelegramChatID, msg), false
	}
}

func (s *Service) customerSMSSend(u *domaccount.User, text string) sendFunc {
	return func(ctx context.Context) (string, error, bool) {
		if s.sms == nil || u == nil || u.Phone == "" || text == "" {
			return "customer-sms", nil, true
		}
		return "customer-sms", s.sms.Send(ctx, u.Phone, text), false
	}
}

// statusKeyboard builds the vendor action buttons. Callback data follows the
// order:<id>:<STATUS> convention the bot webhook parses.
func statusKeyboard(o *domorder.Order) *InlineKeyboard {
	cb := func(st domorder.Status) string {
		return fmt.Sprintf("order:%s:%s", o.ID, st)
	}
	return &InlineKeyboard{Rows: [][]Button{
		{
			{Text: "Preparing", CallbackData: cb(domorder.StatusPreparing)},
			{Text: "Out for delivery", CallbackData: cb(domorder.StatusOutForDelivery)},
		},
	}}
}

func orderSummary(title string, o *domorder.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", title, o.ShortCode())
	for _, it := range o.Items {
		fmt.Fprintf(&b, "%d x %s\n", it.Quantity, it.TitleSnapshot)
		for _, g := range it.Modifiers {
			for _, opt := range g.Items {
				fmt.Fprintf(&b, "  + %s\n", opt.Name)
			}
		}
	}
	fmt.Fprintf(&b, "Total: %d %s", o.Total, o.Currency)
	if o.CustomerNote != "" {
		fmt.Fprintf(&b, "\nNote: %s", o.CustomerNote)
	}
	return b.String()
}

// customerStatusText returns the customer-facing copy for a transition, empty
// when the status is internal and the customer should not be pinged.
func customerStatusText(o *domorder.Order, to domorder.Status) string {
	code := o.ShortCode()
	switch to {
	case domorder.StatusConfirmed:
		return fmt.Sprintf("Order %s is confirmed and was sent to the kitchen.", code)
	case domorder.StatusPreparing:
		return fmt.Sprintf("Order %s is being prepared.", code)
	case domorder.StatusOutForDelivery:
		return fmt.Sprintf("Order %s is out for delivery.", code)
	case domorder.StatusDelivered:
		return fmt.Sprintf("Order %s was delivered. Enjoy!", code)
	case domorder.StatusCancelled:
		return fmt.Sprintf("Order %s was cancelled.", code)
	default:
		return ""
	}
}
