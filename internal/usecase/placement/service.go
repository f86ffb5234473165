// Package placement creates orders: it validates the cart, resolves the
// customer and delivery address, re-checks serviceability and persists the
// order atomically.
package placement

import (
	"context"
	"time"

	"github.com/google/uuid"

	domaccount "github.com/hsdarestani/vaadehrep/internal/domain/account"
	domaddress "github.com/hsdarestani/vaadehrep/internal/domain/address"
	domcatalog "github.com/hsdarestani/vaadehrep/internal/domain/catalog"
	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
	domvendor "github.com/hsdarestani/vaadehrep/internal/domain/vendor"
	"github.com/hsdarestani/vaadehrep/internal/usecase/modifiers"
	"github.com/hsdarestani/vaadehrep/internal/usecase/serviceability"
	"github.com/hsdarestani/vaadehrep/pkg/logger"
	"github.com/hsdarestani/vaadehrep/pkg/phone"
)

type AccountService interface {
	ResolveByID(ctx context.Context, id int64) (*domaccount.User, error)
	ResolveOrCreateGuest(ctx context.Context, phone, fullName string) (*domaccount.User, error)
	IssueCredentials(u *domaccount.User) (string, error)
}

type VendorRepository interface {
	GetByID(ctx context.Context, id int64) (*domvendor.Vendor, error)
}

type ProductRepository interface {
	GetProduct(ctx context.Context, id int64) (*domcatalog.Product, error)
}

type ModifierNormalizer interface {
	Normalize(ctx context.Context, product *domcatalog.Product, selections []modifiers.Selection) ([]domorder.SelectedOptionGroup, int64, error)
}

type ServiceabilityEvaluator interface {
	Evaluate(ctx context.Context, v *domvendor.Vendor, coords *domorder.Coordinates) (serviceability.Result, error)
}

// PlacementSettings supplies the administratively tunable knobs the
// transaction reads.
type PlacementSettings interface {
	ServiceFee(ctx context.Context) int64
	OrderingOpen(ctx context.Context) bool
}

// Notifier receives the created order after the transaction commits. Calls
// are best-effort and never block or fail placement.
type Notifier interface {
	OrderCreated(ctx context.Context, o *domorder.Order)
}

// Input is one placement request. VendorID is optional: the vendor is
// inferred from the items' products, and an explicit value that conflicts
// with them is rejected. Exactly one delivery target should be supplied:
// an existing address id, new address fields, or bare coordinates.
type Input struct {
	UserID        *int64
	CustomerPhone string
	CustomerName  string

	VendorID *int64
	Items    []ItemInput

	DeliveryAddressID *int64
	NewAddress        *AddressInput
	CustomerLocation  *domorder.Coordinates

	CustomerNote string
	AcceptTerms  bool
	Source       domorder.Source
}

type ItemInput struct {
	ProductID  int64
	Quantity   int64
	Selections []modifiers.Selection
}

type AddressInput struct {
	Title         string
	ReceiverName  string
	ReceiverPhone string
	City          string
	District      string
	Street        string
	FullText      string
	Notes         string
	Latitude      *float64
	Longitude     *float64
}

// Result carries the created order plus the resolved identity. AccessToken is
// set only on the guest path, so first-time customers can keep tracking their
// order.
type Result struct {
	Order       *domorder.Order
	User        *domaccount.User
	Address     *domaddress.Address
	AccessToken string
}

type Service struct {
	accounts  AccountService
	vendors   VendorRepository
	products  ProductRepository
	addresses domaddress.Repository
	orders    domorder.Repository
	mods      ModifierNormalizer
	svcb      ServiceabilityEvaluator
	settings  PlacementSettings
	notifier  Notifier
	log       *logger.Logger
}

func NewService(
	accounts AccountService,
	vendors VendorRepository,
	products ProductRepository,
	addresses domaddress.Repository,
	orders domorder.Repository,
	mods ModifierNormalizer,
	svcb ServiceabilityEvaluator,
	settings PlacementSettings,
	notifier Notifier,
	log *logger.Logger,
) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		accounts:  accounts,
		vendors:   vendors,
		products:  products,
		addresses: addresses,
		orders:    orders,
		mods:      mods,
		svcb:      svcb,
		settings:  settings,
		notifier:  notifier,
		log:       log,
	}
}

// Place runs the order-creation transaction. Each call creates a new order;
// placement is intentionally not idempotent.
func (s *Service) Place(ctx context.Context, in Input) (*Result, error) {
	if len(in.Items) == 0 {
		return nil, domorder.ErrEmptyItems
	}
	if !in.AcceptTerms {
		return nil, domorder.ErrTermsNotAccepted
	}
	if !s.settings.OrderingOpen(ctx) {
		return nil, domorder.ErrOrderingClosed
	}

	vendorID, prods, err := s.resolveVendor(ctx, in)
	if err != nil {
		return nil, err
	}
	v, err := s.vendors.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	// An existing address contributes coordinates before ownership is known;
	// the ownership check happens once the user is resolved.
	var existingAddr *domaddress.Address
	if in.DeliveryAddressID != nil {
		existingAddr, err = s.addresses.GetByID(ctx, *in.DeliveryAddressID)
		if err != nil {
			return nil, err
		}
	}

	coords := resolveCoordinates(in, existingAddr)

	svc, err := s.svcb.Evaluate(ctx, v, coords)
	if err != nil {
		return nil, err
	}
	if !svc.Serviceable {
		return nil, domvendor.ErrNotServiceable
	}

	user, token, err := s.resolveUser(ctx, in)
	if err != nil {
		return nil, err
	}

	addr, err := s.resolveAddress(ctx, in, user, existingAddr, coords)
	if err != nil {
		return nil, err
	}

	items, subtotal, err := s.buildItems(ctx, in.Items, prods)
	if err != nil {
		return nil, err
	}

	serviceFee := s.settings.ServiceFee(ctx)
	source := in.Source
	if source == "" {
		source = domorder.SourceWeb
	}

	now := time.Now()
	o := &domorder.Order{
		ID:                uuid.New(),
		UserID:            user.ID,
		VendorID:          v.ID,
		DeliveryAddressID: addr.ID,
		Source:            source,
		Status:            domorder.StatusPendingPayment,
		CustomerNote:      in.CustomerNote,

		Subtotal:    subtotal,
		Discount:    0,
		DeliveryFee: svc.DeliveryFee,
		ServiceFee:  serviceFee,
		Total:       subtotal + svc.DeliveryFee + serviceFee,
		Currency:    "IRR",

		PaymentStatus: domorder.PaymentUnpaid,
		PaymentMethod: domorder.PaymentOnline,

		PlacedAt: now,

		Meta: domorder.Meta{
			AcceptTerms:      true,
			DeliveryType:     svc.DeliveryType,
			CustomerLocation: coords,
		},
		Items: items,
		Delivery: &domorder.Delivery{
			Type:             svc.DeliveryType,
			IsCashOnDelivery: svc.DeliveryType == domorder.DeliveryOutOfZonePassthru,
		},
	}

	actorID := user.ID
	created, err := s.orders.Create(ctx, o, domorder.HistoryEntry{
		ToStatus:    domorder.StatusPendingPayment,
		ActorType:   domorder.ActorCustomer,
		ActorUserID: &actorID,
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		bg := context.WithoutCancel(ctx)
		go s.notifier.OrderCreated(bg, created)
	}

	return &Result{Order: created, User: user, Address: addr, AccessToken: token}, nil
}

// resolveVendor loads every item's product and derives the single vendor they
// all belong to.
func (s *Service) resolveVendor(ctx context.Context, in Input) (int64, map[int64]*domcatalog.Product, error) {
	prods := make(map[int64]*domcatalog.Product, len(in.Items))
	var vendorID int64
	for _, it := range in.Items {
		if it.Quantity < 0 {
			return 0, nil, domorder.ErrInvalidQuantity
		}
		p, ok := prods[it.ProductID]
		if !ok {
			var err error
			p, err = s.products.GetProduct(ctx, it.ProductID)
			if err != nil {
				return 0, nil, err
			}
			prods[it.ProductID] = p
		}
		if !p.Orderable() {
			return 0, nil, domcatalog.ErrProductUnavailable
		}
		if vendorID == 0 {
			vendorID = p.VendorID
		} else if p.VendorID != vendorID {
			return 0, nil, domorder.ErrMixedVendors
		}
	}
	if in.VendorID != nil && *in.VendorID != vendorID {
		return 0, nil, domorder.ErrMixedVendors
	}
	return vendorID, prods, nil
}

func (s *Service) resolveUser(ctx context.Context, in Input) (*domaccount.User, string, error) {
	if in.UserID != nil {
		u, err := s.accounts.ResolveByID(ctx, *in.UserID)
		return u, "", err
	}
	u, err := s.accounts.ResolveOrCreateGuest(ctx, in.CustomerPhone, in.CustomerName)
	if err != nil {
		return nil, "", err
	}
	token, err := s.accounts.IssueCredentials(u)
	if err != nil {
		// The order can still be placed; the customer just has no token.
		s.log.Warn("issuing guest credentials failed", "user_id", u.ID, "error", err)
		token = ""
	}
	return u, token, nil
}

func (s *Service) resolveAddress(ctx context.Context, in Input, user *domaccount.User, existing *domaddress.Address, coords *domorder.Coordinates) (*domaddress.Address, error) {
	if existing != nil {
		if existing.UserID != user.ID {
			return nil, domaddress.ErrAddressNotOwned
		}
		return existing, nil
	}

	na := in.NewAddress
	if na == nil {
		if coords == nil {
			return nil, domaddress.ErrAddressRequired
		}
		// A bare map pin still needs an address row for the courier.
		na = &AddressInput{
			Title:     "Map pin",
			FullText:  "Customer-selected map location",
			Latitude:  &coords.Latitude,
			Longitude: &coords.Longitude,
		}
	}

	count, err := s.addresses.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return s.addresses.Create(ctx, &domaddress.Address{
		UserID:        user.ID,
		Title:         na.Title,
		ReceiverName:  na.ReceiverName,
		ReceiverPhone: phone.Normalize(na.ReceiverPhone),
		City:          na.City,
		District:      na.District,
		Street:        na.Street,
		FullText:      na.FullText,
		Notes:         na.Notes,
		Latitude:      na.Latitude,
		Longitude:     na.Longitude,
		IsDefault:     count == 0,
		IsActive:      true,
	})
}

// buildItems snapshots title and unit price onto each line and normalizes the
// modifier selections. Line subtotal is base price times quantity; the
// modifier deltas stay inside the normalized payload.
func (s *Service) buildItems(ctx context.Context, inputs []ItemInput, prods map[int64]*domcatalog.Product) ([]domorder.Item, int64, error) {
	items := make([]domorder.Item, 0, len(inputs))
	var subtotal int64
	for _, it := range inputs {
		p := prods[it.ProductID]
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		normalized, _, err := s.mods.Normalize(ctx, p, it.Selections)
		if err != nil {
			return nil, 0, err
		}
		line := p.BasePrice * qty
		items = append(items, domorder.Item{
			ProductID:         p.ID,
			TitleSnapshot:     p.Name,
			UnitPriceSnapshot: p.BasePrice,
			Quantity:          qty,
			Modifiers:         normalized,
			LineSubtotal:      line,
		})
		subtotal += line
	}
	return items, subtotal, nil
}

// resolveCoordinates applies the precedence order: explicit location, then an
// existing address's stored point, then the new-address payload's point.
func resolveCoordinates(in Input, existing *domaddress.Address) *domorder.Coordinates {
	if in.CustomerLocation != nil {
		return in.CustomerLocation
	}
	if existing != nil && existing.Latitude != nil && existing.Longitude != nil {
		return &domorder.Coordinates{Latitude: *existing.Latitude, Longitude: *existing.Longitude}
	}
	if in.NewAddress != nil && in.NewAddress.Latitude != nil && in.NewAddress.Longitude != nil {
		return &domorder.Coordinates{Latitude: *in.NewAddress.Latitude, Longitude: *in.NewAddress.Longitude}
	}
	return nil
}
