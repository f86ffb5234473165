package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	domaccount "github.com/hsdarestani/vaadehrep/internal/domain/account"
	domaddress "github.com/hsdarestani/vaadehrep/internal/domain/address"
	domcatalog "github.com/hsdarestani/vaadehrep/internal/domain/catalog"
	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
	domvendor "github.com/hsdarestani/vaadehrep/internal/domain/vendor"
	accountuc "github.com/hsdarestani/vaadehrep/internal/usecase/account"
	"github.com/hsdarestani/vaadehrep/internal/usecase/modifiers"
	paymentuc "github.com/hsdarestani/vaadehrep/internal/usecase/payment"
	placementuc "github.com/hsdarestani/vaadehrep/internal/usecase/placement"
	"github.com/hsdarestani/vaadehrep/internal/usecase/serviceability"
	statusuc "github.com/hsdarestani/vaadehrep/internal/usecase/status"
)

type API struct {
	accountSvc   *accountuc.Service
	placementSvc *placementuc.Service
	statusSvc    *statusuc.Service
	paymentSvc   *paymentuc.Service
	svcbSvc      *serviceability.Service
	orders       domorder.Repository
	vendors      domvendor.Repository
	catalog      domcatalog.Repository
	validator    *validator.Validate
}

type Dependencies struct {
	AccountService        *accountuc.Service
	PlacementService      *placementuc.Service
	StatusService         *statusuc.Service
	PaymentService        *paymentuc.Service
	ServiceabilityService *serviceability.Service
	OrderRepository       domorder.Repository
	VendorRepository      domvendor.Repository
	CatalogRepository     domcatalog.Repository
}

func NewAPI(deps Dependencies) *API {
	return &API{
		accountSvc:   deps.AccountService,
		placementSvc: deps.PlacementService,
		statusSvc:    deps.StatusService,
		paymentSvc:   deps.PaymentService,
		svcbSvc:      deps.ServiceabilityService,
		orders:       deps.OrderRepository,
		vendors:      deps.VendorRepository,
		catalog:      deps.CatalogRepository,
		validator:    validator.New(),
	}
}

func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(pr chi.Router) {
			pr.Use(a.optionalAuth)
			pr.Post("/serviceability", a.handleServiceability)
			pr.Post("/orders", a.handleCreateOrder)
		})

		r.Get("/payments/callback", a.handlePaymentCallback)
		r.Post("/payments/callback", a.handlePaymentCallback)

		r.Group(func(pr chi.Router) {
			pr.Use(a.requireAuth)
			pr.Get("/me/orders", a.handleListMyOrders)
			pr.Get("/orders/{id}", a.handleGetOrder)
			pr.Post("/orders/{id}/pay", a.handleStartPayment)

			pr.Get("/vendor/orders", a.handleVendorOrders)
			pr.Post("/vendor/orders/{id}/status", a.handleVendorSetStatus)
		})

		r.Group(func(ar chi.Router) {
			ar.Use(a.requireAuth)
			ar.Use(a.requireStaff)
			ar.Post("/admin/orders/{id}/status", a.handleOperatorSetStatus)
			ar.Post("/admin/staff", a.handleProvisionStaff)
		})
	})

	return r
}

func (a *API) decodeAndValidate(r *http.Request, dst any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return a.validator.Struct(dst)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "id"))
}

func mapOrder(o *domorder.Order) map[string]any {
	items := make([]map[string]any, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, map[string]any{
			"product_id":    it.ProductID,
			"title":         it.TitleSnapshot,
			"unit_price":    it.UnitPriceSnapshot,
			"quantity":      it.Quantity,
			"modifiers":     it.Modifiers,
			"line_subtotal": it.LineSubtotal,
		})
	}

	out := map[string]any{
		"id":             o.ID,
		"short_code":     o.ShortCode(),
		"user_id":        o.UserID,
		"vendor_id":      o.VendorID,
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
		"payment_method": o.PaymentMethod,
		"source":         o.Source,
		"subtotal":       o.Subtotal,
		"discount":       o.Discount,
		"delivery_fee":   o.DeliveryFee,
		"service_fee":    o.ServiceFee,
		"total":          o.Total,
		"currency":       o.Currency,
		"customer_note":  o.CustomerNote,
		"placed_at":      o.PlacedAt,
		"items":          items,
	}
	if o.Delivery != nil {
		out["delivery"] = map[string]any{
			"type":                o.Delivery.Type,
			"is_cash_on_delivery": o.Delivery.IsCashOnDelivery,
			"tracking_code":       o.Delivery.TrackingCode,
			"tracking_url":        o.Delivery.TrackingURL,
		}
	}
	if o.Meta.Payment != nil && o.Meta.Payment.PaymentURL != "" {
		out["payment_url"] = o.Meta.Payment.PaymentURL
	}
	return out
}

func mapVendor(v *domvendor.Vendor) map[string]any {
	return map[string]any{
		"id":                v.ID,
		"name":              v.Name,
		"slug":              v.Slug,
		"city":              v.City,
		"area":              v.Area,
		"prep_time_minutes": v.PrepTimeMinutes,
		"min_order_amount":  v.MinOrderAmount,
	}
}

func mapProduct(p *domcatalog.Product) map[string]any {
	return map[string]any{
		"id":                p.ID,
		"vendor_id":         p.VendorID,
		"name":              p.Name,
		"short_description": p.ShortDescription,
		"base_price":        p.BasePrice,
	}
}

func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domorder.ErrOrderNotFound),
		errors.Is(err, domaccount.ErrUserNotFound),
		errors.Is(err, domvendor.ErrVendorNotFound),
		errors.Is(err, domvendor.ErrStaffNotFound),
		errors.Is(err, domcatalog.ErrProductNotFound),
		errors.Is(err, domaddress.ErrAddressNotFound):
		respondError(w, http.StatusNotFound, err)
	case errors.Is(err, domaccount.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domaddress.ErrAddressNotOwned),
		errors.Is(err, domorder.ErrForbiddenForVendor):
		respondError(w, http.StatusForbidden, err)
	case errors.Is(err, domaccount.ErrPhoneTaken),
		errors.Is(err, domorder.ErrStaleStatus),
		errors.Is(err, domorder.ErrAlreadyPaid):
		respondError(w, http.StatusConflict, err)
	case errors.Is(err, domorder.ErrOrderingClosed):
		respondError(w, http.StatusServiceUnavailable, err)
	case errors.Is(err, domorder.ErrEmptyItems),
		errors.Is(err, domorder.ErrInvalidQuantity),
		errors.Is(err, domorder.ErrMixedVendors),
		errors.Is(err, domorder.ErrTermsNotAccepted),
		errors.Is(err, domorder.ErrInvalidStatus),
		errors.Is(err, domorder.ErrIllegalTransition),
		errors.Is(err, domorder.ErrTerminalStatus),
		errors.Is(err, domorder.ErrNotPayable),
		errors.Is(err, domaccount.ErrPhoneRequired),
		errors.Is(err, domaddress.ErrAddressRequired),
		errors.Is(err, domcatalog.ErrProductUnavailable),
		errors.Is(err, domvendor.ErrNotServiceable),
		errors.Is(err, modifiers.ErrInvalidSelection):
		respondError(w, http.StatusUnprocessableEntity, err)
	default:
		respondError(w, http.StatusInternalServerError, err)
	}
}
