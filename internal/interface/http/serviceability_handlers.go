package http

import (
	"errors"
	"net/http"

	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
	domvendor "github.com/hsdarestani/vaadehrep/internal/domain/vendor"
	"github.com/hsdarestani/vaadehrep/internal/usecase/serviceability"
)

type serviceabilityRequest struct {
	VendorID  *int64  `json:"vendor_id"`
	Latitude  float64 `json:"latitude" validate:"required"`
	Longitude float64 `json:"longitude" validate:"required"`
}

// handleServiceability answers "can I order here, and from whom". With a
// vendor_id it evaluates that vendor only; without one it picks the nearest
// serviceable open vendor and returns its menu.
func (a *API) handleServiceability(w http.ResponseWriter, r *http.Request) {
	var req serviceabilityRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	coords := &domorder.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}

	var (
		vendor *domvendor.Vendor
		res    serviceability.Result
	)
	if req.VendorID != nil {
		v, err := a.vendors.GetByID(r.Context(), *req.VendorID)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		res, err = a.svcbSvc.Evaluate(r.Context(), v, coords)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		vendor = v
	} else {
		v, best, err := a.svcbSvc.PickNearest(r.Context(), coords)
		if err != nil {
			handleDomainError(w, err)
			return
		}
		vendor, res = v, best
	}

	if vendor == nil || !res.Serviceable {
		writeJSON(w, http.StatusOK, map[string]any{"serviceable": false})
		return
	}

	products, err := a.catalog.ListVendorProducts(r.Context(), vendor.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	menu := make([]map[string]any, 0, len(products))
	for _, p := range products {
		menu = append(menu, mapProduct(p))
	}

	payload := map[string]any{
		"serviceable":   true,
		"vendor":        mapVendor(vendor),
		"delivery_type": res.DeliveryType,
		"delivery_fee":  res.DeliveryFee,
		"menu":          menu,
	}
	if res.DistanceMeters != nil {
		payload["distance_meters"] = *res.DistanceMeters
	}
	if res.NearestLocation != nil {
		payload["nearest_location"] = map[string]any{
			"id":           res.NearestLocation.ID,
			"title":        res.NearestLocation.Title,
			"address_text": res.NearestLocation.AddressText,
		}
	}

	// Authenticated callers also get their in-flight order so the client can
	// resume tracking instead of starting a new basket.
	if user := getAuthUser(r.Context()); user != nil {
		active, err := a.orders.LatestActiveByUser(r.Context(), user.User.ID)
		if err == nil {
			payload["active_order"] = mapOrder(active)
		} else if !errors.Is(err, domorder.ErrOrderNotFound) {
			handleDomainError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, payload)
}
