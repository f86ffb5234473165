package http

import (
	"net/http"

	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
)

type setStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// handleVendorOrders lists the orders of the vendor the caller staffs.
func (a *API) handleVendorOrders(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())
	staff, err := a.vendors.ActiveStaffForUser(r.Context(), user.User.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	orders, err := a.orders.ListByVendor(r.Context(), staff.VendorID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	out := make([]map[string]any, 0, len(orders))
	for _, o := range orders {
		out = append(out, mapOrder(o))
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (a *API) handleVendorSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req setStatusRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	user := getAuthUser(r.Context())
	staff, err := a.vendors.ActiveStaffForUser(r.Context(), user.User.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	o, err := a.orders.GetByID(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if o.VendorID != staff.VendorID {
		handleDomainError(w, domorder.ErrOrderNotFound)
		return
	}

	updated, err := a.statusSvc.VendorSetStatus(r.Context(), id, domorder.Status(req.Status), user.User.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(updated))
}

func (a *API) handleOperatorSetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var req setStatusRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	user := getAuthUser(r.Context())
	updated, err := a.statusSvc.OperatorSetStatus(r.Context(), id, domorder.Status(req.Status), domorder.ActorAdmin, &user.User.ID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(updated))
}
