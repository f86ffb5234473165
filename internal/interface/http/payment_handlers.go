package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	paymentuc "github.com/hsdarestani/vaadehrep/internal/usecase/payment"
)

type paymentCallbackRequest struct {
	OrderRef  string `json:"order_ref"`
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	Success   *bool  `json:"success"`
	Reference string `json:"reference"`
}

// handlePaymentCallback accepts both the gateway's server-to-server POST and
// the browser redirect GET. The postback's claim is advisory; the payment
// service re-verifies with the gateway before marking anything paid.
func (a *API) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	var cb paymentuc.Callback

	if r.Method == http.MethodPost {
		var req paymentCallbackRequest
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, err)
			return
		}
		cb.OrderRef = req.OrderRef
		if cb.OrderRef == "" {
			cb.OrderRef = req.OrderID
		}
		cb.Reference = req.Reference
		if req.Success != nil {
			cb.Success = *req.Success
		} else {
			cb.Success = isSuccessStatus(req.Status)
		}
	} else {
		q := r.URL.Query()
		cb.OrderRef = q.Get("order_ref")
		if cb.OrderRef == "" {
			cb.OrderRef = q.Get("order_id")
		}
		cb.Reference = q.Get("reference")
		cb.Success = isSuccessStatus(q.Get("status")) || q.Get("success") == "true"
	}

	if cb.OrderRef == "" {
		respondError(w, http.StatusBadRequest, errors.New("missing order reference"))
		return
	}

	o, err := a.paymentSvc.HandleCallback(r.Context(), cb)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":       o.ID,
		"status":         o.Status,
		"payment_status": o.PaymentStatus,
	})
}

func isSuccessStatus(status string) bool {
	switch strings.ToUpper(status) {
	case "PAID", "SUCCESS", "OK", "COMPLETED":
		return true
	default:
		return false
	}
}
