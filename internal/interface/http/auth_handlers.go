package http

import (
	"net/http"
)

type loginRequest struct {
	Phone    string `json:"phone" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// handleLogin authenticates vendor staff and operators. Customers never log
// in with a password; they receive a token when placing their first order.
func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	u, token, err := a.accountSvc.Login(r.Context(), req.Phone, req.Password)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":        u.ID,
			"phone":     u.Phone,
			"full_name": u.FullName,
			"is_staff":  u.IsStaff,
		},
	})
}

type provisionStaffRequest struct {
	Phone    string `json:"phone" validate:"required"`
	FullName string `json:"full_name"`
	Password string `json:"password" validate:"required,min=8"`
}

func (a *API) handleProvisionStaff(w http.ResponseWriter, r *http.Request) {
	var req provisionStaffRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	u, err := a.accountSvc.ProvisionStaff(r.Context(), req.Phone, req.FullName, req.Password)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":        u.ID,
		"phone":     u.Phone,
		"full_name": u.FullName,
		"is_staff":  u.IsStaff,
	})
}
