package http

import (
	"net/http"

	domorder "github.com/hsdarestani/vaadehrep/internal/domain/order"
	"github.com/hsdarestani/vaadehrep/internal/usecase/modifiers"
	placementuc "github.com/hsdarestani/vaadehrep/internal/usecase/placement"
)

type modifierItemRequest struct {
	ItemID   int64 `json:"item_id" validate:"required"`
	Quantity int64 `json:"quantity" validate:"min=0"`
}

type modifierRequest struct {
	GroupID int64                 `json:"group_id" validate:"required"`
	Items   []modifierItemRequest `json:"items" validate:"dive"`
}

type orderItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required"`
	// Quantity defaults to 1 when omitted; an explicit zero is rejected.
	Quantity  *int64            `json:"quantity" validate:"omitempty,min=1"`
	Modifiers []modifierRequest `json:"modifiers" validate:"dive"`
}

type newAddressRequest struct {
	Title         string   `json:"title"`
	ReceiverName  string   `json:"receiver_name"`
	ReceiverPhone string   `json:"receiver_phone"`
	City          string   `json:"city"`
	District      string   `json:"district"`
	Street        string   `json:"street"`
	FullText      string   `json:"full_text" validate:"required"`
	Notes         string   `json:"notes"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
}

type locationRequest struct {
	Latitude  float64 `json:"latitude" validate:"required"`
	Longitude float64 `json:"longitude" validate:"required"`
}

type createOrderRequest struct {
	VendorID    *int64             `json:"vendor_id"`
	Items       []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	AddressID   *int64             `json:"address_id"`
	NewAddress  *newAddressRequest `json:"new_address"`
	Location    *locationRequest   `json:"location"`
	Phone       string             `json:"phone"`
	FullName    string             `json:"full_name"`
	Note        string             `json:"note"`
	AcceptTerms bool               `json:"accept_terms"`
}

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := a.decodeAndValidate(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	in := placementuc.Input{
		VendorID:          req.VendorID,
		CustomerPhone:     req.Phone,
		CustomerName:      req.FullName,
		DeliveryAddressID: req.AddressID,
		CustomerNote:      req.Note,
		AcceptTerms:       req.AcceptTerms,
		Source:            domorder.SourceWeb,
	}
	if user := getAuthUser(r.Context()); user != nil {
		in.UserID = &user.User.ID
	}
	if req.NewAddress != nil {
		in.NewAddress = &placementuc.AddressInput{
			Title:         req.NewAddress.Title,
			ReceiverName:  req.NewAddress.ReceiverName,
			ReceiverPhone: req.NewAddress.ReceiverPhone,
			City:          req.NewAddress.City,
			District:      req.NewAddress.District,
			Street:        req.NewAddress.Street,
			FullText:      req.NewAddress.FullText,
			Notes:         req.NewAddress.Notes,
			Latitude:      req.NewAddress.Latitude,
			Longitude:     req.NewAddress.Longitude,
		}
	}
	if req.Location != nil {
		in.CustomerLocation = &domorder.Coordinates{
			Latitude:  req.Location.Latitude,
			Longitude: req.Location.Longitude,
		}
	}
	for _, it := range req.Items {
		item := placementuc.ItemInput{ProductID: it.ProductID, Quantity: 1}
		if it.Quantity != nil {
			item.Quantity = *it.Quantity
		}
		for _, m := range it.Modifiers {
			sel := modifiers.Selection{GroupID: m.GroupID}
			for _, mi := range m.Items {
				sel.Items = append(sel.Items, modifiers.SelectionItem{ItemID: mi.ItemID, Quantity: mi.Quantity})
			}
			item.Selections = append(item.Selections, sel)
		}
		in.Items = append(in.Items, item)
	}

	res, err := a.placementSvc.Place(r.Context(), in)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	payload := map[string]any{"order": mapOrder(res.Order)}
	if res.AccessToken != "" {
		payload["token"] = res.AccessToken
	}
	writeJSON(w, http.StatusCreated, payload)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	o, err := a.orders.GetByID(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	user := getAuthUser(r.Context())
	if o.UserID != user.User.ID && !user.IsStaff {
		handleDomainError(w, domorder.ErrOrderNotFound)
		return
	}
	writeJSON(w, http.StatusOK, mapOrder(o))
}

func (a *API) handleListMyOrders(w http.ResponseWriter, r *http.Request) {
	user := getAuthUser(r.Context())
	orders, err := a.orders.ListByUser(r.Context(), user.User.ID)
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

func (a *API) handleStartPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseOrderID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	user := getAuthUser(r.Context())
	o, err := a.orders.GetByID(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if o.UserID != user.User.ID && !user.IsStaff {
		handleDomainError(w, domorder.ErrOrderNotFound)
		return
	}

	meta, err := a.paymentSvc.StartPayment(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"payment_url": meta.PaymentURL,
		"reference":   meta.Reference,
	})
}
