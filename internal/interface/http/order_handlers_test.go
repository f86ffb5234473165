package http

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	domaccount "github.com/hsdarestani/vaadehrep/internal/domain/account"
)

func placeGuestOrder(t *testing.T, env *testEnv) (orderID, token string) {
	t.Helper()

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders", "", map[string]any{
		"phone":        "09121112233",
		"full_name":    "Guest Customer",
		"items":        []map[string]any{{"product_id": 10, "quantity": 2}},
		"location":     map[string]any{"latitude": 35.701, "longitude": 51.401},
		"accept_terms": true,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	order := body["order"].(map[string]any)
	return order["id"].(string), body["token"].(string)
}

func TestCreateOrder_Guest_Returns201WithToken(t *testing.T) {
	env := setupAPI(t)

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders", "", map[string]any{
		"phone":     "09121112233",
		"full_name": "Guest Customer",
		"items": []map[string]any{
			{"product_id": 10, "quantity": 2},
			{"product_id": 11, "quantity": 1},
		},
		"location":     map[string]any{"latitude": 35.701, "longitude": 51.401},
		"accept_terms": true,
	}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.NotEmpty(t, body["token"], "guest placement should issue credentials")

	order := body["order"].(map[string]any)
	require.Equal(t, "PENDING_PAYMENT", order["status"])
	require.Equal(t, "UNPAID", order["payment_status"])
	require.Equal(t, "ONLINE", order["payment_method"])
	require.Equal(t, float64(9_000_000), order["subtotal"])
	require.Equal(t, float64(80_000), order["delivery_fee"])
	require.Equal(t, float64(9_080_000), order["total"])
	require.Len(t, order["items"].([]any), 2)
	require.Len(t, order["short_code"].(string), 10)
}

func TestCreateOrder_OutOfRange_Returns422(t *testing.T) {
	env := setupAPI(t)

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders", "", map[string]any{
		"phone":        "09121112233",
		"items":        []map[string]any{{"product_id": 10, "quantity": 1}},
		"location":     map[string]any{"latitude": 36.5, "longitude": 52.5},
		"accept_terms": true,
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestCreateOrder_MixedVendors_Returns422(t *testing.T) {
	env := setupAPI(t)

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders", "", map[string]any{
		"phone": "09121112233",
		"items": []map[string]any{
			{"product_id": 10, "quantity": 1},
			{"product_id": 20, "quantity": 1},
		},
		"location":     map[string]any{"latitude": 35.701, "longitude": 51.401},
		"accept_terms": true,
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestCreateOrder_ZeroQuantity_Returns400(t *testing.T) {
	env := setupAPI(t)

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders", "", map[string]any{
		"phone":        "09121112233",
		"items":        []map[string]any{{"product_id": 10, "quantity": 0}},
		"location":     map[string]any{"latitude": 35.701, "longitude": 51.401},
		"accept_terms": true,
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestCreateOrder_OmittedQuantity_DefaultsToOne(t *testing.T) {
	env := setupAPI(t)

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders", "", map[string]any{
		"phone":        "09121112233",
		"items":        []map[string]any{{"product_id": 10}},
		"location":     map[string]any{"latitude": 35.701, "longitude": 51.401},
		"accept_terms": true,
	}))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeBody(t, rec)["order"].(map[string]any)
	items := order["items"].([]any)
	require.Len(t, items, 1)
	require.Equal(t, float64(1), items[0].(map[string]any)["quantity"])
}

func TestCreateOrder_TermsNotAccepted_Returns422(t *testing.T) {
	env := setupAPI(t)

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders", "", map[string]any{
		"phone":    "09121112233",
		"items":    []map[string]any{{"product_id": 10, "quantity": 1}},
		"location": map[string]any{"latitude": 35.701, "longitude": 51.401},
	}))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestGetOrder_AsOwner_Returns200(t *testing.T) {
	env := setupAPI(t)
	orderID, token := placeGuestOrder(t, env)

	rec := doRequest(env.api, newJSONRequest(http.MethodGet, "/api/v1/orders/"+orderID, token, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, orderID, decodeBody(t, rec)["id"])
}

func TestGetOrder_OtherCustomer_Returns404(t *testing.T) {
	env := setupAPI(t)
	orderID, _ := placeGuestOrder(t, env)

	other := env.users.seed(domaccount.User{ID: 300, Phone: "09123334455", IsActive: true})
	rec := doRequest(env.api, newJSONRequest(http.MethodGet, "/api/v1/orders/"+orderID, env.tokenFor(t, other), nil))

	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestGetOrder_NoToken_Returns401(t *testing.T) {
	env := setupAPI(t)
	orderID, _ := placeGuestOrder(t, env)

	rec := doRequest(env.api, newJSONRequest(http.MethodGet, "/api/v1/orders/"+orderID, "", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code, rec.Body.String())
}

func TestListMyOrders_ReturnsOwnOrdersOnly(t *testing.T) {
	env := setupAPI(t)
	_, token := placeGuestOrder(t, env)

	rec := doRequest(env.api, newJSONRequest(http.MethodGet, "/api/v1/me/orders", token, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	orders := decodeBody(t, rec)["orders"].([]any)
	require.Len(t, orders, 1)
}

func TestStartPayment_ReturnsPaymentURL(t *testing.T) {
	env := setupAPI(t)
	orderID, token := placeGuestOrder(t, env)

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/pay", token, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Contains(t, body["payment_url"], "https://pay.test/")
}

func TestPaymentCallback_VerifiedPayment_ConfirmsOrder(t *testing.T) {
	env := setupAPI(t)
	orderID, token := placeGuestOrder(t, env)

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/pay", token, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/payments/callback", "", map[string]any{
		"order_id": orderID, "status": "PAID",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Equal(t, "CONFIRMED", body["status"])
	require.Equal(t, "PAID", body["payment_status"])
}

func TestPaymentCallback_GatewayDeniesPostbackClaim_StaysUnconfirmed(t *testing.T) {
	env := setupAPI(t)
	orderID, token := placeGuestOrder(t, env)
	env.gateway.paid = false

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/pay", token, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// The postback claims success but the gateway's verify answer wins.
	rec = doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/payments/callback", "", map[string]any{
		"order_id": orderID, "status": "PAID",
	}))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	require.Equal(t, "PENDING_PAYMENT", body["status"])
	require.Equal(t, "FAILED", body["payment_status"])
}

func TestPaymentCallback_GETRedirect_Returns200(t *testing.T) {
	env := setupAPI(t)
	orderID, token := placeGuestOrder(t, env)

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/pay", token, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(env.api, newJSONRequest(http.MethodGet,
		"/api/v1/payments/callback?order_id="+orderID+"&status=PAID", "", nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "CONFIRMED", decodeBody(t, rec)["status"])
}

func TestPaymentCallback_MissingReference_Returns400(t *testing.T) {
	env := setupAPI(t)

	rec := doRequest(env.api, newJSONRequest(http.MethodPost, "/api/v1/payments/callback", "", map[string]any{
		"status": "PAID",
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}
