package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hsdarestani/vaadehrep/internal/usecase/payment"
)

// PaymentClient talks to the payment provider's REST API. It implements
// payment.Gateway.
type PaymentClient struct {
	baseURL     string
	apiKey      string
	callbackURL string
	http        *http.Client
}

func NewPaymentClient(baseURL, apiKey, callbackURL string) *PaymentClient {
	return &PaymentClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		callbackURL: callbackURL,
		http:        &http.Client{Timeout: 15 * time.Second},
	}
}

type paymentIntentRequest struct {
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	OrderRef    string `json:"order_ref"`
	Description string `json:"description,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

// paymentIntentResponse tolerates the field-name drift between provider API
// versions.
type paymentIntentResponse struct {
	OrderID     string `json:"order_id"`
	ID          string `json:"id"`
	PaymentURL  string `json:"payment_url"`
	PaymentURL2 string `json:"paymentUrl"`
	URL         string `json:"url"`
	Reference   string `json:"reference"`
}

func (c *PaymentClient) CreateIntent(ctx context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	body := paymentIntentRequest{
		Amount:      req.Amount,
		Currency:    req.Currency,
		OrderRef:    req.OrderID.String(),
		Description: req.Description,
		CallbackURL: c.callbackURL,
	}

	var resp paymentIntentResponse
	raw, err := c.post(ctx, "/payments", body, &resp)
	if err != nil {
		return nil, err
	}

	providerID := resp.OrderID
	if providerID == "" {
		providerID = resp.ID
	}
	url := resp.PaymentURL
	if url == "" {
		url = resp.PaymentURL2
	}
	if url == "" {
		url = resp.URL
	}
	if providerID == "" || url == "" {
		return nil, fmt.Errorf("payment gateway: incomplete intent response")
	}

	var rawMap map[string]any
	_ = json.Unmarshal(raw, &rawMap)

	return &payment.Intent{
		ProviderOrderID: providerID,
		PaymentURL:      url,
		Reference:       resp.Reference,
		Raw:             rawMap,
	}, nil
}

type paymentVerifyRequest struct {
	OrderID string `json:"order_id"`
}

type paymentVerifyResponse struct {
	Status    string `json:"status"`
	Paid      bool   `json:"paid"`
	Reference string `json:"reference"`
}

func (c *PaymentClient) Verify(ctx context.Context, providerOrderID string) (*payment.VerifyResult, error) {
	var resp paymentVerifyResponse
	if _, err := c.post(ctx, "/payments/verify", paymentVerifyRequest{OrderID: providerOrderID}, &resp); err != nil {
		return nil, err
	}
	paid := resp.Paid || resp.Status == "PAID" || resp.Status == "paid"
	return &payment.VerifyResult{Paid: paid, Reference: resp.Reference}, nil
}

func (c *PaymentClient) post(ctx context.Context, path string, body any, out any) ([]byte, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("payment gateway: status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("payment gateway: decoding response: %w", err)
	}
	return raw, nil
}
