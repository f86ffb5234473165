package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SMSClient posts transactional messages to the SMS provider. It implements
// notify.SMSChannel.
type SMSClient struct {
	endpoint string
	apiKey   string
	sender   string
	http     *http.Client
}

func NewSMSClient(endpoint, apiKey, sender string) *SMSClient {
	return &SMSClient{
		endpoint: endpoint,
		apiKey:   apiKey,
		sender:   sender,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

type smsRequest struct {
	To   string `json:"to"`
	From string `json:"from,omitempty"`
	Text string `json:"text"`
}

func (c *SMSClient) Send(ctx context.Context, phone, text string) error {
	body, err := json.Marshal(smsRequest{To: phone, From: c.sender, Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms provider: status %d", resp.StatusCode)
	}
	return nil
}
