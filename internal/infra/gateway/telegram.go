// Package gateway holds the HTTP clients for the external services the
// marketplace talks to: Telegram, the SMS provider and the payment gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hsdarestani/vaadehrep/internal/usecase/notify"
)

// TelegramClient sends chat messages through the Bot API. It implements
// notify.ChatChannel.
type TelegramClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewTelegramClient(token string) *TelegramClient {
	return &TelegramClient{
		baseURL: "https://api.telegram.org",
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// NewTelegramClientWithBaseURL is for tests against a stub server.
func NewTelegramClientWithBaseURL(baseURL, token string) *TelegramClient {
	c := NewTelegramClient(token)
	c.baseURL = baseURL
	return c
}

type tgButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type tgReplyMarkup struct {
	InlineKeyboard [][]tgButton `json:"inline_keyboard"`
}

type tgSendMessage struct {
	ChatID      string         `json:"chat_id"`
	Text        string         `json:"text"`
	ReplyMarkup *tgReplyMarkup `json:"reply_markup,omitempty"`
}

type tgResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *TelegramClient) Send(ctx context.Context, chatID string, msg notify.Message) error {
	payload := tgSendMessage{ChatID: chatID, Text: msg.Text}
	if msg.Keyboard != nil {
		markup := &tgReplyMarkup{}
		for _, row := range msg.Keyboard.Rows {
			var tgRow []tgButton
			for _, b := range row {
				tgRow = append(tgRow, tgButton{Text: b.Text, CallbackData: b.CallbackData, URL: b.URL})
			}
			markup.InlineKeyboard = append(markup.InlineKeyboard, tgRow)
		}
		payload.ReplyMarkup = markup
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var tr tgResponse
	if err := json.Unmarshal(raw, &tr); err != nil {
		return fmt.Errorf("telegram: unexpected response (status %d)", resp.StatusCode)
	}
	if !tr.OK {
		return fmt.Errorf("telegram: %s", tr.Description)
	}
	return nil
}
