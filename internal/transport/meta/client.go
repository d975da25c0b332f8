// Package meta is a minimal WhatsApp Cloud API client: send a text
// message, mark one as read. When no access token is configured the client
// logs the message instead of sending, which is the local-dev mode.
package meta

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://graph.facebook.com/v18.0"

type Client struct {
	baseURL     string
	accessToken string
	phoneID     string
	http        *http.Client
}

func NewClient(accessToken, phoneID string) *Client {
	return &Client{
		baseURL:     defaultBaseURL,
		accessToken: accessToken,
		phoneID:     phoneID,
		http:        &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) configured() bool {
	return c.accessToken != "" && c.phoneID != ""
}

// SendText delivers a plain text message to a +CC phone number.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	if !c.configured() {
		log.Printf("meta: [mock send] to=%s body=%q", to, body)
		return nil
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"to":                strings.TrimPrefix(to, "+"),
		"type":              "text",
		"text":              map[string]any{"body": body},
	}
	return c.post(ctx, payload)
}

// MarkRead acknowledges an inbound message so the user sees read receipts.
func (c *Client) MarkRead(ctx context.Context, messageID string) error {
	if !c.configured() {
		return nil
	}

	payload := map[string]any{
		"messaging_product": "whatsapp",
		"status":            "read",
		"message_id":        messageID,
	}
	return c.post(ctx, payload)
}

func (c *Client) post(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("meta request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("meta request: status %d: %s", resp.StatusCode, b)
	}
	return nil
}
