package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/civicdesk/civic-portal/internal/flow"
)

const (
	defaultGraphAPIBase = "https://graph.facebook.com/v18.0"
	defaultHTTPTimeout  = 10 * time.Second

	// The Cloud API caps interactive reply buttons per message.
	maxButtons = 3
)

// Client sends messages via the WhatsApp Cloud API.
type Client struct {
	accessToken   string
	phoneNumberID string
	graphAPIBase  string
	httpClient    *http.Client
}

// NewClient creates a new Cloud API client for one business phone number.
func NewClient(accessToken, phoneNumberID string) *Client {
	return &Client{
		accessToken:   accessToken,
		phoneNumberID: phoneNumberID,
		graphAPIBase:  defaultGraphAPIBase,
		httpClient:    &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// SetGraphAPIBase overrides the Graph API base URL (useful for testing).
func (c *Client) SetGraphAPIBase(base string) {
	c.graphAPIBase = base
}

// SendText sends a plain text message to the given recipient.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             &Text{Body: text},
	}
	_, err := c.send(ctx, req)
	return err
}

// SendButtons sends an interactive reply-button message.
func (c *Client) SendButtons(ctx context.Context, to, text string, buttons []flow.Button) error {
	if len(buttons) == 0 {
		return fmt.Errorf("whatsapp: button message needs at least one button")
	}
	if len(buttons) > maxButtons {
		return fmt.Errorf("whatsapp: at most %d buttons per message, got %d", maxButtons, len(buttons))
	}

	action := sendAction{Buttons: make([]sendButton, 0, len(buttons))}
	for _, b := range buttons {
		action.Buttons = append(action.Buttons, sendButton{
			Type:  "reply",
			Reply: Reply{ID: b.ID, Title: b.Title},
		})
	}
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &sendInteractive{
			Type:   "button",
			Body:   sendBody{Text: text},
			Action: action,
		},
	}
	_, err := c.send(ctx, req)
	return err
}

// SendList sends an interactive list message.
func (c *Client) SendList(ctx context.Context, to, text, buttonLabel string, sections []flow.ListSection) error {
	if len(sections) == 0 {
		return fmt.Errorf("whatsapp: list message needs at least one section")
	}

	out := make([]sendSection, 0, len(sections))
	for _, s := range sections {
		rows := make([]sendRow, 0, len(s.Rows))
		for _, r := range s.Rows {
			rows = append(rows, sendRow{ID: r.ID, Title: r.Title, Description: r.Description})
		}
		out = append(out, sendSection{Title: s.Title, Rows: rows})
	}
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
		Interactive: &sendInteractive{
			Type:   "list",
			Body:   sendBody{Text: text},
			Action: sendAction{Button: buttonLabel, Sections: out},
		},
	}
	_, err := c.send(ctx, req)
	return err
}

func (c *Client) send(ctx context.Context, req sendRequest) (*SendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: marshal send request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.graphAPIBase, c.phoneNumberID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("whatsapp: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: send message: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("whatsapp: read response: %w", err)
	}

	var sendResp SendResponse
	if err := json.Unmarshal(respBody, &sendResp); err != nil {
		return nil, fmt.Errorf("whatsapp: unmarshal response: %w", err)
	}

	if sendResp.Error != nil {
		return &sendResp, fmt.Errorf("whatsapp: API error %d: %s", sendResp.Error.Code, sendResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return &sendResp, fmt.Errorf("whatsapp: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return &sendResp, nil
}
