// Package whatsapp implements toolregistry.Messenger and
// conversation.Messenger against Twilio's WhatsApp REST API, grounded
// on original_source/app/mcp/clients/twilio_http.py's basic-auth POST
// to Messages.json.
package whatsapp

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
)

type Client struct {
	AccountSID string
	AuthToken  string
	From       string // Twilio WhatsApp-enabled sender, e.g. +14155238886
	BaseURL    string // defaults to https://api.twilio.com/2010-04-01
	HTTP       *http.Client
}

func NewClient(accountSID, authToken, from string) *Client {
	return &Client{
		AccountSID: accountSID, AuthToken: authToken, From: from,
		BaseURL: "https://api.twilio.com/2010-04-01",
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// sendMessage is the shared Twilio call both adapters below build on.
func (c *Client) sendMessage(ctx context.Context, to, body string) (toolregistry.DeliveryReceipt, error) {
	if c.AccountSID == "" || c.AuthToken == "" {
		return toolregistry.DeliveryReceipt{}, fmt.Errorf("whatsapp: TWILIO_ACCOUNT_SID/TWILIO_AUTH_TOKEN not configured")
	}
	if c.From == "" {
		return toolregistry.DeliveryReceipt{}, fmt.Errorf("whatsapp: MESSENGER_FROM not configured")
	}

	form := url.Values{
		"From": {"whatsapp:" + c.From},
		"To":   {"whatsapp:" + to},
		"Body": {body},
	}
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.BaseURL, c.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return toolregistry.DeliveryReceipt{}, fmt.Errorf("whatsapp: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return toolregistry.DeliveryReceipt{}, fmt.Errorf("whatsapp: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return toolregistry.DeliveryReceipt{}, fmt.Errorf("whatsapp: twilio returned %s", resp.Status)
	}

	now := time.Now().UTC()
	return toolregistry.DeliveryReceipt{
		MessageID: fmt.Sprintf("WA%d", now.UnixNano()), SentAt: now.Format(time.RFC3339),
	}, nil
}

// ToolMessenger adapts Client to toolregistry.Messenger for
// send_whatsapp.
type ToolMessenger struct{ *Client }

func NewToolMessenger(c *Client) ToolMessenger { return ToolMessenger{c} }

func (m ToolMessenger) Send(ctx context.Context, to, body string) (toolregistry.DeliveryReceipt, error) {
	return m.Client.sendMessage(ctx, to, body)
}

// ConversationMessenger adapts Client to conversation.Messenger's
// simpler error-only Send signature, used for WhatsApp auto-replies.
type ConversationMessenger struct{ *Client }

func NewConversationMessenger(c *Client) ConversationMessenger { return ConversationMessenger{c} }

func (m ConversationMessenger) Send(ctx context.Context, to, body string) error {
	_, err := m.Client.sendMessage(ctx, to, body)
	return err
}
