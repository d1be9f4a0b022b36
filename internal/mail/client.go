// Package mail implements toolregistry.MailClient. Sending is a real
// SMTP call, grounded on
// original_source/app/agents/tools/email_tool.py's smtplib usage — no
// SMTP/IMAP library appears anywhere in the examples pack, so net/smtp
// is the justified stdlib choice for Send (see DESIGN.md).
//
// Search and Read have no such stdlib equivalent: the original reads
// mail through app/mcp/clients/imap_client.py, i.e. through MCP rather
// than a direct API call. Client intentionally fails those two with a
// transport error so the Tool Execution Facade's MCP path (configured
// separately) is the real path for them; this local collaborator only
// ever serves as toolexec's no-MCP-configured fallback.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
)

type Client struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

func NewClient(host, port, username, password, from string) *Client {
	return &Client{Host: host, Port: port, Username: username, Password: password, From: from}
}

// Send implements toolregistry.MailClient.
func (c *Client) Send(ctx context.Context, to, subject, body string, cc, bcc []string) (toolregistry.DeliveryReceipt, error) {
	recipients := append([]string{to}, append(cc, bcc...)...)
	msg := buildMessage(c.From, to, cc, subject, body)

	auth := smtp.PlainAuth("", c.Username, c.Password, c.Host)
	addr := fmt.Sprintf("%s:%s", c.Host, c.Port)
	if err := smtp.SendMail(addr, auth, c.From, recipients, msg); err != nil {
		return toolregistry.DeliveryReceipt{}, fmt.Errorf("mail: send via %s failed: %w", addr, err)
	}

	now := time.Now().UTC()
	return toolregistry.DeliveryReceipt{
		MessageID: fmt.Sprintf("<%d@%s>", now.UnixNano(), c.Host),
		SentAt:    now.Format(time.RFC3339),
	}, nil
}

// Search implements toolregistry.MailClient.
func (c *Client) Search(ctx context.Context, query, folder string, maxResults int) ([]toolregistry.EmailSummary, error) {
	return nil, fmt.Errorf("mail: search_emails requires an IMAP-capable MCP server; no local client is configured")
}

// Read implements toolregistry.MailClient.
func (c *Client) Read(ctx context.Context, emailID, folder string) (toolregistry.EmailDetail, error) {
	return toolregistry.EmailDetail{}, fmt.Errorf("mail: read_email requires an IMAP-capable MCP server; no local client is configured")
}

func buildMessage(from, to string, cc []string, subject, body string) []byte {
	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\n", from, to)
	if len(cc) > 0 {
		headers += "Cc: " + joinComma(cc) + "\r\n"
	}
	headers += fmt.Sprintf("Subject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n", subject)
	return []byte(headers + body)
}

func joinComma(values []string) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += ", "
		}
		out += v
	}
	return out
}
