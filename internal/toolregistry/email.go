package toolregistry

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
)

// EmailSummary is the contract-summary shape search_emails returns per
// spec §4.3: {id, from, subject, received_at, snippet}.
type EmailSummary struct {
	ID         string `json:"id"`
	From       string `json:"from"`
	Subject    string `json:"subject"`
	ReceivedAt string `json:"received_at"`
	Snippet    string `json:"snippet"`
}

// EmailDetail is the contract-summary shape read_email returns.
type EmailDetail struct {
	Headers         map[string]string `json:"headers"`
	Body            string            `json:"body"`
	AttachmentsMeta []string          `json:"attachments_meta"`
}

// DeliveryReceipt is returned by send_email and send_whatsapp on success.
type DeliveryReceipt struct {
	MessageID string `json:"message_id"`
	SentAt    string `json:"sent_at"`
}

// MailClient abstracts the IMAP/SMTP collaborators search_emails,
// read_email and send_email delegate to.
type MailClient interface {
	Search(ctx context.Context, query, folder string, maxResults int) ([]EmailSummary, error)
	Read(ctx context.Context, emailID, folder string) (EmailDetail, error)
	Send(ctx context.Context, to, subject, body string, cc, bcc []string) (DeliveryReceipt, error)
}

type SearchEmailsTool struct{ mail MailClient }

func NewSearchEmailsTool(m MailClient) *SearchEmailsTool { return &SearchEmailsTool{mail: m} }

func (t *SearchEmailsTool) Name() string        { return "search_emails" }
func (t *SearchEmailsTool) AgentCodes() []string { return []string{"EMAIL", "COMMS"} }

func (t *SearchEmailsTool) Definition() mcp.Tool {
	return mcp.NewTool("search_emails",
		mcp.WithDescription("Search the mailbox and return matching message summaries."),
		mcp.WithString("query", mcp.Required()),
		mcp.WithString("folder", mcp.Description("Mailbox folder to search. Defaults to INBOX.")),
		mcp.WithNumber("max_results", mcp.Description("Maximum results to return. Defaults to 10.")),
	)
}

func (t *SearchEmailsTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	started := time.Now()
	query, _ := args["query"].(string)
	folder := stringArgOr(args, "folder", "INBOX")
	maxResults := intArg(args, "max_results", 10)

	results, err := t.mail.Search(ctx, query, folder, maxResults)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	return Ok(t.Name(), results, "", time.Since(started))
}

type ReadEmailTool struct{ mail MailClient }

func NewReadEmailTool(m MailClient) *ReadEmailTool { return &ReadEmailTool{mail: m} }

func (t *ReadEmailTool) Name() string        { return "read_email" }
func (t *ReadEmailTool) AgentCodes() []string { return []string{"EMAIL", "COMMS"} }

func (t *ReadEmailTool) Definition() mcp.Tool {
	return mcp.NewTool("read_email",
		mcp.WithDescription("Fetch the full headers, body and attachment metadata of one message."),
		mcp.WithString("email_id", mcp.Required()),
		mcp.WithString("folder", mcp.Description("Mailbox folder the message lives in. Defaults to INBOX.")),
	)
}

func (t *ReadEmailTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	started := time.Now()
	emailID, _ := args["email_id"].(string)
	folder := stringArgOr(args, "folder", "INBOX")

	detail, err := t.mail.Read(ctx, emailID, folder)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	return Ok(t.Name(), detail, "", time.Since(started))
}

type SendEmailTool struct{ mail MailClient }

func NewSendEmailTool(m MailClient) *SendEmailTool { return &SendEmailTool{mail: m} }

func (t *SendEmailTool) Name() string        { return "send_email" }
func (t *SendEmailTool) AgentCodes() []string { return []string{"EMAIL", "COMMS"} }

func (t *SendEmailTool) Definition() mcp.Tool {
	return mcp.NewTool("send_email",
		mcp.WithDescription("Send an email and return a delivery receipt."),
		mcp.WithString("to", mcp.Required()),
		mcp.WithString("subject", mcp.Required()),
		mcp.WithString("body", mcp.Required()),
	)
}

func (t *SendEmailTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	started := time.Now()
	to, _ := args["to"].(string)
	subject, _ := args["subject"].(string)
	body, _ := args["body"].(string)
	if to == "" || subject == "" {
		return Err(t.Name(), apperror.New(apperror.Application, "to and subject are required"), time.Since(started))
	}

	receipt, err := t.mail.Send(ctx, to, subject, body, stringSliceArg(args, "cc"), stringSliceArg(args, "bcc"))
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	return Ok(t.Name(), receipt, fmt.Sprintf("Sent %q to %s", subject, to), time.Since(started))
}

// MockMailClient returns deterministic fixtures for mock_mode and tests.
type MockMailClient struct{}

func (MockMailClient) Search(_ context.Context, query, folder string, maxResults int) ([]EmailSummary, error) {
	return []EmailSummary{{
		ID: "mock-email-1", From: "someone@example.com", Subject: "Re: " + query,
		ReceivedAt: time.Now().UTC().Format(time.RFC3339), Snippet: "This is a mock result.",
	}}, nil
}

func (MockMailClient) Read(_ context.Context, emailID, folder string) (EmailDetail, error) {
	return EmailDetail{
		Headers: map[string]string{"Message-Id": emailID, "Folder": folder},
		Body:    "Mock email body.",
	}, nil
}

func (MockMailClient) Send(_ context.Context, to, subject, body string, cc, bcc []string) (DeliveryReceipt, error) {
	return DeliveryReceipt{MessageID: "mock-" + to, SentAt: time.Now().UTC().Format(time.RFC3339)}, nil
}

func stringArgOr(args map[string]any, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
