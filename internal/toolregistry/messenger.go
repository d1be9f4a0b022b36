package toolregistry

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
)

// Messenger abstracts the WhatsApp-style collaborator send_whatsapp
// delegates to.
type Messenger interface {
	Send(ctx context.Context, to, body string) (DeliveryReceipt, error)
}

type SendWhatsAppTool struct{ messenger Messenger }

func NewSendWhatsAppTool(m Messenger) *SendWhatsAppTool { return &SendWhatsAppTool{messenger: m} }

func (t *SendWhatsAppTool) Name() string        { return "send_whatsapp" }
func (t *SendWhatsAppTool) AgentCodes() []string { return []string{"COMMS"} }

func (t *SendWhatsAppTool) Definition() mcp.Tool {
	return mcp.NewTool("send_whatsapp",
		mcp.WithDescription("Send a WhatsApp message and return a delivery receipt."),
		mcp.WithString("to", mcp.Required()),
		mcp.WithString("body", mcp.Required()),
	)
}

func (t *SendWhatsAppTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	started := time.Now()
	to, _ := args["to"].(string)
	body, _ := args["body"].(string)
	if to == "" || body == "" {
		return Err(t.Name(), apperror.New(apperror.Application, "to and body are required"), time.Since(started))
	}

	receipt, err := t.messenger.Send(ctx, to, body)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	return Ok(t.Name(), receipt, "", time.Since(started))
}

// MockMessenger returns a deterministic receipt for mock_mode and tests.
type MockMessenger struct{}

func (MockMessenger) Send(_ context.Context, to, body string) (DeliveryReceipt, error) {
	return DeliveryReceipt{MessageID: "mock-wa-" + to, SentAt: time.Now().UTC().Format(time.RFC3339)}, nil
}
