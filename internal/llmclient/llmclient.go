// Package llmclient implements the LLM Client of spec §4.7: one
// stateless chat(messages, tools, tool_choice) operation. No pack
// example imports an LLM SDK, so Provider implementations speak each
// vendor's HTTP chat-completions API directly with net/http and
// encoding/json, following the request/response struct idiom
// RedClaus-cortex uses for its TTS Provider interface.
package llmclient

import (
	"context"
	"strings"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
	"github.com/ivanintech/agentic-assistant/internal/textclean"
)

// Role is a chat message's speaker role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of chat history.
type Message struct {
	Role       Role
	Content    string
	ToolCallID string // set on RoleTool messages
	Name       string // tool name, set on RoleTool messages
	ToolCalls  []ToolCall
}

// ToolDescriptor is the JSON-schema-shaped function-calling descriptor
// passed to the model — built from toolregistry.Tool.Definition().
type ToolDescriptor struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolCall is one function call the model requested.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// ChatResponse is the client's single return shape: Content carries the
// model's text and ToolCalls the function calls it requested; a provider
// response can populate both.
type ChatResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// Provider performs one chat completion call against an LLM vendor.
type Provider interface {
	Chat(ctx context.Context, messages []Message, tools []ToolDescriptor) (ChatResponse, error)
}

// Client wraps a Provider and guarantees the spec §4.7 post-condition:
// no internal reasoning span survives in Content.
type Client struct {
	provider Provider
}

// New wires a Provider behind the reasoning-stripping guarantee.
func New(provider Provider) *Client {
	return &Client{provider: provider}
}

// Chat is the client's one operation. tool_choice is always "auto" —
// the spec names no other mode.
func (c *Client) Chat(ctx context.Context, messages []Message, tools []ToolDescriptor) (ChatResponse, error) {
	resp, err := c.provider.Chat(ctx, messages, tools)
	if err != nil {
		return ChatResponse{}, apperror.Wrap(apperror.Transport, "llmclient: chat", err)
	}
	resp.Content = strings.TrimSpace(textclean.StripReasoningSpans(resp.Content))
	return resp, nil
}
