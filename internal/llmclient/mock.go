package llmclient

import (
	"context"
	"strings"
)

// MockProvider returns a deterministic final-text response for
// mock_mode and tests: it never requests a tool call unless the
// latest user message contains the trigger substring "tool:".
type MockProvider struct{}

func (MockProvider) Chat(_ context.Context, messages []Message, tools []ToolDescriptor) (ChatResponse, error) {
	var last Message
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			last = messages[i]
			break
		}
	}

	if name, ok := strings.CutPrefix(last.Content, "tool:"); ok && len(tools) > 0 {
		return ChatResponse{ToolCalls: []ToolCall{{ID: "mock-call-1", Name: strings.TrimSpace(name), Arguments: map[string]any{}}}}, nil
	}

	return ChatResponse{Content: "<think>reasoning about " + last.Content + "</think>Mock response to: " + last.Content}, nil
}
