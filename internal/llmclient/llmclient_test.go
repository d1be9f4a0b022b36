package llmclient_test

import (
	"context"
	"strings"
	"testing"

	"github.com/ivanintech/agentic-assistant/internal/llmclient"
)

func TestChat_StripsReasoningSpan(t *testing.T) {
	client := llmclient.New(llmclient.MockProvider{})
	resp, err := client.Chat(context.Background(), []llmclient.Message{
		{Role: llmclient.RoleUser, Content: "what's on my agenda"},
	}, nil)
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if strings.Contains(resp.Content, "<think>") || strings.Contains(resp.Content, "</think>") {
		t.Errorf("Chat: reasoning span survived in content: %q", resp.Content)
	}
	if !strings.Contains(resp.Content, "Mock response") {
		t.Errorf("Chat: expected visible content to survive, got %q", resp.Content)
	}
}

func TestChat_ReturnsToolCallsWhenRequested(t *testing.T) {
	client := llmclient.New(llmclient.MockProvider{})
	resp, err := client.Chat(context.Background(), []llmclient.Message{
		{Role: llmclient.RoleUser, Content: "tool: list_agenda_events"},
	}, []llmclient.ToolDescriptor{{Name: "list_agenda_events"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "list_agenda_events" {
		t.Errorf("Chat: ToolCalls = %+v, want one call to list_agenda_events", resp.ToolCalls)
	}
	if resp.Content != "" {
		t.Errorf("Chat: expected empty content alongside tool calls, got %q", resp.Content)
	}
}
