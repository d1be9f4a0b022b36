package toolexec_test

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ivanintech/agentic-assistant/internal/mcpmanager"
	"github.com/ivanintech/agentic-assistant/internal/toolexec"
	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
)

// fakeMCPClient lets each test script CallTool's outcome directly.
type fakeMCPClient struct {
	callResult *mcp.CallToolResult
	callErr    error
}

func (f *fakeMCPClient) Initialize(context.Context, mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	return &mcp.InitializeResult{}, nil
}
func (f *fakeMCPClient) ListTools(context.Context, mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	return &mcp.ListToolsResult{}, nil
}
func (f *fakeMCPClient) CallTool(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return f.callResult, f.callErr
}
func (f *fakeMCPClient) Close() error { return nil }

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errConnectionReset = fakeErr("connection reset by peer")

func newManagerWithFakeClient(fc *fakeMCPClient) *mcpmanager.Manager {
	return mcpmanager.NewManager(mcpmanager.Config{}, []mcpmanager.ServerConfig{
		{ID: "calendar-mcp", Transport: mcpmanager.TransportStdio, Command: "mock"},
	}, func(mcpmanager.ServerConfig) (mcpmanager.Client, error) { return fc, nil })
}

func newLocalRegistry(t *testing.T) *toolregistry.Registry {
	t.Helper()
	r := toolregistry.NewRegistry()
	if err := r.Register(toolregistry.NewSendEmailTool(toolregistry.MockMailClient{})); err != nil {
		t.Fatalf("Register: %v", err)
	}
	return r
}

func TestExecute_MockModeShortCircuits(t *testing.T) {
	f := toolexec.New(nil, newManagerWithFakeClient(&fakeMCPClient{}), newLocalRegistry(t), true)
	result := f.Execute(context.Background(), "send_email", map[string]any{"to": "a@b.com"})
	if result.Via != "mock" {
		t.Errorf("Via = %q, want mock", result.Via)
	}
}

func TestExecute_UnmappedToolGoesLocal(t *testing.T) {
	f := toolexec.New(nil, newManagerWithFakeClient(&fakeMCPClient{}), newLocalRegistry(t), false)
	result := f.Execute(context.Background(), "send_email", map[string]any{"to": "a@b.com", "subject": "s", "body": "b"})
	if result.Via != "local" {
		t.Errorf("Via = %q, want local", result.Via)
	}
	if !result.Success {
		t.Errorf("Execute: expected local fallback to succeed, got %+v", result)
	}
}

func TestExecute_MappedToolDispatchesToMCP(t *testing.T) {
	fc := &fakeMCPClient{callResult: &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "ok from mcp"}},
	}}
	mappings := map[string]toolexec.Mapping{"send_email": {ServerID: "calendar-mcp", ServerToolName: "send_email"}}
	f := toolexec.New(mappings, newManagerWithFakeClient(fc), newLocalRegistry(t), false)

	result := f.Execute(context.Background(), "send_email", map[string]any{"to": "a@b.com"})
	if result.Via != "mcp" {
		t.Errorf("Via = %q, want mcp", result.Via)
	}
	if !result.Success {
		t.Errorf("Execute: expected MCP success, got %+v", result)
	}
}

func TestExecute_MCPTransportErrorFallsBackToLocal(t *testing.T) {
	fc := &fakeMCPClient{callErr: errConnectionReset}
	mappings := map[string]toolexec.Mapping{"send_email": {ServerID: "calendar-mcp", ServerToolName: "send_email"}}
	f := toolexec.New(mappings, newManagerWithFakeClient(fc), newLocalRegistry(t), false)

	result := f.Execute(context.Background(), "send_email", map[string]any{"to": "a@b.com", "subject": "s", "body": "b"})
	if result.Via != "local" {
		t.Errorf("Via = %q, want local (transport failure must fall back)", result.Via)
	}
	if !result.Success {
		t.Errorf("Execute: expected local fallback to succeed, got %+v", result)
	}
}

func TestExecute_MCPApplicationErrorDoesNotFallBack(t *testing.T) {
	fc := &fakeMCPClient{callResult: &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "invalid recipient"}},
	}}
	mappings := map[string]toolexec.Mapping{"send_email": {ServerID: "calendar-mcp", ServerToolName: "send_email"}}
	f := toolexec.New(mappings, newManagerWithFakeClient(fc), newLocalRegistry(t), false)

	result := f.Execute(context.Background(), "send_email", map[string]any{"to": "bad"})
	if result.Via != "mcp" {
		t.Errorf("Via = %q, want mcp (application errors must not fall back to local)", result.Via)
	}
	if result.Success {
		t.Errorf("Execute: expected application-level failure to surface as success=false")
	}
}
