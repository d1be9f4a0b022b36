// Package toolexec implements the Tool Execution Facade of spec §4.5:
// one execute(tool_name, args) entry point that dispatches to MCP when a
// mapping exists, falls back to the local Registry only on a
// transport-level failure, and short-circuits to deterministic stubs
// when mock_mode is enabled.
package toolexec

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
	"github.com/ivanintech/agentic-assistant/internal/mcpmanager"
	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
)

// Mapping is one entry in the tool_name -> (server_id, server_tool_name)
// table spec §4.5 describes. Lookups are exact — no wildcards.
type Mapping struct {
	ServerID       string
	ServerToolName string
}

// Facade is the single execute() entry point the Orchestrator's tool
// stage calls.
type Facade struct {
	mappings map[string]Mapping
	mcp      *mcpmanager.Manager
	local    *toolregistry.Registry
	mockMode bool
	mocks    map[string]toolregistry.ToolResult
}

// New builds a Facade over a static mapping table, an MCP manager, and
// the local fallback registry.
func New(mappings map[string]Mapping, mcpMgr *mcpmanager.Manager, local *toolregistry.Registry, mockMode bool) *Facade {
	return &Facade{
		mappings: mappings,
		mcp:      mcpMgr,
		local:    local,
		mockMode: mockMode,
		mocks:    defaultMockResponses(),
	}
}

// Execute runs toolName with args, per spec §4.5's three-step policy.
func (f *Facade) Execute(ctx context.Context, toolName string, args map[string]any) toolregistry.ToolResult {
	started := time.Now()

	if f.mockMode {
		return f.mockResult(toolName, started)
	}

	mapping, hasMapping := resolveMapping(f.mappings, toolName)
	if !hasMapping || f.mcp == nil || mapping.ServerID == "mock" {
		result := f.local.Execute(ctx, toolName, args)
		result.Via = "local"
		return result
	}

	result, err := f.mcp.CallTool(ctx, mapping.ServerID, mapping.ServerToolName, args)
	if err == nil {
		return mcpResultToToolResult(toolName, result, started)
	}

	// Only a transport-level failure triggers fallback. An
	// application-level failure (the tool ran and reported its own
	// error) must surface directly — spec §4.5 step 2.
	if apperror.Is(err, apperror.Transport) {
		fallback := f.local.Execute(ctx, toolName, args)
		fallback.Via = "local"
		return fallback
	}

	return toolregistry.Err(toolName, err, time.Since(started))
}

func mcpResultToToolResult(toolName string, result *mcp.CallToolResult, started time.Time) toolregistry.ToolResult {
	if result.IsError {
		return toolregistry.ToolResult{
			ToolName: toolName, Success: false, ErrorKind: string(apperror.Application),
			ErrorMessage: textFromContent(result), DurationMS: time.Since(started).Milliseconds(), Via: "mcp",
		}
	}
	return toolregistry.ToolResult{
		ToolName: toolName, Success: true, Result: result.Content,
		FormattedText: textFromContent(result), DurationMS: time.Since(started).Milliseconds(), Via: "mcp",
	}
}

func textFromContent(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	b, _ := json.Marshal(result.Content)
	return string(b)
}

// mockResult short-circuits to a deterministic stub response, per spec
// §4.5 step 3.
func (f *Facade) mockResult(toolName string, started time.Time) toolregistry.ToolResult {
	if r, ok := f.mocks[toolName]; ok {
		r.DurationMS = time.Since(started).Milliseconds()
		r.Via = "mock"
		return r
	}
	return toolregistry.ToolResult{
		ToolName: toolName, Success: true, Result: map[string]string{"status": "ok"},
		DurationMS: time.Since(started).Milliseconds(), Via: "mock",
	}
}

func defaultMockResponses() map[string]toolregistry.ToolResult {
	return map[string]toolregistry.ToolResult{
		"list_agenda_events": {ToolName: "list_agenda_events", Success: true, Result: []any{}},
	}
}
