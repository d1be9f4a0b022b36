// Package toolregistry implements the local Tool Registry of spec §4.3:
// calendar, email, messenger, Calendly and web tools exposed through the
// mcp-go tool-descriptor shape (the same library the teacher uses
// server-side), so the Orchestrator's function-calling layer (§4.6) and
// the MCP transport (§4.4) share one descriptor format.
package toolregistry

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
)

// ToolResult is the uniform envelope every tool execution path — local
// registry, MCP dispatch, or mock_mode — returns, per spec §3.
type ToolResult struct {
	ToolName      string `json:"tool_name"`
	Success       bool   `json:"success"`
	Result        any    `json:"result,omitempty"`
	FormattedText string `json:"formatted_text,omitempty"`
	ErrorKind     string `json:"error_kind,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
	DurationMS    int64  `json:"duration_ms"`
	Via           string `json:"via"` // mcp | local | mock
}

// Ok builds a successful ToolResult.
func Ok(toolName string, result any, formattedText string, duration time.Duration) ToolResult {
	return ToolResult{
		ToolName: toolName, Success: true, Result: result,
		FormattedText: formattedText, DurationMS: duration.Milliseconds(), Via: "local",
	}
}

// Err builds a failed ToolResult from a classified error.
func Err(toolName string, err error, duration time.Duration) ToolResult {
	kind, ok := apperror.Of(err)
	if !ok {
		kind = apperror.Internal
	}
	return ToolResult{
		ToolName: toolName, Success: false, ErrorKind: string(kind),
		ErrorMessage: err.Error(), DurationMS: duration.Milliseconds(), Via: "local",
	}
}

// Tool is a locally executable capability the Orchestrator can present
// to the LLM's function-calling layer.
type Tool interface {
	Name() string
	AgentCodes() []string // which specialist agent codes may use this tool
	Definition() mcp.Tool
	Execute(ctx context.Context, args map[string]any) ToolResult
}

// Registry holds the process's statically registered tools. Registration
// happens at composition-root time; the same name may never be
// registered twice (spec §4.3: "fail-fast").
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, returning a Config-kind error if its name is
// already taken.
func (r *Registry) Register(t Tool) error {
	if _, exists := r.tools[t.Name()]; exists {
		return apperror.New(apperror.Config, fmt.Sprintf("toolregistry: tool %q already registered", t.Name()))
	}
	r.tools[t.Name()] = t
	return nil
}

// Get returns the tool registered under name, if any.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// ForAgentCode returns the tools whose AgentCodes() includes code —
// the filtered set the Orchestrator's "agent" stage withholds from tools
// outside the specialist's scope (spec §4.6 step 6).
func (r *Registry) ForAgentCode(code string) []Tool {
	var out []Tool
	for _, t := range r.tools {
		for _, c := range t.AgentCodes() {
			if c == code {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

// List returns every registered tool, in no particular order — the
// registry listing spec §6's `GET /tools` surfaces.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, t)
	}
	return out
}

// Execute dispatches to a registered tool by name, wrapping panics-free
// error returns into the uniform ToolResult envelope.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) ToolResult {
	t, ok := r.tools[name]
	if !ok {
		return ToolResult{
			ToolName: name, Success: false, ErrorKind: string(apperror.Application),
			ErrorMessage: fmt.Sprintf("unknown tool %q", name), Via: "local",
		}
	}
	return t.Execute(ctx, args)
}
