package toolexec

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
)

// LoadMappings reads the tool_name -> server.tool mapping table from a
// JSON file of the form {"tool_name": "server_id.server_tool_name"}.
// An empty path returns an empty table — the Facade falls back to the
// graceful-dispatch rules in resolveMapping.
func LoadMappings(path string) (map[string]Mapping, error) {
	if path == "" {
		return map[string]Mapping{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, apperror.Wrap(apperror.Config, "toolexec: read mapping file", err)
	}
	var flat map[string]string
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, apperror.Wrap(apperror.Config, "toolexec: parse mapping file", err)
	}
	out := make(map[string]Mapping, len(flat))
	for toolName, target := range flat {
		serverID, serverTool, ok := strings.Cut(target, ".")
		if !ok {
			return nil, apperror.New(apperror.Config, fmt.Sprintf("toolexec: mapping entry %q must be \"server_id.tool_name\"", toolName))
		}
		out[toolName] = Mapping{ServerID: serverID, ServerToolName: serverTool}
	}
	return out, nil
}

// resolveMapping implements the graceful-dispatch fallback of
// `original_source/app/mcp/adapters.py to_mcp_call`: an explicit mapping
// entry wins; absent that, try parsing toolName itself as
// "server_id.tool_name"; absent that, assume a server literally named
// "mock".
func resolveMapping(mappings map[string]Mapping, toolName string) (Mapping, bool) {
	if m, ok := mappings[toolName]; ok {
		return m, true
	}
	if serverID, serverTool, ok := strings.Cut(toolName, "."); ok {
		return Mapping{ServerID: serverID, ServerToolName: serverTool}, true
	}
	return Mapping{ServerID: "mock", ServerToolName: toolName}, true
}
