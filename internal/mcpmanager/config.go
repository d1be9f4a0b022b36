package mcpmanager

import (
	"encoding/json"
	"os"
)

// rawServerConfig matches the three JSON shapes
// original_source/app/mcp/config.py's load_mcp_servers accepts: a bare
// list, {"servers": [...]}, or the vite/desktop-style
// {"mcpServers": {name: {...}}} map.
type rawServerConfig struct {
	Name      string   `json:"name"`
	Transport string   `json:"transport"`
	Command   string   `json:"command,omitempty"`
	Args      []string `json:"args,omitempty"`
	Env       []string `json:"env,omitempty"`
	BaseURL   string   `json:"base_url,omitempty"`
}

type serverListDoc struct {
	Servers []rawServerConfig `json:"servers"`
}

type mcpServersMapDoc struct {
	McpServers map[string]rawServerConfig `json:"mcpServers"`
}

// LoadServerConfigs reads the tool-serving MCP server list from path.
// An empty path or a missing/malformed file yields an empty list — the
// Manager simply has no servers to dial, and the Facade falls back to
// the local registry for everything, matching load_mcp_servers's
// default-to-mock behaviour generalised to "default to no servers".
func LoadServerConfigs(path string) ([]ServerConfig, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var list []rawServerConfig
	if err := json.Unmarshal(data, &list); err == nil && len(list) > 0 {
		return toServerConfigs(list), nil
	}

	var withServers serverListDoc
	if err := json.Unmarshal(data, &withServers); err == nil && len(withServers.Servers) > 0 {
		return toServerConfigs(withServers.Servers), nil
	}

	var withMap mcpServersMapDoc
	if err := json.Unmarshal(data, &withMap); err == nil && len(withMap.McpServers) > 0 {
		list = make([]rawServerConfig, 0, len(withMap.McpServers))
		for name, raw := range withMap.McpServers {
			raw.Name = name
			list = append(list, raw)
		}
		return toServerConfigs(list), nil
	}

	return nil, nil
}

func toServerConfigs(raw []rawServerConfig) []ServerConfig {
	out := make([]ServerConfig, 0, len(raw))
	for _, r := range raw {
		out = append(out, ServerConfig{
			ID:        r.Name,
			Transport: Transport(r.Transport),
			Command:   r.Command,
			Args:      r.Args,
			Env:       r.Env,
			BaseURL:   r.BaseURL,
		})
	}
	return out
}
