package mcpmanager

import (
	"fmt"

	"github.com/mark3labs/mcp-go/client"
)

// mcp-go/client's concrete client types already satisfy the Client
// interface structurally, so DefaultDialer returns them directly; keeping
// an explicit Dialer here means production wiring lives in one place.

// DefaultDialer builds a real mcp-go client for cfg's transport.
func DefaultDialer(cfg ServerConfig) (Client, error) {
	switch cfg.Transport {
	case TransportStdio:
		c, err := client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
		if err != nil {
			return nil, err
		}
		return c, nil
	case TransportHTTP:
		c, err := client.NewStreamableHttpClient(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	case TransportSSE:
		c, err := client.NewSSEMCPClient(cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("mcpmanager: unsupported transport %q", cfg.Transport)
	}
}
