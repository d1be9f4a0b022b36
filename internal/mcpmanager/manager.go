// Package mcpmanager implements the MCP Client Manager of spec §4.4: a
// pool of MCP clients — one per configured server, reachable over
// stdio, HTTP, or HTTP+SSE — with capacity eviction, once-semantics on
// concurrent initialisation, and a cooldown after a failed connect.
//
// This deliberately uses the mark3labs/mcp-go CLIENT half of the
// library the teacher depends on for its SERVER half: the teacher
// exposes tools over MCP, this assistant connects OUT to external
// calendar/mail MCP servers as a client.
package mcpmanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
)

// Transport identifies which of the three wire transports spec §4.4
// describes a server uses.
type Transport string

const (
	TransportStdio Transport = "stdio"
	TransportHTTP  Transport = "http"
	TransportSSE   Transport = "sse"
)

// ServerConfig describes one configured MCP server.
type ServerConfig struct {
	ID        string
	Transport Transport
	Command   string   // stdio
	Args      []string // stdio
	Env       []string // stdio
	BaseURL   string   // http / sse
}

// Client is the subset of an MCP client's surface the Manager needs —
// satisfied by mcp-go/client's StdioMCPClient/SSEMCPClient/
// StreamableHTTPClient, and by fakes in tests.
type Client interface {
	Initialize(ctx context.Context, req mcp.InitializeRequest) (*mcp.InitializeResult, error)
	ListTools(ctx context.Context, req mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// Dialer constructs a not-yet-initialised Client for a ServerConfig.
// Production code wires this to mcp-go/client constructors; tests wire
// it to a fake.
type Dialer func(ServerConfig) (Client, error)

// Config configures the Manager.
type Config struct {
	MaxPoolSize int
	IdleTimeout time.Duration
	Cooldown    time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = 10
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 10 * time.Minute
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	return c
}

type pooledClient struct {
	client   Client
	lastUsed time.Time
}

// Manager owns a pool of live MCP clients keyed by server id.
type Manager struct {
	cfg     Config
	dial    Dialer
	servers map[string]ServerConfig

	mu             sync.Mutex
	pool           map[string]*pooledClient
	unhealthyUntil map[string]time.Time

	initGroup singleflight.Group
}

// NewManager builds a Manager over the given server configs, using
// dial to create unconnected clients on demand.
func NewManager(cfg Config, servers []ServerConfig, dial Dialer) *Manager {
	byID := make(map[string]ServerConfig, len(servers))
	for _, s := range servers {
		byID[s.ID] = s
	}
	return &Manager{
		cfg:            cfg.withDefaults(),
		dial:           dial,
		servers:        byID,
		pool:           make(map[string]*pooledClient),
		unhealthyUntil: make(map[string]time.Time),
	}
}

// Get returns a live, initialised client for serverID, reusing a pooled
// connection when present. Concurrent callers for the same unconnected
// server coalesce into one initialisation (spec §4.4 once-semantics).
func (m *Manager) Get(ctx context.Context, serverID string) (Client, error) {
	m.mu.Lock()
	if until, unhealthy := m.unhealthyUntil[serverID]; unhealthy && time.Now().Before(until) {
		m.mu.Unlock()
		return nil, apperror.New(apperror.Transport, fmt.Sprintf("mcpmanager: server %q is in cooldown", serverID))
	}
	if pc, ok := m.pool[serverID]; ok {
		pc.lastUsed = time.Now()
		m.mu.Unlock()
		return pc.client, nil
	}
	m.mu.Unlock()

	result, err, _ := m.initGroup.Do(serverID, func() (any, error) {
		return m.connect(ctx, serverID)
	})
	if err != nil {
		return nil, err
	}
	return result.(Client), nil
}

func (m *Manager) connect(ctx context.Context, serverID string) (Client, error) {
	// Double-check under lock: another caller may have completed the
	// connection between the Get fast-path check and this singleflight
	// call running.
	m.mu.Lock()
	if pc, ok := m.pool[serverID]; ok {
		m.mu.Unlock()
		return pc.client, nil
	}
	m.mu.Unlock()

	cfg, ok := m.servers[serverID]
	if !ok {
		return nil, apperror.New(apperror.Config, fmt.Sprintf("mcpmanager: unknown server %q", serverID))
	}

	client, err := m.dial(cfg)
	if err != nil {
		m.markUnhealthy(serverID)
		return nil, apperror.Wrap(apperror.Transport, fmt.Sprintf("mcpmanager: dial server %q", serverID), err)
	}
	if _, err := client.Initialize(ctx, mcp.InitializeRequest{}); err != nil {
		_ = client.Close()
		m.markUnhealthy(serverID)
		return nil, apperror.Wrap(apperror.Transport, fmt.Sprintf("mcpmanager: initialize server %q", serverID), err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictIfAtCapacityLocked()
	m.pool[serverID] = &pooledClient{client: client, lastUsed: time.Now()}
	delete(m.unhealthyUntil, serverID)
	return client, nil
}

func (m *Manager) markUnhealthy(serverID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unhealthyUntil[serverID] = time.Now().Add(m.cfg.Cooldown)
}

// evictIfAtCapacityLocked closes and removes the least-recently-used
// pooled client when the pool is at max_pool_size. Caller holds m.mu.
func (m *Manager) evictIfAtCapacityLocked() {
	if len(m.pool) < m.cfg.MaxPoolSize {
		return
	}
	var oldestID string
	var oldestTime time.Time
	for id, pc := range m.pool {
		if oldestID == "" || pc.lastUsed.Before(oldestTime) {
			oldestID, oldestTime = id, pc.lastUsed
		}
	}
	if oldestID != "" {
		_ = m.pool[oldestID].client.Close()
		delete(m.pool, oldestID)
	}
}

// EvictIdle closes and removes every pooled client idle longer than
// IdleTimeout. The Manager runs no background sweep of its own: idle
// clients are closed only when a caller invokes this.
func (m *Manager) EvictIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	for id, pc := range m.pool {
		if now.Sub(pc.lastUsed) > m.cfg.IdleTimeout {
			_ = pc.client.Close()
			delete(m.pool, id)
		}
	}
}

// CallTool dispatches tools/call to the named server's tool, per spec §4.4.
func (m *Manager) CallTool(ctx context.Context, serverID, toolName string, args map[string]any) (*mcp.CallToolResult, error) {
	client, err := m.Get(ctx, serverID)
	if err != nil {
		return nil, err
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args

	result, err := client.CallTool(ctx, req)
	if err != nil {
		return nil, apperror.Wrap(apperror.Transport, fmt.Sprintf("mcpmanager: call %q on %q", toolName, serverID), err)
	}
	return result, nil
}

// ListTools returns the descriptors serverID's server advertises.
func (m *Manager) ListTools(ctx context.Context, serverID string) ([]mcp.Tool, error) {
	client, err := m.Get(ctx, serverID)
	if err != nil {
		return nil, err
	}
	result, err := client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, apperror.Wrap(apperror.Transport, fmt.Sprintf("mcpmanager: list tools on %q", serverID), err)
	}
	return result.Tools, nil
}

// Close closes every pooled client.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var firstErr error
	for id, pc := range m.pool {
		if err := pc.client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(m.pool, id)
	}
	return firstErr
}
