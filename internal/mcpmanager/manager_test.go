package mcpmanager_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ivanintech/agentic-assistant/internal/mcpmanager"
)

// fakeClient is a test double satisfying mcpmanager.Client without any
// real process or network I/O.
type fakeClient struct {
	initCalls  atomic.Int64
	closeCalls atomic.Int64
	failInit   bool
}

func (f *fakeClient) Initialize(context.Context, mcp.InitializeRequest) (*mcp.InitializeResult, error) {
	f.initCalls.Add(1)
	if f.failInit {
		return nil, errFakeDial
	}
	return &mcp.InitializeResult{}, nil
}

func (f *fakeClient) ListTools(context.Context, mcp.ListToolsRequest) (*mcp.ListToolsResult, error) {
	return &mcp.ListToolsResult{}, nil
}

func (f *fakeClient) CallTool(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return &mcp.CallToolResult{}, nil
}

func (f *fakeClient) Close() error {
	f.closeCalls.Add(1)
	return nil
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

const errFakeDial = fakeErr("dial failed")

func TestGet_CoalescesConcurrentInitialisation(t *testing.T) {
	fc := &fakeClient{}
	var dialCalls atomic.Int64
	dial := func(mcpmanager.ServerConfig) (mcpmanager.Client, error) {
		dialCalls.Add(1)
		return fc, nil
	}

	mgr := mcpmanager.NewManager(mcpmanager.Config{}, []mcpmanager.ServerConfig{
		{ID: "calendar", Transport: mcpmanager.TransportStdio, Command: "mock"},
	}, dial)

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := mgr.Get(context.Background(), "calendar"); err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := dialCalls.Load(); got != 1 {
		t.Errorf("dial calls = %d, want 1 (concurrent callers must coalesce)", got)
	}
	if got := fc.initCalls.Load(); got != 1 {
		t.Errorf("Initialize calls = %d, want 1", got)
	}
}

func TestGet_UnknownServerIsConfigError(t *testing.T) {
	mgr := mcpmanager.NewManager(mcpmanager.Config{}, nil, mcpmanager.DefaultDialer)
	if _, err := mgr.Get(context.Background(), "nonexistent"); err == nil {
		t.Fatalf("Get: expected error for unknown server id")
	}
}

func TestGet_FailedInitTriggersCooldown(t *testing.T) {
	fc := &fakeClient{failInit: true}
	dial := func(mcpmanager.ServerConfig) (mcpmanager.Client, error) { return fc, nil }

	mgr := mcpmanager.NewManager(mcpmanager.Config{Cooldown: time.Hour}, []mcpmanager.ServerConfig{
		{ID: "flaky", Transport: mcpmanager.TransportStdio, Command: "mock"},
	}, dial)

	if _, err := mgr.Get(context.Background(), "flaky"); err == nil {
		t.Fatalf("Get: expected first init failure to surface")
	}
	if _, err := mgr.Get(context.Background(), "flaky"); err == nil {
		t.Fatalf("Get: expected second call during cooldown to fail without re-dialing")
	}
}

func TestEvictIdle_ClosesStaleClients(t *testing.T) {
	fc := &fakeClient{}
	dial := func(mcpmanager.ServerConfig) (mcpmanager.Client, error) { return fc, nil }

	mgr := mcpmanager.NewManager(mcpmanager.Config{IdleTimeout: time.Nanosecond}, []mcpmanager.ServerConfig{
		{ID: "calendar", Transport: mcpmanager.TransportStdio, Command: "mock"},
	}, dial)

	if _, err := mgr.Get(context.Background(), "calendar"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	time.Sleep(time.Millisecond)
	mgr.EvictIdle()

	if got := fc.closeCalls.Load(); got != 1 {
		t.Errorf("close calls = %d, want 1 after idle eviction", got)
	}
}
