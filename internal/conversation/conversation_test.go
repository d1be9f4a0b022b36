package conversation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/conversation"
	"github.com/ivanintech/agentic-assistant/internal/llmclient"
	"github.com/ivanintech/agentic-assistant/internal/orchestrator"
	"github.com/ivanintech/agentic-assistant/internal/store"
)

type fakeAgent struct {
	mu       sync.Mutex
	response string
	calls    int
	lastHist []llmclient.Message
	done     chan struct{}
}

func (f *fakeAgent) Run(ctx context.Context, query string, history []llmclient.Message, now time.Time) (*orchestrator.AgentState, error) {
	f.mu.Lock()
	f.calls++
	f.lastHist = history
	f.mu.Unlock()
	if f.done != nil {
		defer close(f.done)
	}
	return &orchestrator.AgentState{Response: f.response}, nil
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMessenger) Send(ctx context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, body)
	return nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir(), EmbeddingDimension: 4})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIngest_DuplicateDeliveryIsSilentNoOp(t *testing.T) {
	s := newTestStore(t)
	agent := &fakeAgent{response: "ok", done: make(chan struct{})}
	p := conversation.New(s, agent, &fakeMessenger{}, 0)

	msg := conversation.NewInboundMessage("sid-1", "conv-1", "+1", "+2", "hello", time.Now())

	inserted, err := p.Ingest(context.Background(), msg)
	if err != nil || !inserted {
		t.Fatalf("Ingest: inserted=%v err=%v, want true/nil", inserted, err)
	}
	<-agent.done // wait for the async orchestrator invocation to run

	inserted, err = p.Ingest(context.Background(), msg)
	if err != nil || inserted {
		t.Fatalf("Ingest (duplicate): inserted=%v err=%v, want false/nil", inserted, err)
	}

	agent.mu.Lock()
	calls := agent.calls
	agent.mu.Unlock()
	if calls != 1 {
		t.Errorf("Ingest: agent invoked %d times, want 1 (duplicate must not dispatch again)", calls)
	}
}

func TestIngest_RepliesViaMessengerWithAgentResponse(t *testing.T) {
	s := newTestStore(t)
	agent := &fakeAgent{response: "your meeting is at 3pm", done: make(chan struct{})}
	messenger := &fakeMessenger{}
	p := conversation.New(s, agent, messenger, 0)

	msg := conversation.NewInboundMessage("sid-2", "conv-2", "+1", "+2", "when's my meeting", time.Now())
	if _, err := p.Ingest(context.Background(), msg); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	<-agent.done

	messenger.mu.Lock()
	defer messenger.mu.Unlock()
	if len(messenger.sent) != 1 || messenger.sent[0] != "your meeting is at 3pm" {
		t.Errorf("Ingest: messenger.sent = %v, want [\"your meeting is at 3pm\"]", messenger.sent)
	}
}

func TestReprocessConversation_ConsumesMultipleMessagesIntoOneRun(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, body := range []string{"let's meet", "how about Tuesday", "3pm works"} {
		msg := conversation.NewInboundMessage("", "conv-3", "+1", "+2", body, base.Add(time.Duration(i)*time.Minute))
		if _, err := s.InsertMessageIdempotent(msg); err != nil {
			t.Fatalf("InsertMessageIdempotent: %v", err)
		}
	}

	agent := &fakeAgent{response: "scheduled for Tuesday at 3pm"}
	p := conversation.New(s, agent, &fakeMessenger{}, 0)

	if err := p.ReprocessConversation(context.Background(), "conv-3"); err != nil {
		t.Fatalf("ReprocessConversation: %v", err)
	}

	agent.mu.Lock()
	defer agent.mu.Unlock()
	if agent.calls != 1 {
		t.Fatalf("ReprocessConversation: agent invoked %d times, want 1", agent.calls)
	}
	if len(agent.lastHist) != 2 {
		t.Errorf("ReprocessConversation: history length = %d, want 2 (all but the latest message)", len(agent.lastHist))
	}

	remaining, err := s.UnprocessedMessages("conv-3")
	if err != nil {
		t.Fatalf("UnprocessedMessages: %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("ReprocessConversation: %d messages still unprocessed, want 0", len(remaining))
	}
}
