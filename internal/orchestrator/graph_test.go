package orchestrator_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/embedding"
	"github.com/ivanintech/agentic-assistant/internal/llmclient"
	"github.com/ivanintech/agentic-assistant/internal/orchestrator"
	"github.com/ivanintech/agentic-assistant/internal/retrieval"
	"github.com/ivanintech/agentic-assistant/internal/store"
	"github.com/ivanintech/agentic-assistant/internal/toolexec"
	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
)

func newTestGraph(t *testing.T, provider llmclient.Provider) (*orchestrator.Graph, *store.Store) {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir(), EmbeddingDimension: 4})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	embeddings := embedding.NewService(&embedding.MockProvider{Dim: 4}, embedding.NewCache(0, 0))
	retrievalSvc := retrieval.NewService(embeddings, s)

	registry := toolregistry.NewRegistry()
	if err := registry.Register(toolregistry.NewListAgendaEventsTool(s)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	facade := toolexec.New(map[string]toolexec.Mapping{}, nil, registry, false)

	llm := llmclient.New(provider)
	graph := orchestrator.New(retrievalSvc, registry, facade, llm, s, orchestrator.Config{
		Policy: orchestrator.PolicyConfig{WorkingHourStart: 9, WorkingHourEnd: 19, MaxLookahead: 90 * 24 * time.Hour},
	})
	return graph, s
}

// finalTextProvider always answers with final text, never a tool call.
type finalTextProvider struct{ text string }

func (p finalTextProvider) Chat(_ context.Context, messages []llmclient.Message, tools []llmclient.ToolDescriptor) (llmclient.ChatResponse, error) {
	return llmclient.ChatResponse{Content: p.text}, nil
}

func TestRun_GeneralQueryProducesFinalResponseWithoutTools(t *testing.T) {
	graph, _ := newTestGraph(t, finalTextProvider{text: "Here's the weather."})
	state, err := graph.Run(context.Background(), "what's the weather like", nil, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Response == "" {
		t.Fatalf("Run: expected non-empty response")
	}
	if state.IterationCount != 0 {
		t.Errorf("Run: IterationCount = %d, want 0 (no tool calls issued)", state.IterationCount)
	}
}

// toolThenTextProvider issues one tool call on the first invocation, then
// returns final text once it observes a tool-result message in history.
type toolThenTextProvider struct{}

func (toolThenTextProvider) Chat(_ context.Context, messages []llmclient.Message, tools []llmclient.ToolDescriptor) (llmclient.ChatResponse, error) {
	for _, m := range messages {
		if m.Role == llmclient.RoleTool {
			return llmclient.ChatResponse{Content: "You have no events on your agenda."}, nil
		}
	}
	return llmclient.ChatResponse{ToolCalls: []llmclient.ToolCall{
		{ID: "call-1", Name: "list_agenda_events", Arguments: map[string]any{"limit": 5}},
	}}, nil
}

func TestRun_CalendarIntentDispatchesToolAndProducesResponse(t *testing.T) {
	graph, _ := newTestGraph(t, toolThenTextProvider{})
	state, err := graph.Run(context.Background(), "what's on my calendar today", nil, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.Intent != orchestrator.IntentCalendar {
		t.Errorf("Run: Intent = %q, want CALENDAR", state.Intent)
	}
	if state.IterationCount != 1 {
		t.Errorf("Run: IterationCount = %d, want 1", state.IterationCount)
	}
	if len(state.ToolResults) != 1 || state.ToolResults[0].ToolName != "list_agenda_events" {
		t.Fatalf("Run: ToolResults = %+v", state.ToolResults)
	}
	if !strings.Contains(state.Response, "no events") {
		t.Errorf("Run: Response = %q, want it to surface the tool's answer", state.Response)
	}
}

// alwaysToolProvider never stops requesting tool calls, forcing the loop
// to hit MAX_ITERATIONS.
type alwaysToolProvider struct{}

func (alwaysToolProvider) Chat(_ context.Context, messages []llmclient.Message, tools []llmclient.ToolDescriptor) (llmclient.ChatResponse, error) {
	return llmclient.ChatResponse{ToolCalls: []llmclient.ToolCall{
		{ID: "call-x", Name: "list_agenda_events", Arguments: map[string]any{}},
	}}, nil
}

func TestRun_TruncatesAtMaxIterations(t *testing.T) {
	graph, _ := newTestGraph(t, alwaysToolProvider{})
	state, err := graph.Run(context.Background(), "calendar please", nil, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !state.Truncated {
		t.Errorf("Run: Truncated = false, want true after exhausting MAX_ITERATIONS")
	}
	if state.IterationCount != 5 {
		t.Errorf("Run: IterationCount = %d, want 5 (default MAX_ITERATIONS)", state.IterationCount)
	}
}

func TestRun_DestructiveRequestWithoutConfirmationIsRefused(t *testing.T) {
	graph, _ := newTestGraph(t, finalTextProvider{text: "unused"})
	state, err := graph.Run(context.Background(), "cancel my 3pm meeting", nil, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.PolicyRefusal == "" {
		t.Fatalf("Run: expected a policy refusal for an unconfirmed destructive request")
	}
	if state.Response != state.PolicyRefusal {
		t.Errorf("Run: Response = %q, want it to equal the refusal message verbatim", state.Response)
	}
}

func TestRun_OutsideWorkingHoursWindowIsRefused(t *testing.T) {
	graph, _ := newTestGraph(t, finalTextProvider{text: "unused"})
	state, err := graph.Run(context.Background(), "schedule a meeting at 2099-01-05T23:00:00Z", nil, time.Now())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.PolicyRefusal == "" {
		t.Fatalf("Run: expected a policy refusal for a request outside working hours")
	}
}
