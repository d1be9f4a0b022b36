package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
	"github.com/ivanintech/agentic-assistant/internal/humaniser"
	"github.com/ivanintech/agentic-assistant/internal/llmclient"
	"github.com/ivanintech/agentic-assistant/internal/retrieval"
	"github.com/ivanintech/agentic-assistant/internal/store"
	"github.com/ivanintech/agentic-assistant/internal/toolexec"
	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
)

// Config bounds the graph's tunables, sourced from internal/config.
type Config struct {
	Policy        PolicyConfig
	MaxIterations int
	RAGTopK       int
	MinSimilarity float64
	DevMode       bool
}

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 5
	}
	if c.RAGTopK <= 0 {
		c.RAGTopK = 6
	}
	return c
}

// Graph wires the already-built components behind the Orchestrator's
// single entry point.
type Graph struct {
	retrieval *retrieval.Service
	tools     *toolregistry.Registry
	exec      *toolexec.Facade
	llm       *llmclient.Client
	events    *store.Store
	cfg       Config
}

// New builds a Graph over the service container's already-wired
// dependencies.
func New(retrievalSvc *retrieval.Service, tools *toolregistry.Registry, exec *toolexec.Facade, llm *llmclient.Client, eventStore *store.Store, cfg Config) *Graph {
	return &Graph{retrieval: retrievalSvc, tools: tools, exec: exec, llm: llm, events: eventStore, cfg: cfg.withDefaults()}
}

// Run carries one request through every stage of spec §4.6, returning
// the terminal AgentState.
func (g *Graph) Run(ctx context.Context, query string, history []llmclient.Message, now time.Time) (*AgentState, error) {
	return g.RunWithProgress(ctx, query, history, now, nil)
}

// RunWithProgress is Run plus a ProgressFunc callers that need
// per-stage visibility (the voice session) can observe — the terminal
// AgentState alone does not expose RAG/iteration/tool timing as it
// happens, only after the fact.
func (g *Graph) RunWithProgress(ctx context.Context, query string, history []llmclient.Message, now time.Time, onProgress ProgressFunc) (*AgentState, error) {
	state := newState(query, history) // stage 1: entry

	if err := g.stageIntent(ctx, state); err != nil {
		return nil, err
	}
	if err := g.stageRAG(ctx, state, onProgress); err != nil {
		return nil, err
	}
	if err := g.stageConflictCheck(ctx, state, now); err != nil {
		return nil, err
	}
	if refused := g.stagePolicy(state, now); refused {
		g.stageResponse(state)
		return state, nil
	}
	if err := g.stageAgentPlanToolLoop(ctx, state, now, onProgress); err != nil {
		return nil, err
	}
	g.stageResponse(state)
	return state, nil
}

func (g *Graph) stageIntent(ctx context.Context, state *AgentState) error {
	started := time.Now()
	defer state.recordStage("intent", started)

	intent, agentCode, err := classify(ctx, g.llm, state.UserQuery)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "orchestrator: intent classification", err)
	}
	state.Intent = intent
	state.AgentCode = agentCode
	return nil
}

func (g *Graph) stageRAG(ctx context.Context, state *AgentState, onProgress ProgressFunc) error {
	started := time.Now()
	defer state.recordStage("rag", started)
	onProgress.emit(ProgressRAGStarted, nil)

	scored, err := g.retrieval.Retrieve(ctx, state.UserQuery, g.cfg.RAGTopK, g.cfg.MinSimilarity, "")
	if err != nil {
		return err
	}
	contextText, citations := retrieval.AssembleContext(scored)
	state.RAGContext = contextText
	state.Citations = citations
	onProgress.emit(ProgressRAGCompleted, map[string]any{"citations": len(citations)})
	return nil
}

func (g *Graph) stageConflictCheck(ctx context.Context, state *AgentState, now time.Time) error {
	started := time.Now()
	defer state.recordStage("conflict_check", started)

	if !isCalendaringIntent(state.Intent) {
		return nil
	}
	state.MentionedWindow = extractMentionedWindow(state.UserQuery, now)
	if state.MentionedWindow == nil {
		return nil
	}
	upcoming, err := g.events.UpcomingExtractedEvents(200)
	if err != nil {
		return err
	}
	state.ConflictingEvents = conflictsForWindow(upcoming, state.MentionedWindow)
	return nil
}

func isCalendaringIntent(intent Intent) bool {
	return intent == IntentCalendar || intent == IntentScheduling
}

// stagePolicy returns true when a hard rule refused the request, having
// already populated state.PolicyRefusal and state.Response with the
// refusal message.
func (g *Graph) stagePolicy(state *AgentState, now time.Time) bool {
	started := time.Now()
	defer state.recordStage("policy", started)

	refusal := evaluatePolicy(state, g.cfg.Policy, now)
	if refusal == "" {
		return false
	}
	state.PolicyRefusal = refusal
	state.Response = refusal
	return true
}

// stageAgentPlanToolLoop runs stages 6-8: specialist dispatch, the
// plan/tool reason-act loop (bounded by MAX_ITERATIONS), per spec §4.6.
func (g *Graph) stageAgentPlanToolLoop(ctx context.Context, state *AgentState, now time.Time, onProgress ProgressFunc) error {
	started := time.Now()
	defer state.recordStage("agent_plan_tool", started)

	specialistTools := g.tools.ForAgentCode(string(state.AgentCode))
	descriptors := toolDescriptors(specialistTools)
	onProgress.emit(ProgressToolsAvailable, map[string]any{"count": len(specialistTools)})

	state.ChatHistory = append([]llmclient.Message{g.systemPrompt(state, now)}, state.ChatHistory...)

	for state.IterationCount < g.cfg.MaxIterations {
		onProgress.emit(ProgressIterationStarted, map[string]any{"iteration": state.IterationCount})

		onProgress.emit(ProgressLLMReasoning, nil)
		resp, err := g.llm.Chat(ctx, state.ChatHistory, descriptors)
		if err != nil {
			return apperror.Wrap(apperror.Internal, "orchestrator: plan stage", err)
		}

		if len(resp.ToolCalls) == 0 {
			state.Response = resp.Content
			return nil
		}

		state.ToolPlan = resp.ToolCalls
		state.ChatHistory = append(state.ChatHistory, llmclient.Message{Role: llmclient.RoleAssistant, ToolCalls: resp.ToolCalls})

		results := g.dispatchTools(ctx, resp.ToolCalls, onProgress)
		state.ToolResults = append(state.ToolResults, results...)
		for i, call := range resp.ToolCalls {
			state.ChatHistory = append(state.ChatHistory, llmclient.Message{
				Role: llmclient.RoleTool, ToolCallID: call.ID, Name: call.Name,
				Content: formatToolResultForHistory(results[i]),
			})
		}

		state.IterationCount++
	}

	state.Truncated = true
	state.Response = "I've reached the limit of steps I can take on this request — here's what I found so far."
	return nil
}

// dispatchTools runs resp.ToolCalls concurrently — spec §4.6's "within
// stage 8, independent tool calls (same iteration_count) MAY be
// dispatched concurrently." Results preserve call order regardless of
// completion order.
func (g *Graph) dispatchTools(ctx context.Context, calls []llmclient.ToolCall, onProgress ProgressFunc) []toolregistry.ToolResult {
	results := make([]toolregistry.ToolResult, len(calls))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		group.Go(func() error {
			onProgress.emit(ProgressToolExecuting, map[string]any{"tool": call.Name})
			results[i] = g.exec.Execute(groupCtx, call.Name, call.Arguments)
			onProgress.emit(ProgressToolCompleted, map[string]any{"tool": call.Name, "success": results[i].Success})
			return nil
		})
	}
	_ = group.Wait() // exec.Execute never returns an error value, only failed ToolResults
	return results
}

func formatToolResultForHistory(r toolregistry.ToolResult) string {
	if !r.Success {
		return fmt.Sprintf("error (%s): %s", r.ErrorKind, r.ErrorMessage)
	}
	if r.FormattedText != "" {
		return r.FormattedText
	}
	return fmt.Sprintf("%v", r.Result)
}

// systemPrompt composes the capability brief, current time, rag context
// and dev-mode flag spec §4.6 step 6 requires.
func (g *Graph) systemPrompt(state *AgentState, now time.Time) llmclient.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a scheduling and communications assistant acting as agent %q.\n", state.AgentCode)
	fmt.Fprintf(&b, "Current time: %s\n", now.Format(time.RFC3339))
	if g.cfg.DevMode {
		b.WriteString("dev_mode: true\n")
	}
	if len(state.ConflictingEvents) > 0 {
		fmt.Fprintf(&b, "Note: %d existing event(s) overlap the time window mentioned by the user.\n", len(state.ConflictingEvents))
	}
	if state.RAGContext != "" {
		b.WriteString("Relevant context:\n")
		b.WriteString(state.RAGContext)
		b.WriteString("\n")
	}
	return llmclient.Message{Role: llmclient.RoleSystem, Content: b.String()}
}

func toolDescriptors(tools []toolregistry.Tool) []llmclient.ToolDescriptor {
	out := make([]llmclient.ToolDescriptor, 0, len(tools))
	for _, t := range tools {
		def := t.Definition()
		out = append(out, llmclient.ToolDescriptor{
			Name:        def.Name,
			Description: def.Description,
			Schema: map[string]any{
				"type":       def.InputSchema.Type,
				"properties": def.InputSchema.Properties,
				"required":   def.InputSchema.Required,
			},
		})
	}
	return out
}

// stageResponse post-processes the terminal text with the Humaniser —
// spec §4.6 step 9 / §4.12.
func (g *Graph) stageResponse(state *AgentState) {
	started := time.Now()
	defer state.recordStage("response", started)

	state.Response = humaniser.Humanise(state.Response, state.Citations, state.ToolResults)
}
