// Package orchestrator implements the Orchestrator Graph of spec §4.6: a
// directed, mostly-acyclic stage graph carrying one AgentState per
// request through entry → intent → rag → conflict_check → policy →
// agent → plan → tool → response → end, with a bounded loop across the
// agent/plan/tool segment.
package orchestrator

import (
	"time"

	"github.com/ivanintech/agentic-assistant/internal/llmclient"
	"github.com/ivanintech/agentic-assistant/internal/store"
	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
)

// Intent is one of the five classification buckets spec §4.6 step 2 names.
type Intent string

const (
	IntentCalendar   Intent = "CALENDAR"
	IntentEmail      Intent = "EMAIL"
	IntentScheduling Intent = "SCHEDULING"
	IntentComms      Intent = "COMMS"
	IntentGeneral    Intent = "GENERAL"
)

// AgentCode is the specialist tool-set selector mapped from Intent.
type AgentCode string

const (
	AgentCAL   AgentCode = "CAL"
	AgentEmail AgentCode = "EMAIL"
	AgentSched AgentCode = "SCHED"
	AgentComms AgentCode = "COMMS"
	AgentGen   AgentCode = "GEN"
)

var intentToAgentCode = map[Intent]AgentCode{
	IntentCalendar:   AgentCAL,
	IntentEmail:      AgentEmail,
	IntentScheduling: AgentSched,
	IntentComms:      AgentComms,
	IntentGeneral:    AgentGen,
}

// TimeWindow is a time range mentioned in the user's query, extracted
// during the conflict_check stage.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// AgentState is the transient, per-request value the graph mutates as it
// flows forward (spec §3's AgentState entity). Never shared across
// requests; stages read and replace fields, never mutate after handing
// state to the next stage.
type AgentState struct {
	UserQuery      string
	ChatHistory    []llmclient.Message
	Intent         Intent
	AgentCode      AgentCode
	RAGContext     string
	Citations      []string
	MentionedWindow *TimeWindow
	ConflictingEvents []store.ExtractedEvent
	PolicyRefusal  string
	ToolPlan       []llmclient.ToolCall
	ToolResults    []toolregistry.ToolResult
	Response       string
	IterationCount int
	Truncated      bool
	StageTimings   map[string]time.Duration
}

func newState(query string, history []llmclient.Message) *AgentState {
	return &AgentState{
		UserQuery:    query,
		ChatHistory:  append(append([]llmclient.Message{}, history...), llmclient.Message{Role: llmclient.RoleUser, Content: query}),
		StageTimings: make(map[string]time.Duration),
	}
}

func (s *AgentState) recordStage(name string, started time.Time) {
	s.StageTimings[name] = time.Since(started)
}
