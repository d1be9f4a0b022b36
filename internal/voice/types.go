// Package voice implements the Voice Session of spec §4.8: a
// full-duplex session over a binary-framed bidirectional channel, with
// its own IDLE/TRANSCRIBING/AGENT_RUNNING/TTS_STREAMING state machine,
// a pre-dispatch nonsense filter, and a primary/fallback TTS policy.
//
// Grounded on RedClaus-cortex's stt.STTFilter (filler-word filtering)
// and bridge.StreamingOrchestrator (interrupt/cancel propagation,
// session-scoped streaming state), generalised from that repo's
// Wails-desktop event bus to this spec's client/server frame protocol.
package voice

import "time"

// State is one of the four session states spec §4.8 names.
type State string

const (
	StateIdle         State = "IDLE"
	StateTranscribing State = "TRANSCRIBING"
	StateAgentRunning State = "AGENT_RUNNING"
	StateTTSStreaming State = "TTS_STREAMING"
)

// InboundFrame is one client → server frame. Exactly one of the
// concrete fields applies, selected by Mode/Type.
type InboundFrame struct {
	Mode        string // "text" | "audio", set on content frames
	Type        string // "interrupt" | "cancel", set on control frames
	Text        string
	AudioBase64 string
	Reason      string // set on a cancel frame
}

// OutboundFrame is one server → client frame. "cancel" mirrors the
// inbound control frame so the client can distinguish a server-issued
// cancellation (e.g. the nonsense filter) from a log event.
type OutboundFrame struct {
	Type      string // "log_event" | "audio" | "complete" | "error" | "cancel"
	Event     LogEvent
	PCM16     []byte
	Message   string
	Reason    string // set on a cancel frame
	Timestamp time.Time
}

// LogEvent is the authoritative, typed event the session emits as it
// progresses, per spec §4.8's required log event set.
type LogEvent struct {
	Name      EventName
	Payload   map[string]any
	Timestamp time.Time
}

// EventName enumerates the authoritative 19-event log-event set spec
// §4.8 names. No other event name may be emitted.
type EventName string

const (
	EventBackendReady           EventName = "backend_ready"
	EventSTTStarted             EventName = "stt_started"
	EventSTTCompleted           EventName = "stt_completed"
	EventAgentProcessingStarted EventName = "agent_processing_started"
	EventAgentRAGStarted        EventName = "agent_rag_started"
	EventAgentRAGCompleted      EventName = "agent_rag_completed"
	EventAgentIterationStarted  EventName = "agent_iteration_started"
	EventAgentToolsAvailable    EventName = "agent_tools_available"
	EventAgentLLMReasoning      EventName = "agent_llm_reasoning"
	EventAgentToolExecuting     EventName = "agent_tool_executing"
	EventAgentToolCompleted     EventName = "agent_tool_completed"
	EventAgentResponseReady     EventName = "agent_response_ready"
	EventTTSStarted             EventName = "tts_started"
	EventTTSFirstChunkSent      EventName = "tts_first_chunk_sent"
	EventTTSCompleted           EventName = "tts_completed"
	EventTTSError               EventName = "tts_error"
	EventAgentError             EventName = "agent_error"
	EventBackendBusy            EventName = "backend_busy"
	EventClientDisconnected     EventName = "client_disconnected"
)

func newEvent(name EventName, payload map[string]any) LogEvent {
	return LogEvent{Name: name, Payload: payload, Timestamp: time.Now()}
}
