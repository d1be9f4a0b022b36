package voice

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/llmclient"
	"github.com/ivanintech/agentic-assistant/internal/orchestrator"
)

// Transcriber turns raw audio into text. A mock implementation backs
// STTBackend=mock.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// AgentRunner is the subset of orchestrator.Graph a Session depends on.
type AgentRunner interface {
	RunWithProgress(ctx context.Context, query string, history []llmclient.Message, now time.Time, onProgress orchestrator.ProgressFunc) (*orchestrator.AgentState, error)
}

// progressEventNames maps the orchestrator's stage-progress events onto
// the session's own authoritative log-event names.
var progressEventNames = map[orchestrator.ProgressEvent]EventName{
	orchestrator.ProgressRAGStarted:       EventAgentRAGStarted,
	orchestrator.ProgressRAGCompleted:     EventAgentRAGCompleted,
	orchestrator.ProgressIterationStarted: EventAgentIterationStarted,
	orchestrator.ProgressToolsAvailable:   EventAgentToolsAvailable,
	orchestrator.ProgressLLMReasoning:     EventAgentLLMReasoning,
	orchestrator.ProgressToolExecuting:    EventAgentToolExecuting,
	orchestrator.ProgressToolCompleted:    EventAgentToolCompleted,
}

// TTSBackend streams synthesized PCM16 audio chunks for text. The
// channel is closed when synthesis completes or ctx is cancelled.
type TTSBackend interface {
	Synthesize(ctx context.Context, text string) (<-chan []byte, error)
}

// Config bounds a Session's tunables.
type Config struct {
	MinTranscriptionChars int           // default 3
	FillerWords           []string      // nil uses DefaultFillerWords
	FirstChunkTimeout     time.Duration // default 2s
	AllowBargeIn          bool
}

func (c Config) withDefaults() Config {
	if c.MinTranscriptionChars <= 0 {
		c.MinTranscriptionChars = 3
	}
	if c.FirstChunkTimeout <= 0 {
		c.FirstChunkTimeout = 2 * time.Second
	}
	return c
}

// Session is one full-duplex voice session's state machine, per spec
// §4.8. Exactly one request may be AGENT_RUNNING at a time.
type Session struct {
	cfg Config

	stt         Transcriber
	agent       AgentRunner
	ttsPrimary  TTSBackend
	ttsFallback TTSBackend
	filter      *NonsenseFilter

	out chan OutboundFrame

	mu       sync.Mutex
	state    State
	cancelFn context.CancelFunc
	history  []llmclient.Message
}

// New builds an idle Session wired to its collaborators. out is the
// channel the caller drains to deliver outbound frames to the client.
func New(stt Transcriber, agent AgentRunner, ttsPrimary, ttsFallback TTSBackend, cfg Config, out chan OutboundFrame) *Session {
	cfg = cfg.withDefaults()
	return &Session{
		cfg: cfg, stt: stt, agent: agent, ttsPrimary: ttsPrimary, ttsFallback: ttsFallback,
		filter: NewNonsenseFilter(cfg.FillerWords, cfg.MinTranscriptionChars),
		out:    out, state: StateIdle,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) emit(frame OutboundFrame) {
	frame.Timestamp = time.Now()
	s.out <- frame
}

func (s *Session) emitLog(name EventName, payload map[string]any) {
	s.emit(OutboundFrame{Type: "log_event", Event: newEvent(name, payload)})
}

// HandleFrame dispatches one inbound frame. Control frames (interrupt,
// cancel) are handled synchronously; content frames (text, audio) spawn
// the transcribe/agent/tts pipeline in the background.
func (s *Session) HandleFrame(ctx context.Context, frame InboundFrame) {
	switch frame.Type {
	case "interrupt":
		s.interrupt()
		return
	case "cancel":
		s.cancel(frame.Reason)
		return
	}

	s.mu.Lock()
	busy := s.state != StateIdle
	if busy && !s.cfg.AllowBargeIn {
		s.mu.Unlock()
		s.emitLog(EventBackendBusy, map[string]any{"reason": "agent_running"})
		return
	}
	if busy && s.cfg.AllowBargeIn {
		s.interruptLocked()
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelFn = cancel
	s.mu.Unlock()

	go s.process(runCtx, frame)
}

// interrupt cancels in-flight work and returns the session to IDLE
// immediately, per spec §4.8: "no partial response is committed to
// chat history."
func (s *Session) interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interruptLocked()
}

func (s *Session) interruptLocked() {
	if s.cancelFn != nil {
		s.cancelFn()
		s.cancelFn = nil
	}
	s.state = StateIdle
}

func (s *Session) cancel(reason string) {
	s.interrupt()
	s.emit(OutboundFrame{Type: "cancel", Reason: reason})
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// process runs the transcribe → filter → agent → tts pipeline for one
// content frame.
func (s *Session) process(ctx context.Context, frame InboundFrame) {
	text := frame.Text
	if frame.Mode == "audio" {
		s.setState(StateTranscribing)
		s.emitLog(EventSTTStarted, nil)
		transcribed, err := s.stt.Transcribe(ctx, decodeAudio(frame.AudioBase64))
		if err != nil {
			s.emit(OutboundFrame{Type: "error", Message: err.Error()})
			s.setState(StateIdle)
			return
		}
		text = transcribed
		s.emitLog(EventSTTCompleted, map[string]any{"text": text})
	}

	if s.filter.IsNonsense(text) {
		s.cancel("message_no_sense")
		return
	}

	s.runAgent(ctx, text)
}

func (s *Session) runAgent(ctx context.Context, text string) {
	s.setState(StateAgentRunning)
	s.emitLog(EventAgentProcessingStarted, map[string]any{"text": text})

	state, err := s.agent.RunWithProgress(ctx, text, s.history, time.Now(), func(event orchestrator.ProgressEvent, payload map[string]any) {
		if name, ok := progressEventNames[event]; ok {
			s.emitLog(name, payload)
		}
	})
	if ctx.Err() != nil {
		return // interrupted — no partial response committed
	}
	if err != nil {
		s.emitLog(EventAgentError, map[string]any{"error": err.Error()})
		s.emit(OutboundFrame{Type: "error", Message: err.Error()})
		s.setState(StateIdle)
		return
	}

	s.emitLog(EventAgentResponseReady, map[string]any{"response": state.Response})
	s.history = append(s.history,
		llmclient.Message{Role: llmclient.RoleUser, Content: text},
		llmclient.Message{Role: llmclient.RoleAssistant, Content: state.Response},
	)

	s.speak(ctx, state.Response)
}

// speak applies the primary/fallback TTS policy (spec §4.8): if no
// chunk arrives from the primary backend within FirstChunkTimeout, fall
// back to the secondary backend. No third backend is attempted.
func (s *Session) speak(ctx context.Context, text string) {
	s.setState(StateTTSStreaming)
	s.emitLog(EventTTSStarted, nil)
	defer s.setState(StateIdle)

	chunks, firstChunkArrived := s.streamWithTimeout(ctx, s.ttsPrimary, text)
	if !firstChunkArrived && s.ttsFallback != nil {
		s.emitLog(EventTTSError, map[string]any{"fallback_available": true})
		chunks, _ = s.streamWithTimeout(ctx, s.ttsFallback, text)
	}
	_ = chunks

	if ctx.Err() == nil {
		s.emitLog(EventTTSCompleted, nil)
		s.emit(OutboundFrame{Type: "complete"})
	}
}

// streamWithTimeout drains backend's synthesis channel into s.out,
// reporting whether at least one chunk arrived within
// FirstChunkTimeout.
func (s *Session) streamWithTimeout(ctx context.Context, backend TTSBackend, text string) (chunkCount int, firstChunkArrived bool) {
	if backend == nil {
		return 0, false
	}
	stream, err := backend.Synthesize(ctx, text)
	if err != nil {
		s.emitLog(EventTTSError, map[string]any{"error": err.Error()})
		return 0, false
	}

	timeout := time.NewTimer(s.cfg.FirstChunkTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-ctx.Done():
			return chunkCount, firstChunkArrived
		case <-timeout.C:
			if !firstChunkArrived {
				return chunkCount, false
			}
		case chunk, ok := <-stream:
			if !ok {
				return chunkCount, firstChunkArrived
			}
			if !firstChunkArrived {
				firstChunkArrived = true
				s.emitLog(EventTTSFirstChunkSent, nil)
			}
			chunkCount++
			s.emit(OutboundFrame{Type: "audio", PCM16: chunk})
		}
	}
}

// decodeAudio decodes the base64-encoded PCM16 payload a transport
// layer packs into InboundFrame.AudioBase64 when it base64-wraps a
// binary websocket frame for delivery to the session.
func decodeAudio(base64Audio string) []byte {
	raw, err := base64.StdEncoding.DecodeString(base64Audio)
	if err != nil {
		return nil
	}
	return raw
}
