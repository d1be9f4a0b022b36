package voice_test

import (
	"context"
	"testing"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/llmclient"
	"github.com/ivanintech/agentic-assistant/internal/orchestrator"
	"github.com/ivanintech/agentic-assistant/internal/voice"
)

// fakeAgent lets tests control the agent's response and optionally
// block until released, to exercise interrupt handling.
type fakeAgent struct {
	response string
	release  chan struct{} // if non-nil, Run blocks until closed or ctx cancelled
}

func (f fakeAgent) RunWithProgress(ctx context.Context, query string, history []llmclient.Message, now time.Time, onProgress orchestrator.ProgressFunc) (*orchestrator.AgentState, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return &orchestrator.AgentState{Response: f.response}, nil
}

func drain(t *testing.T, out chan voice.OutboundFrame, timeout time.Duration) []voice.OutboundFrame {
	t.Helper()
	var frames []voice.OutboundFrame
	deadline := time.After(timeout)
	for {
		select {
		case f := <-out:
			frames = append(frames, f)
			if f.Type == "complete" || f.Type == "cancel" || f.Type == "error" {
				return frames
			}
		case <-deadline:
			return frames
		}
	}
}

func TestHandleFrame_NonsenseTranscriptCancelsWithoutDispatchingAgent(t *testing.T) {
	out := make(chan voice.OutboundFrame, 32)
	agent := fakeAgent{response: "should never be returned"}
	s := voice.New(voice.MockTranscriber{}, agent, voice.MockTTSBackend{}, nil, voice.Config{}, out)

	s.HandleFrame(context.Background(), voice.InboundFrame{Mode: "text", Text: "um"})

	frames := drain(t, out, time.Second)
	if len(frames) == 0 || frames[len(frames)-1].Type != "cancel" {
		t.Fatalf("HandleFrame: frames = %+v, want a trailing cancel frame", frames)
	}
	if frames[len(frames)-1].Reason != "message_no_sense" {
		t.Errorf("HandleFrame: cancel reason = %q, want message_no_sense", frames[len(frames)-1].Reason)
	}
	if s.State() != voice.StateIdle {
		t.Errorf("HandleFrame: State() = %q, want IDLE", s.State())
	}
}

func TestHandleFrame_TextFlowsThroughAgentAndTTSToCompletion(t *testing.T) {
	out := make(chan voice.OutboundFrame, 32)
	agent := fakeAgent{response: "here is your answer"}
	tts := voice.MockTTSBackend{Chunks: [][]byte{[]byte("chunk1"), []byte("chunk2")}}
	s := voice.New(voice.MockTranscriber{}, agent, tts, nil, voice.Config{}, out)

	s.HandleFrame(context.Background(), voice.InboundFrame{Mode: "text", Text: "what's on my agenda today"})

	frames := drain(t, out, time.Second)
	if len(frames) == 0 || frames[len(frames)-1].Type != "complete" {
		t.Fatalf("HandleFrame: frames = %+v, want a trailing complete frame", frames)
	}
	var audioCount int
	for _, f := range frames {
		if f.Type == "audio" {
			audioCount++
		}
	}
	if audioCount != 2 {
		t.Errorf("HandleFrame: audioCount = %d, want 2", audioCount)
	}
	if s.State() != voice.StateIdle {
		t.Errorf("HandleFrame: State() = %q, want IDLE after completion", s.State())
	}
}

func TestHandleFrame_BusyWithoutBargeInRejectsNewRequest(t *testing.T) {
	out := make(chan voice.OutboundFrame, 32)
	release := make(chan struct{})
	agent := fakeAgent{response: "slow", release: release}
	s := voice.New(voice.MockTranscriber{}, agent, voice.MockTTSBackend{}, nil, voice.Config{}, out)

	s.HandleFrame(context.Background(), voice.InboundFrame{Mode: "text", Text: "first request"})
	time.Sleep(20 * time.Millisecond) // let it reach AGENT_RUNNING
	s.HandleFrame(context.Background(), voice.InboundFrame{Mode: "text", Text: "second request"})

	close(release)
	frames := drain(t, out, time.Second)

	var sawBusy bool
	for _, f := range frames {
		if f.Type == "log_event" && f.Event.Name == voice.EventBackendBusy {
			sawBusy = true
		}
	}
	if !sawBusy {
		t.Errorf("HandleFrame: frames = %+v, want a backend_busy log event for the second request", frames)
	}
}

func TestHandleFrame_InterruptDuringAgentRunAbandonsWithoutResponse(t *testing.T) {
	out := make(chan voice.OutboundFrame, 32)
	release := make(chan struct{}) // never closed — agent blocks until ctx cancellation
	agent := fakeAgent{response: "should not be committed", release: release}
	s := voice.New(voice.MockTranscriber{}, agent, voice.MockTTSBackend{}, nil, voice.Config{}, out)

	s.HandleFrame(context.Background(), voice.InboundFrame{Mode: "text", Text: "a long running request"})
	time.Sleep(20 * time.Millisecond)
	s.HandleFrame(context.Background(), voice.InboundFrame{Type: "interrupt"})

	time.Sleep(20 * time.Millisecond)
	if s.State() != voice.StateIdle {
		t.Errorf("HandleFrame: State() = %q, want IDLE immediately after interrupt", s.State())
	}
}

func TestNonsenseFilter_RejectsTooShortAndFillerOnly(t *testing.T) {
	f := voice.NewNonsenseFilter(nil, 3)
	cases := []struct {
		text      string
		wantNonse bool
	}{
		{"hi", true},
		{"um uh", true},
		{"what time is my meeting", false},
	}
	for _, c := range cases {
		if got := f.IsNonsense(c.text); got != c.wantNonse {
			t.Errorf("IsNonsense(%q) = %v, want %v", c.text, got, c.wantNonse)
		}
	}
}
