package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/ivanintech/agentic-assistant/internal/voice"
)

const maxVoiceFrameBytes = 8 << 20

// wireInboundFrame is the JSON shape a client sends over the /voice
// websocket: either a content frame ({mode, text|audio_base64}) or a
// control frame ({type: interrupt|cancel, reason?}).
type wireInboundFrame struct {
	Mode        string `json:"mode,omitempty"`
	Type        string `json:"type,omitempty"`
	Text        string `json:"text,omitempty"`
	AudioBase64 string `json:"audio_base64,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

type wireLogFrame struct {
	Type      string         `json:"type"`
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	Timestamp string         `json:"timestamp"`
}

type wireControlFrame struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// handleVoice upgrades to a websocket and pumps frames through a fresh
// voice.Session for the connection's lifetime. Text control/content
// frames travel as JSON text frames; audio travels as raw binary
// frames — the same split
// `original_source/app/api/ws.py`'s voice_stream handler uses
// (`ws.send_text` for logs/control, `ws.send_bytes` for PCM16 chunks).
func (s *server) handleVoice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("voice websocket upgrade failed")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxVoiceFrameBytes)

	out := make(chan voice.OutboundFrame, 16)
	sess := voice.New(s.deps.STT, s.deps.Agent, s.deps.TTSPrimary, s.deps.TTSFallback, s.deps.VoiceConfig, out)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	done := make(chan struct{})
	go s.pumpOutbound(ctx, conn, out, done)

	_ = conn.WriteJSON(wireLogFrame{
		Type: "log", Event: string(voice.EventBackendReady),
		Data: map[string]any{"sample_rate_hz": voicePCMSampleRateHz},
	})

	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		var frame wireInboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			continue
		}
		sess.HandleFrame(ctx, toInboundFrame(frame))
	}

	cancel()
	<-done
	_ = conn.WriteJSON(wireLogFrame{Type: "log", Event: string(voice.EventClientDisconnected)})
}

// voicePCMSampleRateHz is the PCM16 sample rate the session's audio
// frames use, declared to the client in backend_ready per spec §6.
const voicePCMSampleRateHz = 16000

func toInboundFrame(w wireInboundFrame) voice.InboundFrame {
	return voice.InboundFrame{
		Mode: w.Mode, Type: w.Type, Text: w.Text,
		AudioBase64: w.AudioBase64, Reason: w.Reason,
	}
}

// pumpOutbound drains a Session's outbound channel onto the websocket
// connection until ctx is cancelled or the connection errors,
// translating OutboundFrame into the wire protocol: log events and
// control frames as JSON text, PCM16 chunks as binary. It selects on
// ctx rather than ranging over out alone, so an idle session (nothing
// ever sent on out) still returns promptly when the read loop ends —
// out is never closed, since session goroutines may still be writing
// to it after the connection itself goes away.
func (s *server) pumpOutbound(ctx context.Context, conn *websocket.Conn, out <-chan voice.OutboundFrame, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-out:
			var err error
			switch frame.Type {
			case "log_event":
				err = conn.WriteJSON(wireLogFrame{
					Type: "log", Event: string(frame.Event.Name), Data: frame.Event.Payload,
					Timestamp: frame.Timestamp.Format("2006-01-02T15:04:05.000Z"),
				})
			case "audio":
				err = conn.WriteMessage(websocket.BinaryMessage, frame.PCM16)
			case "complete", "error", "cancel":
				err = conn.WriteJSON(wireControlFrame{Type: frame.Type, Message: frame.Message, Reason: frame.Reason})
			}
			if err != nil {
				return
			}
		}
	}
}
