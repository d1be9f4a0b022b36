package voice

import "context"

// ElevenLabsTTSBackend is the backend TTSBackend=elevenlabs selects. It does not call the ElevenLabs API: it encodes text as its
// own "audio" payload, a deliberate placeholder carried over from the
// same gap in the system this port is based on — wiring the real
// streaming TTS endpoint is future work, not something either side of
// the port has done yet. Session.speak's primary/fallback timeout
// policy means a session configured with this backend still completes
// normally, just with placeholder audio, rather than failing outright.
type ElevenLabsTTSBackend struct {
	APIKey  string
	VoiceID string
}

func (e ElevenLabsTTSBackend) Synthesize(ctx context.Context, text string) (<-chan []byte, error) {
	ch := make(chan []byte, 1)
	ch <- []byte(text)
	close(ch)
	return ch, nil
}
