package voice

import "context"

// MockTranscriber returns a fixed transcript regardless of input audio,
// for STTBackend=mock and tests.
type MockTranscriber struct {
	Text string
	Err  error
}

func (m MockTranscriber) Transcribe(context.Context, []byte) (string, error) {
	return m.Text, m.Err
}

// MockTTSBackend streams Chunks then closes, for TTSBackend=mock and
// tests. A nil Chunks slice (and no Err) models a backend that never
// emits a first chunk, exercising the fallback policy.
type MockTTSBackend struct {
	Chunks [][]byte
	Err    error
}

func (m MockTTSBackend) Synthesize(ctx context.Context, text string) (<-chan []byte, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	ch := make(chan []byte, len(m.Chunks))
	for _, c := range m.Chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}
