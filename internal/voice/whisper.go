package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// WhisperSTTBackend speaks the OpenAI-compatible audio/transcriptions
// endpoint directly over net/http, the same hand-rolled-client pattern
// llmclient's OpenAI/Anthropic providers use — no SDK in the pack wraps
// this API either. Provider selects which of the two compatible
// endpoints (Groq or OpenAI proper) receives the request; an unknown
// provider degrades to a fixed placeholder rather than failing the
// session.
type WhisperSTTBackend struct {
	Provider string // "groq" | "openai"

	GroqAPIKey string
	GroqModel  string

	OpenAIAPIKey string
	OpenAIModel  string

	HTTP *http.Client
}

func NewWhisperSTTBackend(provider, groqKey, groqModel, openaiKey, openaiModel string) *WhisperSTTBackend {
	return &WhisperSTTBackend{
		Provider: provider, GroqAPIKey: groqKey, GroqModel: groqModel,
		OpenAIAPIKey: openaiKey, OpenAIModel: openaiModel,
		HTTP: &http.Client{Timeout: 60 * time.Second},
	}
}

type whisperTranscriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe posts audio as a multipart/form-data "file" field and
// returns the text field of the JSON response. Empty audio returns an
// empty transcript, and an unrecognised provider or a missing API key
// returns a fixed placeholder, rather than an error — the pipeline's
// nonsense filter is the right place to drop a near-empty transcript,
// not this backend.
func (w *WhisperSTTBackend) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}

	url, apiKey, model, ok := w.endpoint()
	if !ok {
		return "Transcripción (mock STT).", nil
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: build multipart body: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("whisper: write audio field: %w", err)
	}
	if err := writer.WriteField("model", model); err != nil {
		return "", fmt.Errorf("whisper: write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("whisper: build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := w.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: api error %d: %s", resp.StatusCode, string(raw))
	}

	var parsed whisperTranscriptionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("whisper: decode response: %w", err)
	}
	return parsed.Text, nil
}

func (w *WhisperSTTBackend) endpoint() (url, apiKey, model string, ok bool) {
	switch w.Provider {
	case "groq":
		if w.GroqAPIKey == "" {
			return "", "", "", false
		}
		return "https://api.groq.com/openai/v1/audio/transcriptions", w.GroqAPIKey, w.GroqModel, true
	case "openai":
		if w.OpenAIAPIKey == "" {
			return "", "", "", false
		}
		return "https://api.openai.com/v1/audio/transcriptions", w.OpenAIAPIKey, w.OpenAIModel, true
	default:
		return "", "", "", false
	}
}
