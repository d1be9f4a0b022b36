package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// OpenAIProvider speaks the OpenAI-compatible embeddings API directly
// over net/http, mirroring internal/llmclient.OpenAIProvider's
// hand-rolled-client grounding: no SDK in the examples pack wraps
// this endpoint either.
type OpenAIProvider struct {
	APIKey  string
	Model   string
	Dim     int
	BaseURL string // defaults to https://api.openai.com/v1
	HTTP    *http.Client
}

func NewOpenAIProvider(apiKey, model string, dim int) *OpenAIProvider {
	return &OpenAIProvider{
		APIKey: apiKey, Model: model, Dim: dim,
		BaseURL: "https://api.openai.com/v1",
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *OpenAIProvider) Dimension() int { return p.Dim }

type embeddingsRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed implements Provider.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingsRequest{Model: p.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("embedding: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedding: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedding: read response: %w", err)
	}

	var parsed embeddingsResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("embedding: decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("embedding: api error: %s", parsed.Error.Message)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embedding: empty data in response")
	}
	return parsed.Data[0].Embedding, nil
}
