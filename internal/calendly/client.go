// Package calendly implements toolregistry.CalendlyClient against the
// Calendly REST API v2, grounded on
// original_source/app/agents/tools/calendly_list_tool.py and
// calendly_create_tool.py's bearer-token httpx calls.
package calendly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/toolregistry"
)

type Client struct {
	AccessToken string
	UserURI     string // Calendly user resource URI, required for listing scheduled events
	BaseURL     string // defaults to https://api.calendly.com
	HTTP        *http.Client
}

func NewClient(accessToken, userURI string) *Client {
	return &Client{
		AccessToken: accessToken, UserURI: userURI,
		BaseURL: "https://api.calendly.com",
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type scheduledEventsResponse struct {
	Collection []struct {
		URI       string `json:"uri"`
		Name      string `json:"name"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Status    string `json:"status"`
	} `json:"collection"`
}

// ListEvents implements toolregistry.CalendlyClient.
func (c *Client) ListEvents(ctx context.Context) ([]toolregistry.CalendlyEvent, error) {
	url := fmt.Sprintf("%s/scheduled_events?user=%s&sort=start_time:asc", c.BaseURL, c.UserURI)
	body, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	var parsed scheduledEventsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("calendly: decode list response: %w", err)
	}

	out := make([]toolregistry.CalendlyEvent, 0, len(parsed.Collection))
	for _, e := range parsed.Collection {
		start, _ := time.Parse(time.RFC3339, e.StartTime)
		end, _ := time.Parse(time.RFC3339, e.EndTime)
		out = append(out, toolregistry.CalendlyEvent{
			ID: e.URI, Name: e.Name, StartAt: start, EndAt: end, Status: e.Status,
		})
	}
	return out, nil
}

type inviteeCreateRequest struct {
	EventType string              `json:"event_type"`
	StartTime string              `json:"start_time,omitempty"`
	EndTime   string              `json:"end_time,omitempty"`
	Invitees  []map[string]string `json:"invitees"`
}

type inviteeCreateResponse struct {
	Resource struct {
		URI  string `json:"uri"`
		Name string `json:"name"`
	} `json:"resource"`
}

// CreateEvent implements toolregistry.CalendlyClient. Calendly's public
// API schedules events through invitee booking rather than a direct
// create call; name is sent both as the event type being booked and as
// the invitee's display name.
func (c *Client) CreateEvent(ctx context.Context, name string, start, end time.Time) (toolregistry.CalendlyEvent, error) {
	req := inviteeCreateRequest{
		EventType: name,
		StartTime: start.Format(time.RFC3339),
		EndTime:   end.Format(time.RFC3339),
		Invitees:  []map[string]string{{"name": name}},
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return toolregistry.CalendlyEvent{}, fmt.Errorf("calendly: marshal request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, c.BaseURL+"/scheduled_events", payload)
	if err != nil {
		return toolregistry.CalendlyEvent{}, err
	}
	var parsed inviteeCreateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return toolregistry.CalendlyEvent{}, fmt.Errorf("calendly: decode create response: %w", err)
	}
	return toolregistry.CalendlyEvent{
		ID: parsed.Resource.URI, Name: parsed.Resource.Name, StartAt: start, EndAt: end, Status: "active",
	}, nil
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("calendly: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendly: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("calendly: %s: %s", resp.Status, string(respBody))
	}
	return respBody, nil
}
