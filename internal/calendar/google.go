// Package calendar implements toolregistry.CalendarProvider against the
// Google Calendar API v3, grounded on
// original_source/app/agents/tools/calendar_tool.py's service-account
// flow: a bearer-token REST call to calendars/primary/events with
// conferenceDataVersion=1 so Google Calendar mints a Meet link.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// GoogleClient talks to the Calendar API with a long-lived OAuth access
// token (refreshed out-of-band, mirroring the service-account token the
// Python tool loads from disk rather than performing the OAuth dance
// itself).
type GoogleClient struct {
	AccessToken string
	CalendarID  string // defaults to "primary"
	BaseURL     string // defaults to https://www.googleapis.com/calendar/v3
	HTTP        *http.Client
}

func NewGoogleClient(accessToken, calendarID string) *GoogleClient {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleClient{
		AccessToken: accessToken, CalendarID: calendarID,
		BaseURL: "https://www.googleapis.com/calendar/v3",
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone,omitempty"`
}

type conferenceRequest struct {
	CreateRequest struct {
		RequestID       string `json:"requestId"`
		ConferenceSolutionKey struct {
			Type string `json:"type"`
		} `json:"conferenceSolutionKey"`
	} `json:"createRequest"`
}

type attendee struct {
	Email string `json:"email"`
}

type createEventRequest struct {
	Summary      string             `json:"summary"`
	Description  string             `json:"description,omitempty"`
	Location     string             `json:"location,omitempty"`
	Start        eventTime          `json:"start"`
	End          eventTime          `json:"end"`
	Attendees    []attendee         `json:"attendees,omitempty"`
	ConferenceData *conferenceRequest `json:"conferenceData,omitempty"`
}

type createEventResponse struct {
	ID string `json:"id"`
}

// CreateEvent implements toolregistry.CalendarProvider.
func (c *GoogleClient) CreateEvent(ctx context.Context, title string, start, end time.Time, attendees []string, location, description string) (string, error) {
	req := createEventRequest{
		Summary: title, Description: description, Location: location,
		Start: eventTime{DateTime: start.Format(time.RFC3339), TimeZone: start.Location().String()},
		End:   eventTime{DateTime: end.Format(time.RFC3339), TimeZone: end.Location().String()},
	}
	for _, a := range attendees {
		req.Attendees = append(req.Attendees, attendee{Email: a})
	}
	req.ConferenceData = &conferenceRequest{}
	req.ConferenceData.CreateRequest.RequestID = fmt.Sprintf("agentic-%d", start.UnixNano())
	req.ConferenceData.CreateRequest.ConferenceSolutionKey.Type = "hangoutsMeet"

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("calendar: marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/calendars/%s/events?conferenceDataVersion=1", c.BaseURL, c.CalendarID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("calendar: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.AccessToken)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calendar: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("calendar: %s: %s", resp.Status, string(respBody))
	}

	var out createEventResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return "", fmt.Errorf("calendar: decode response: %w", err)
	}
	return out.ID, nil
}
