package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ivanintech/agentic-assistant/internal/store"
)

// handleEventsList serves GET /events: the forthcoming, non-rejected
// events spec §3's ExtractedEvent entity tracks.
func (s *server) handleEventsList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, ok := parsePositiveInt(raw); ok {
			limit = n
		}
	}
	events, err := s.deps.Store.UpcomingExtractedEvents(limit)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

type eventSuggestRequest struct {
	Source     string   `json:"source"`
	Title      string   `json:"title"`
	StartAt    string   `json:"start_at"`
	EndAt      string   `json:"end_at,omitempty"`
	Timezone   string   `json:"timezone"`
	Location   string   `json:"location,omitempty"`
	Attendees  []string `json:"attendees,omitempty"`
	Confidence float64  `json:"confidence"`
}

// handleEventsSuggest serves POST /events/suggest: records a candidate
// event with status=suggested for a human to approve or reject, the
// entry point scrape_news_for_events and similar discovery tools feed
// into outside the conversational pipeline.
func (s *server) handleEventsSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	defer r.Body.Close()
	var req eventSuggestRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.StartAt == "" {
		http.Error(w, "title and start_at are required", http.StatusBadRequest)
		return
	}
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		http.Error(w, "invalid start_at: "+err.Error(), http.StatusBadRequest)
		return
	}
	var endAt time.Time
	if req.EndAt != "" {
		endAt, err = time.Parse(time.RFC3339, req.EndAt)
		if err != nil {
			http.Error(w, "invalid end_at: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Source == "" {
		req.Source = "manual"
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}

	event := store.ExtractedEvent{
		ID: uuid.NewString(), Source: req.Source, Title: req.Title,
		StartAt: startAt, EndAt: endAt, Timezone: req.Timezone, Location: req.Location,
		Attendees: req.Attendees, Status: store.StatusSuggested, Confidence: req.Confidence,
	}
	if err := s.deps.Store.InsertExtractedEvent(event); err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// handleEventsAction dispatches POST /events/{id}/approve and
// POST /events/{id}/reject. The "/events/" prefix pattern receives every
// path under /events/ except "/events/suggest", whose exact pattern takes
// precedence; any path that is not {id}/approve or {id}/reject gets 404.
func (s *server) handleEventsAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, action, ok := splitEventActionPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch action {
	case "approve":
		s.approveEvent(w, r, id)
	case "reject":
		s.rejectEvent(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func splitEventActionPath(path string) (id, action string, ok bool) {
	trimmed := strings.TrimPrefix(path, "/events/")
	parts := strings.Split(trimmed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

// approveEvent moves a suggested/proposed event to confirmed, then
// materialises it with the calendar provider through the same
// create_calendar_event tool the conversational pipeline uses, finally
// marking it created — spec §3's forward-only status graph.
func (s *server) approveEvent(w http.ResponseWriter, r *http.Request, id string) {
	event, err := s.deps.Store.GetExtractedEvent(id)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	if err := s.deps.Store.TransitionStatus(id, store.StatusConfirmed); err != nil {
		writeAPIError(w, err)
		return
	}

	args := map[string]any{
		"title": event.Title, "start": event.StartAt.Format(time.RFC3339),
		"location": event.Location,
	}
	if !event.EndAt.IsZero() {
		args["end"] = event.EndAt.Format(time.RFC3339)
	} else {
		args["end"] = event.StartAt.Add(time.Hour).Format(time.RFC3339)
	}
	if len(event.Attendees) > 0 {
		attendees := make([]any, 0, len(event.Attendees))
		for _, a := range event.Attendees {
			attendees = append(attendees, a)
		}
		args["attendees"] = attendees
	}

	result := s.deps.Exec.Execute(r.Context(), "create_calendar_event", args)
	if !result.Success {
		writeJSON(w, statusForErrorKind(result.ErrorKind), map[string]any{
			"error": result.ErrorMessage, "error_kind": result.ErrorKind,
		})
		return
	}
	if err := s.deps.Store.TransitionStatus(id, store.StatusCreated); err != nil {
		writeAPIError(w, err)
		return
	}

	updated, err := s.deps.Store.GetExtractedEvent(id)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": updated, "tool_result": result})
}

func (s *server) rejectEvent(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.deps.Store.TransitionStatus(id, store.StatusRejected); err != nil {
		writeAPIError(w, err)
		return
	}
	updated, err := s.deps.Store.GetExtractedEvent(id)
	if err != nil {
		writeAPIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"event": updated})
}

func parsePositiveInt(raw string) (int, bool) {
	n := 0
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, n > 0
}
