package toolregistry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
	"github.com/ivanintech/agentic-assistant/internal/store"
)

// CalendarProvider creates events against an external calendar, used by
// CreateCalendarEventTool. A mock implementation backs mock_mode.
type CalendarProvider interface {
	CreateEvent(ctx context.Context, title string, start, end time.Time, attendees []string, location, description string) (providerEventID string, err error)
}

// ListAgendaEventsTool returns non-rejected events from the persistent
// store, earliest start first (spec §4.3 list_agenda_events). It applies
// no time filter: events whose start has already passed are included.
type ListAgendaEventsTool struct {
	store *store.Store
}

func NewListAgendaEventsTool(s *store.Store) *ListAgendaEventsTool {
	return &ListAgendaEventsTool{store: s}
}

func (t *ListAgendaEventsTool) Name() string         { return "list_agenda_events" }
func (t *ListAgendaEventsTool) AgentCodes() []string  { return []string{"CAL", "SCHED"} }

func (t *ListAgendaEventsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_agenda_events",
		mcp.WithDescription("List non-rejected events from the persistent agenda store, earliest first; past events are included."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of events to return. Defaults to 10.")),
	)
}

func (t *ListAgendaEventsTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	started := time.Now()
	limit := intArg(args, "limit", 10)

	events, err := t.store.UpcomingExtractedEvents(limit)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	return Ok(t.Name(), events, "", time.Since(started))
}

// CreateCalendarEventTool materialises a confirmed ExtractedEvent with
// an external calendar provider and records the resulting CalendarEvent.
type CreateCalendarEventTool struct {
	store    *store.Store
	provider CalendarProvider
}

func NewCreateCalendarEventTool(s *store.Store, p CalendarProvider) *CreateCalendarEventTool {
	return &CreateCalendarEventTool{store: s, provider: p}
}

func (t *CreateCalendarEventTool) Name() string        { return "create_calendar_event" }
func (t *CreateCalendarEventTool) AgentCodes() []string { return []string{"CAL", "SCHED"} }

func (t *CreateCalendarEventTool) Definition() mcp.Tool {
	return mcp.NewTool("create_calendar_event",
		mcp.WithDescription("Create a calendar event with the configured provider and return its provider event id."),
		mcp.WithString("title", mcp.Required()),
		mcp.WithString("start", mcp.Required(), mcp.Description("RFC3339 start timestamp.")),
		mcp.WithString("end", mcp.Required(), mcp.Description("RFC3339 end timestamp.")),
		mcp.WithString("location", mcp.Description("Optional location.")),
		mcp.WithString("description", mcp.Description("Optional description.")),
	)
}

func (t *CreateCalendarEventTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	started := time.Now()
	title, _ := args["title"].(string)
	startStr, _ := args["start"].(string)
	endStr, _ := args["end"].(string)
	location, _ := args["location"].(string)
	description, _ := args["description"].(string)

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return Err(t.Name(), apperror.New(apperror.Application, "invalid start timestamp"), time.Since(started))
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return Err(t.Name(), apperror.New(apperror.Application, "invalid end timestamp"), time.Since(started))
	}
	if end.Before(start) {
		return Err(t.Name(), apperror.New(apperror.Application, "end precedes start"), time.Since(started))
	}

	attendees := stringSliceArg(args, "attendees")
	providerEventID, err := t.provider.CreateEvent(ctx, title, start, end, attendees, location, description)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}

	if err := t.store.UpsertCalendarEvent(store.CalendarEvent{
		Provider: "default", ProviderEventID: providerEventID, CalendarID: "primary",
		Title: title, StartAt: start, EndAt: end, Status: "confirmed",
	}); err != nil {
		return Err(t.Name(), err, time.Since(started))
	}

	return Ok(t.Name(), map[string]string{"provider_event_id": providerEventID},
		fmt.Sprintf("Created %q for %s", title, start.Format(time.RFC3339)), time.Since(started))
}

// ConfirmAgendaEventTool transitions an ExtractedEvent to status=confirmed.
type ConfirmAgendaEventTool struct {
	store *store.Store
}

func NewConfirmAgendaEventTool(s *store.Store) *ConfirmAgendaEventTool {
	return &ConfirmAgendaEventTool{store: s}
}

func (t *ConfirmAgendaEventTool) Name() string        { return "confirm_agenda_event" }
func (t *ConfirmAgendaEventTool) AgentCodes() []string { return []string{"CAL", "SCHED"} }

func (t *ConfirmAgendaEventTool) Definition() mcp.Tool {
	return mcp.NewTool("confirm_agenda_event",
		mcp.WithDescription("Transition an agenda event to confirmed status."),
		mcp.WithString("event_id", mcp.Required()),
	)
}

func (t *ConfirmAgendaEventTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	started := time.Now()
	eventID, _ := args["event_id"].(string)
	if eventID == "" {
		return Err(t.Name(), apperror.New(apperror.Application, "event_id is required"), time.Since(started))
	}
	if err := t.store.TransitionStatus(eventID, store.StatusConfirmed); err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	return Ok(t.Name(), map[string]string{"event_id": eventID, "status": "confirmed"}, "", time.Since(started))
}

// MockCalendarProvider deterministically mints provider event ids for
// mock_mode and tests.
type MockCalendarProvider struct{}

func (MockCalendarProvider) CreateEvent(context.Context, string, time.Time, time.Time, []string, string, string) (string, error) {
	return "mock-" + uuid.NewString(), nil
}

func intArg(args map[string]any, key string, fallback int) int {
	if v, ok := args[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return fallback
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
