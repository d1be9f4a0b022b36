package toolregistry

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ivanintech/agentic-assistant/internal/store"
)

// CalendlyEvent is the shape list_calendly_events / ingest_calendly_events
// traffic in.
type CalendlyEvent struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	StartAt time.Time `json:"start_at"`
	EndAt   time.Time `json:"end_at"`
	Status  string    `json:"status"`
}

// CalendlyClient abstracts the Calendly API collaborator.
type CalendlyClient interface {
	ListEvents(ctx context.Context) ([]CalendlyEvent, error)
	CreateEvent(ctx context.Context, name string, start, end time.Time) (CalendlyEvent, error)
}

type ListCalendlyEventsTool struct{ client CalendlyClient }

func NewListCalendlyEventsTool(c CalendlyClient) *ListCalendlyEventsTool {
	return &ListCalendlyEventsTool{client: c}
}

func (t *ListCalendlyEventsTool) Name() string        { return "list_calendly_events" }
func (t *ListCalendlyEventsTool) AgentCodes() []string { return []string{"SCHED"} }

func (t *ListCalendlyEventsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_calendly_events", mcp.WithDescription("List scheduled Calendly events."))
}

func (t *ListCalendlyEventsTool) Execute(ctx context.Context, _ map[string]any) ToolResult {
	started := time.Now()
	events, err := t.client.ListEvents(ctx)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	return Ok(t.Name(), events, "", time.Since(started))
}

type CreateCalendlyEventTool struct{ client CalendlyClient }

func NewCreateCalendlyEventTool(c CalendlyClient) *CreateCalendlyEventTool {
	return &CreateCalendlyEventTool{client: c}
}

func (t *CreateCalendlyEventTool) Name() string        { return "create_calendly_event" }
func (t *CreateCalendlyEventTool) AgentCodes() []string { return []string{"SCHED"} }

func (t *CreateCalendlyEventTool) Definition() mcp.Tool {
	return mcp.NewTool("create_calendly_event",
		mcp.WithDescription("Create a Calendly scheduling event."),
		mcp.WithString("name", mcp.Required()),
		mcp.WithString("start", mcp.Required(), mcp.Description("RFC3339 start timestamp.")),
		mcp.WithString("end", mcp.Required(), mcp.Description("RFC3339 end timestamp.")),
	)
}

func (t *CreateCalendlyEventTool) Execute(ctx context.Context, args map[string]any) ToolResult {
	started := time.Now()
	name, _ := args["name"].(string)
	startStr, _ := args["start"].(string)
	endStr, _ := args["end"].(string)

	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	end, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}

	ev, err := t.client.CreateEvent(ctx, name, start, end)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}
	return Ok(t.Name(), ev, "", time.Since(started))
}

// IngestCalendlyEventsTool materialises Calendly events as
// ExtractedEvents with status=confirmed, since Calendly events are
// already scheduled by a human by the time they reach this tool.
type IngestCalendlyEventsTool struct {
	client CalendlyClient
	store  *store.Store
}

func NewIngestCalendlyEventsTool(c CalendlyClient, s *store.Store) *IngestCalendlyEventsTool {
	return &IngestCalendlyEventsTool{client: c, store: s}
}

func (t *IngestCalendlyEventsTool) Name() string        { return "ingest_calendly_events" }
func (t *IngestCalendlyEventsTool) AgentCodes() []string { return []string{"SCHED"} }

func (t *IngestCalendlyEventsTool) Definition() mcp.Tool {
	return mcp.NewTool("ingest_calendly_events",
		mcp.WithDescription("Pull Calendly events and record them locally as confirmed agenda events."))
}

func (t *IngestCalendlyEventsTool) Execute(ctx context.Context, _ map[string]any) ToolResult {
	started := time.Now()
	events, err := t.client.ListEvents(ctx)
	if err != nil {
		return Err(t.Name(), err, time.Since(started))
	}

	ingested := 0
	for _, ev := range events {
		err := t.store.InsertExtractedEvent(store.ExtractedEvent{
			ID: uuid.NewString(), Source: "calendly", Title: ev.Name,
			StartAt: ev.StartAt, EndAt: ev.EndAt, Timezone: "UTC",
			Status: store.StatusConfirmed, Confidence: 1,
		})
		if err == nil {
			ingested++
		}
	}
	return Ok(t.Name(), map[string]int{"ingested": ingested, "seen": len(events)}, "", time.Since(started))
}

// MockCalendlyClient returns deterministic fixtures for mock_mode and tests.
type MockCalendlyClient struct{}

func (MockCalendlyClient) ListEvents(context.Context) ([]CalendlyEvent, error) {
	now := time.Now().UTC()
	return []CalendlyEvent{{
		ID: "mock-calendly-1", Name: "Intro call", StartAt: now.Add(24 * time.Hour),
		EndAt: now.Add(24*time.Hour + 30*time.Minute), Status: "confirmed",
	}}, nil
}

func (MockCalendlyClient) CreateEvent(_ context.Context, name string, start, end time.Time) (CalendlyEvent, error) {
	return CalendlyEvent{ID: "mock-" + uuid.NewString(), Name: name, StartAt: start, EndAt: end, Status: "confirmed"}, nil
}
