package server

import (
	"testing"

	"github.com/ivanintech/agentic-assistant/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("ASSISTANT_DATA_DIR", t.TempDir())
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load: unexpected error: %v", err)
	}
	return cfg
}

func TestNewWiresAllCollaborators(t *testing.T) {
	container, cleanup, err := New(testConfig(t))
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	defer cleanup()

	if container.Store == nil || container.Retrieval == nil || container.Graph == nil {
		t.Fatalf("New: expected Store, Retrieval and Graph to be non-nil")
	}
	if container.HTTP.Agent == nil || container.HTTP.Tools == nil || container.HTTP.Exec == nil {
		t.Fatalf("New: expected httpapi.Deps to be fully populated")
	}

	wantTools := []string{
		"list_agenda_events", "create_calendar_event", "confirm_agenda_event",
		"search_emails", "read_email", "send_email", "send_whatsapp",
		"list_calendly_events", "create_calendly_event", "ingest_calendly_events",
		"extract_urls", "scrape_web_content", "scrape_news_for_events",
	}
	for _, name := range wantTools {
		if _, ok := container.Tools.Get(name); !ok {
			t.Errorf("New: expected tool %q to be registered", name)
		}
	}
}

func TestNewDefaultsToMockCollaborators(t *testing.T) {
	cfg := testConfig(t)
	container, cleanup, err := New(cfg)
	if err != nil {
		t.Fatalf("New: unexpected error: %v", err)
	}
	defer cleanup()

	if _, ok := container.Tools.Get("search_emails"); !ok {
		t.Fatalf("search_emails tool missing")
	}
	if container.Embedding.Dimension() != cfg.EmbeddingDimension {
		t.Errorf("Embedding.Dimension() = %d, want %d", container.Embedding.Dimension(), cfg.EmbeddingDimension)
	}
}

func TestNewFailsOnInvalidEmbeddingDimension(t *testing.T) {
	cfg := testConfig(t)
	cfg.EmbeddingDimension = 0

	if _, _, err := New(cfg); err == nil {
		t.Fatalf("New: expected error for invalid embedding dimension")
	}
}
