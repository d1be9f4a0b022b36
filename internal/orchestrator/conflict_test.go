package orchestrator

import (
	"testing"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/store"
)

func TestExtractMentionedWindow_PrefersISOTimestamp(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	w := extractMentionedWindow("move it to 2024-03-05T11:00:00Z please", now)
	if w == nil {
		t.Fatalf("extractMentionedWindow: expected a window")
	}
	want := time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC)
	if !w.Start.Equal(want) {
		t.Errorf("extractMentionedWindow: Start = %v, want %v", w.Start, want)
	}
}

func TestExtractMentionedWindow_RelativeSpanish(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	w := extractMentionedWindow("¿tengo algo mañana a las 11?", now)
	if w == nil {
		t.Fatalf("extractMentionedWindow: expected a window for \"mañana a las 11\"")
	}
	want := time.Date(2024, 3, 2, 11, 0, 0, 0, time.UTC)
	if !w.Start.Equal(want) {
		t.Errorf("extractMentionedWindow: Start = %v, want %v", w.Start, want)
	}
}

func TestExtractMentionedWindow_RelativeEnglishWithPM(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	w := extractMentionedWindow("can we meet tomorrow at 3pm", now)
	if w == nil {
		t.Fatalf("extractMentionedWindow: expected a window for \"tomorrow at 3pm\"")
	}
	want := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)
	if !w.Start.Equal(want) {
		t.Errorf("extractMentionedWindow: Start = %v, want %v", w.Start, want)
	}
}

func TestExtractMentionedWindow_NoMatchReturnsNil(t *testing.T) {
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	if w := extractMentionedWindow("let's find a good time soon", now); w != nil {
		t.Errorf("extractMentionedWindow: expected nil, got %+v", w)
	}
}

func TestConflictsForWindow_OverlapAndNonOverlap(t *testing.T) {
	window := &TimeWindow{
		Start: time.Date(2024, 3, 5, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC),
	}
	overlapping := store.ExtractedEvent{
		ID:      "e1",
		StartAt: time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 3, 5, 11, 30, 0, 0, time.UTC),
	}
	disjoint := store.ExtractedEvent{
		ID:      "e2",
		StartAt: time.Date(2024, 3, 5, 14, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC),
	}

	got := conflictsForWindow([]store.ExtractedEvent{overlapping, disjoint}, window)
	if len(got) != 1 || got[0].ID != "e1" {
		t.Fatalf("conflictsForWindow: got %+v, want only e1", got)
	}
}
