package store_test

import (
	"testing"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
	"github.com/ivanintech/agentic-assistant/internal/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir(), EmbeddingDimension: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertChunk_RejectsWrongDimension(t *testing.T) {
	s := newTestStore(t)
	err := s.InsertChunk(store.SemanticChunk{ChunkID: "c1", Source: "doc", Text: "x", Embedding: []float32{1, 2}})
	if err == nil {
		t.Fatalf("InsertChunk: expected error for wrong dimension")
	}
	if !apperror.Is(err, apperror.Application) {
		t.Errorf("InsertChunk: expected Application-kind error, got %v", err)
	}
}

func TestSearchBySimilarity_TopHitIsExactMatch(t *testing.T) {
	s := newTestStore(t)
	chunks := []store.SemanticChunk{
		{ChunkID: "a", Source: "doc#1", Text: "calendar invite", Embedding: []float32{1, 0, 0, 0}},
		{ChunkID: "b", Source: "doc#2", Text: "unrelated", Embedding: []float32{0, 1, 0, 0}},
	}
	for _, c := range chunks {
		if err := s.InsertChunk(c); err != nil {
			t.Fatalf("InsertChunk: %v", err)
		}
	}

	results, err := s.SearchBySimilarity([]float32{1, 0, 0, 0}, 5, 0, "")
	if err != nil {
		t.Fatalf("SearchBySimilarity: %v", err)
	}
	if len(results) == 0 || results[0].Chunk.ChunkID != "a" {
		t.Fatalf("SearchBySimilarity: expected top-1 hit to be chunk %q, got %+v", "a", results)
	}
}

func TestSearchBySimilarity_DedupesBySourcePrefix(t *testing.T) {
	s := newTestStore(t)
	for _, c := range []store.SemanticChunk{
		{ChunkID: "a", Source: "doc#1", Text: "x", Embedding: []float32{1, 0, 0, 0}},
		{ChunkID: "b", Source: "doc#2", Text: "y", Embedding: []float32{0.9, 0.1, 0, 0}},
	} {
		if err := s.InsertChunk(c); err != nil {
			t.Fatalf("InsertChunk: %v", err)
		}
	}

	results, err := s.SearchBySimilarity([]float32{1, 0, 0, 0}, 5, 0, "")
	if err != nil {
		t.Fatalf("SearchBySimilarity: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("SearchBySimilarity: expected dedup to collapse to 1 result, got %d", len(results))
	}
	if results[0].Chunk.ChunkID != "a" {
		t.Errorf("SearchBySimilarity: expected dedup to keep the higher-similarity chunk %q, got %q", "a", results[0].Chunk.ChunkID)
	}
}

func TestSearchBySimilarity_TopKZeroReturnsEmpty(t *testing.T) {
	s := newTestStore(t)
	if err := s.InsertChunk(store.SemanticChunk{ChunkID: "a", Source: "doc#1", Text: "x", Embedding: []float32{1, 0, 0, 0}}); err != nil {
		t.Fatalf("InsertChunk: %v", err)
	}

	results, err := s.SearchBySimilarity([]float32{1, 0, 0, 0}, 0, 0, "")
	if err != nil {
		t.Fatalf("SearchBySimilarity: unexpected error for top_k=0: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("SearchBySimilarity: top_k=0 should return no results, got %d", len(results))
	}
}

func TestSearchBySimilarity_MinSimilarityExcludesNonError(t *testing.T) {
	s := newTestStore(t)
	results, err := s.SearchBySimilarity([]float32{1, 0, 0, 0}, 5, 0.9, "")
	if err != nil {
		t.Fatalf("SearchBySimilarity: unexpected error on empty store: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("SearchBySimilarity: expected empty result on empty store, got %d", len(results))
	}
}

func TestInsertMessageIdempotent(t *testing.T) {
	s := newTestStore(t)
	msg := store.ConversationMessage{
		MessageSID: "SID1", ConversationID: "conv1", From: "+1", To: "+2",
		Body: "hi", ReceivedAt: time.Now(),
	}
	inserted, err := s.InsertMessageIdempotent(msg)
	if err != nil {
		t.Fatalf("InsertMessageIdempotent: %v", err)
	}
	if !inserted {
		t.Fatalf("InsertMessageIdempotent: expected first insert to report inserted=true")
	}

	inserted, err = s.InsertMessageIdempotent(msg)
	if err != nil {
		t.Fatalf("InsertMessageIdempotent: %v", err)
	}
	if inserted {
		t.Errorf("InsertMessageIdempotent: expected duplicate delivery to be a no-op")
	}
}

func TestTransitionStatus_ForwardOnly(t *testing.T) {
	s := newTestStore(t)
	start := time.Now()
	err := s.InsertExtractedEvent(store.ExtractedEvent{
		ID: "e1", Source: "whatsapp", Title: "Sync", StartAt: start, Timezone: "UTC",
		Status: store.StatusProposed, Confidence: 0.8,
	})
	if err != nil {
		t.Fatalf("InsertExtractedEvent: %v", err)
	}

	if err := s.TransitionStatus("e1", store.StatusCreated); err == nil {
		t.Fatalf("TransitionStatus: expected proposed->created to be rejected (must pass through confirmed)")
	}

	if err := s.TransitionStatus("e1", store.StatusConfirmed); err != nil {
		t.Fatalf("TransitionStatus: proposed->confirmed should succeed: %v", err)
	}
	if err := s.TransitionStatus("e1", store.StatusCreated); err != nil {
		t.Fatalf("TransitionStatus: confirmed->created should succeed: %v", err)
	}
	if err := s.TransitionStatus("e1", store.StatusProposed); err == nil {
		t.Fatalf("TransitionStatus: expected backward transition to be rejected")
	}
}

func TestInsertExtractedEvent_RejectsEndBeforeStart(t *testing.T) {
	s := newTestStore(t)
	start := time.Now()
	err := s.InsertExtractedEvent(store.ExtractedEvent{
		ID: "e2", Source: "whatsapp", Title: "Bad", StartAt: start, EndAt: start.Add(-time.Hour),
		Timezone: "UTC", Status: store.StatusProposed,
	})
	if err == nil {
		t.Fatalf("InsertExtractedEvent: expected error for end_at before start_at")
	}
}

func TestUpsertCalendarEvent_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ev := store.CalendarEvent{
		Provider: "google", ProviderEventID: "evt-1", CalendarID: "primary",
		Title: "Standup", StartAt: time.Now(), Status: "confirmed",
	}
	if err := s.UpsertCalendarEvent(ev); err != nil {
		t.Fatalf("UpsertCalendarEvent: %v", err)
	}

	got, err := s.GetCalendarEvent("google", "evt-1")
	if err != nil {
		t.Fatalf("GetCalendarEvent: %v", err)
	}
	if got.Title != "Standup" {
		t.Errorf("GetCalendarEvent: Title = %q, want %q", got.Title, "Standup")
	}
}
