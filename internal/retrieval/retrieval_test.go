package retrieval_test

import (
	"context"
	"testing"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/embedding"
	"github.com/ivanintech/agentic-assistant/internal/retrieval"
	"github.com/ivanintech/agentic-assistant/internal/store"
)

func newTestService(t *testing.T) (*retrieval.Service, *store.Store) {
	t.Helper()
	s, err := store.New(store.Config{DataDir: t.TempDir(), EmbeddingDimension: 8})
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	svc := embedding.NewService(embedding.NewMockProvider(8), embedding.NewCache(100, time.Minute))
	return retrieval.NewService(svc, s), s
}

func TestRetrieve_EmptyStoreReturnsEmptyNotError(t *testing.T) {
	svc, _ := newTestService(t)
	results, err := svc.Retrieve(context.Background(), "anything", 5, 0.5, "")
	if err != nil {
		t.Fatalf("Retrieve: expected no error on empty store, got %v", err)
	}
	if len(results) != 0 {
		t.Errorf("Retrieve: expected no results on empty store, got %d", len(results))
	}
}

func TestRetrieve_FindsInsertedChunkAsTopHit(t *testing.T) {
	svc, s := newTestService(t)
	ctx := context.Background()

	vec, err := embedding.NewMockProvider(8).Embed(ctx, "reschedule standup to 10am")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if err := s.InsertChunk(store.SemanticChunk{
		ChunkID: "chunk-1", Source: "conv#1", Text: "reschedule standup to 10am", Embedding: vec,
	}); err != nil {
		t.Fatalf("InsertChunk: %v", err)
	}

	results, err := svc.Retrieve(ctx, "reschedule standup to 10am", 5, 0, "")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(results) == 0 || results[0].Chunk.ChunkID != "chunk-1" {
		t.Fatalf("Retrieve: expected chunk-1 at top-1, got %+v", results)
	}
}

func TestAssembleContext_EmptyInputReturnsEmpty(t *testing.T) {
	text, citations := retrieval.AssembleContext(nil)
	if text != "" || citations != nil {
		t.Errorf("AssembleContext: expected empty output for nil input, got %q, %v", text, citations)
	}
}

func TestAssembleContext_PrefixesChunkIDsAndPreservesOrder(t *testing.T) {
	scored := []store.Scored{
		{Chunk: store.SemanticChunk{ChunkID: "a", Text: "first"}, Similarity: 0.9},
		{Chunk: store.SemanticChunk{ChunkID: "b", Text: "second"}, Similarity: 0.8},
	}
	text, citations := retrieval.AssembleContext(scored)

	if want := "[a] first\n\n[b] second"; text != want {
		t.Errorf("AssembleContext: text = %q, want %q", text, want)
	}
	if len(citations) != 2 || citations[0] != "a" || citations[1] != "b" {
		t.Errorf("AssembleContext: citations = %v, want [a b]", citations)
	}
}
