// Package retrieval implements the retrieval-augmented-generation
// pipeline described in spec §4.2: embed a query, find nearest
// SemanticChunks by cosine similarity, and assemble them into a
// citation-tracked context block for the LLM.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/ivanintech/agentic-assistant/internal/embedding"
	"github.com/ivanintech/agentic-assistant/internal/store"
)

// Service retrieves and assembles context from the semantic chunk store.
type Service struct {
	embeddings *embedding.Service
	store      *store.Store
}

// NewService wires an embedding service to the chunk store.
func NewService(embeddings *embedding.Service, chunkStore *store.Store) *Service {
	return &Service{embeddings: embeddings, store: chunkStore}
}

// Retrieve embeds query and returns at most topK chunks whose cosine
// similarity is at least minSimilarity, filtered to sourceFilter when
// non-empty, ordered by descending similarity. An empty result is not
// an error — callers must treat "nothing relevant" as a valid outcome.
func (s *Service) Retrieve(ctx context.Context, query string, topK int, minSimilarity float64, sourceFilter string) ([]store.Scored, error) {
	vec, err := s.embeddings.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.store.SearchBySimilarity(vec, topK, minSimilarity, sourceFilter)
}

// AssembleContext concatenates chunks into a single context block, each
// fragment prefixed by its chunk id, and returns the ordered, de-duplicated
// list of chunk ids referenced — the citations list.
func AssembleContext(scored []store.Scored) (contextText string, citations []string) {
	if len(scored) == 0 {
		return "", nil
	}

	seen := make(map[string]bool, len(scored))
	var b strings.Builder
	for i, sc := range scored {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s] %s", sc.Chunk.ChunkID, sc.Chunk.Text)
		if !seen[sc.Chunk.ChunkID] {
			seen[sc.Chunk.ChunkID] = true
			citations = append(citations, sc.Chunk.ChunkID)
		}
	}
	return b.String(), citations
}
