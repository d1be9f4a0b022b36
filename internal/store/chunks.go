package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
)

// SemanticChunk is a unit of retrievable text with its embedding vector.
type SemanticChunk struct {
	ChunkID   string
	Source    string
	Text      string
	Embedding []float32
	CreatedAt time.Time
}

// Scored pairs a SemanticChunk with a similarity score from a query.
type Scored struct {
	Chunk      SemanticChunk
	Similarity float64
}

// InsertChunk stores a chunk, superseding any prior row with the same
// chunk_id. Chunks are never mutated in place per spec §3 — supersede
// by insert is how "updates" happen.
func (s *Store) InsertChunk(c SemanticChunk) error {
	if len(c.Embedding) != s.dim {
		return apperror.New(apperror.Application,
			fmt.Sprintf("store: embedding dimension %d does not match store dimension %d", len(c.Embedding), s.dim))
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO semantic_chunks (chunk_id, source, text, embedding, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(chunk_id) DO UPDATE SET
			source = excluded.source, text = excluded.text,
			embedding = excluded.embedding, created_at = excluded.created_at`,
		c.ChunkID, c.Source, c.Text, encodeVector(c.Embedding), c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return apperror.Wrap(apperror.Internal, "store: insert chunk", err)
	}
	return nil
}

// SearchBySimilarity scans every chunk (optionally filtered by exact
// source) and returns the topK most similar to query, ordered by
// descending similarity, excluding rows whose similarity falls below
// minSimilarity.
//
// This is a flat cosine-similarity scan: an "equivalent approximate-NN
// structure" to the HNSW index the spec recommends, acceptable because
// the embedding dimension is fixed at store-creation time.
func (s *Store) SearchBySimilarity(query []float32, topK int, minSimilarity float64, sourceFilter string) ([]Scored, error) {
	if len(query) != s.dim {
		return nil, apperror.New(apperror.Application,
			fmt.Sprintf("store: query embedding dimension %d does not match store dimension %d", len(query), s.dim))
	}

	q := `SELECT chunk_id, source, text, embedding, created_at FROM semantic_chunks`
	var args []any
	if sourceFilter != "" {
		q += ` WHERE source = ?`
		args = append(args, sourceFilter)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "store: scan chunks", err)
	}
	defer rows.Close()

	var candidates []Scored
	for rows.Next() {
		var c SemanticChunk
		var emb []byte
		var createdAt string
		if err := rows.Scan(&c.ChunkID, &c.Source, &c.Text, &emb, &createdAt); err != nil {
			return nil, apperror.Wrap(apperror.Internal, "store: scan chunk row", err)
		}
		c.Embedding = decodeVector(emb)
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

		sim := cosineSimilarity(query, c.Embedding)
		if sim < minSimilarity {
			continue
		}
		candidates = append(candidates, Scored{Chunk: c, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "store: iterate chunks", err)
	}

	if topK == 0 {
		return nil, nil
	}

	candidates = dedupeBySourcePrefix(candidates)

	sortScoredDesc(candidates)
	if topK > 0 && len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

// dedupeBySourcePrefix collapses chunks sharing the same source prefix
// (the portion before '#') to their highest-similarity representative —
// the approximation of Maximal Marginal Relevance described in spec §4.2.
func dedupeBySourcePrefix(scored []Scored) []Scored {
	best := make(map[string]int) // prefix -> index in kept
	var kept []Scored
	for _, sc := range scored {
		prefix, _, _ := strings.Cut(sc.Chunk.Source, "#")
		if idx, ok := best[prefix]; ok {
			if sc.Similarity > kept[idx].Similarity {
				kept[idx] = sc
			}
			continue
		}
		best[prefix] = len(kept)
		kept = append(kept, sc)
	}
	return kept
}

func sortScoredDesc(s []Scored) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Similarity > s[j-1].Similarity; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
