// Package embedding implements the embedding provider abstraction and
// the LRU+TTL cache described in spec §4.1, with a singleflight layer
// so concurrent misses on the same key coalesce into one outbound call.
package embedding

import "context"

// Provider produces a fixed-dimension embedding vector for a piece of
// text. Implementations may call out to a hosted model (OpenAI) or,
// for tests and mock_mode, return a deterministic vector.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}
