package embedding

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/ivanintech/agentic-assistant/internal/apperror"
)

// Service is the embedding cache fronting a Provider. Concurrent misses
// on the same fingerprint coalesce into a single outbound Embed call
// via singleflight, satisfying spec §4.1's "single writer per key"
// requirement.
type Service struct {
	provider Provider
	cache    *Cache
	group    singleflight.Group
}

// NewService wires a Provider behind a Cache.
func NewService(provider Provider, cache *Cache) *Service {
	return &Service{provider: provider, cache: cache}
}

// Embed returns the embedding for text, serving from cache on a hit and
// coalescing concurrent misses on the same fingerprint into one call to
// the underlying Provider.
func (s *Service) Embed(ctx context.Context, text string) ([]float32, error) {
	key := Fingerprint(text)

	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}

	result, err, _ := s.group.Do(strconv.FormatUint(key, 16), func() (any, error) {
		if v, ok := s.cache.Get(key); ok {
			return v, nil
		}
		v, err := s.provider.Embed(ctx, text)
		if err != nil {
			return nil, apperror.Wrap(apperror.Transport, fmt.Sprintf("embed text of length %d", len(text)), err)
		}
		if len(v) != s.provider.Dimension() {
			return nil, apperror.New(apperror.Internal,
				fmt.Sprintf("embedding provider returned dimension %d, want %d", len(v), s.provider.Dimension()))
		}
		s.cache.Put(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]float32), nil
}

// Dimension exposes the underlying provider's embedding dimension.
func (s *Service) Dimension() int { return s.provider.Dimension() }

// CacheStats exposes the embedding cache's hit/miss/eviction/size
// counters for spec §4.11 (Metrics Service).
func (s *Service) CacheStats() Stats { return s.cache.StatsSnapshot() }
