package embedding

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingProvider wraps MockProvider and counts Embed calls, with an
// optional gate so tests can hold concurrent callers in flight to
// exercise singleflight coalescing.
type countingProvider struct {
	*MockProvider
	calls atomic.Int64
	gate  chan struct{}
}

func (p *countingProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.calls.Add(1)
	if p.gate != nil {
		<-p.gate
	}
	return p.MockProvider.Embed(ctx, text)
}

func TestServiceEmbed_CachesAcrossCalls(t *testing.T) {
	provider := &countingProvider{MockProvider: NewMockProvider(8)}
	svc := NewService(provider, NewCache(10, time.Minute))

	if _, err := svc.Embed(context.Background(), "reschedule my 3pm"); err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if _, err := svc.Embed(context.Background(), "reschedule my 3pm"); err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if got := provider.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1 (second call should be a cache hit)", got)
	}
}

func TestServiceEmbed_CoalescesConcurrentMisses(t *testing.T) {
	provider := &countingProvider{MockProvider: NewMockProvider(8), gate: make(chan struct{})}
	svc := NewService(provider, NewCache(10, time.Minute))

	const n = 10
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.Embed(context.Background(), "same text"); err != nil {
				t.Errorf("Embed: %v", err)
			}
		}()
	}

	close(provider.gate)
	wg.Wait()

	if got := provider.calls.Load(); got != 1 {
		t.Errorf("provider calls = %d, want 1 (concurrent misses on the same key must coalesce)", got)
	}
}

func TestServiceDimension(t *testing.T) {
	svc := NewService(NewMockProvider(16), NewCache(10, time.Minute))
	if got := svc.Dimension(); got != 16 {
		t.Errorf("Dimension() = %d, want 16", got)
	}
}
