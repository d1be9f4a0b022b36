package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockProvider deterministically derives a unit vector from the input
// text's FNV-1a hash, so the same text always embeds to the same
// vector without any outbound call — used when mock_mode is enabled
// and in tests.
type MockProvider struct {
	Dim int
}

// NewMockProvider builds a MockProvider for the given dimension.
func NewMockProvider(dim int) *MockProvider {
	return &MockProvider{Dim: dim}
}

func (m *MockProvider) Dimension() int { return m.Dim }

func (m *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	v := make([]float32, m.Dim)
	state := seed
	var norm float64
	for i := range v {
		state = state*6364136223846793005 + 1442695040888963407
		f := float32(int32(state>>32)) / float32(math.MaxInt32)
		v[i] = f
		norm += float64(f) * float64(f)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range v {
			v[i] = float32(float64(v[i]) / norm)
		}
	}
	return v, nil
}
