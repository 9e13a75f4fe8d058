package retrieval

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/PujaAmmineni/RAG-AGENTS/internal/domain"
	"github.com/PujaAmmineni/RAG-AGENTS/internal/ports"
)

// MemoryStore is a brute-force in-process vector index. Upserting an
// existing chunk ID replaces it.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	index     map[string]int
	chunks    []domain.Chunk
	vectors   [][]float32
}

var _ ports.VectorStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{index: make(map[string]int)}
}

func (s *MemoryStore) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, v := range vectors {
		if s.dimension == 0 {
			s.dimension = len(v)
		}
		if len(v) != s.dimension {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(v), s.dimension)
		}
	}
	for i, c := range chunks {
		if j, ok := s.index[c.ID]; ok {
			s.chunks[j] = c
			s.vectors[j] = vectors[i]
			continue
		}
		s.index[c.ID] = len(s.chunks)
		s.chunks = append(s.chunks, c)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

// Search ranks every stored vector by cosine similarity. Ties keep
// insertion order.
func (s *MemoryStore) Search(_ context.Context, vector []float32, k int) ([]domain.Passage, error) {
	if k <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		i     int
		score float64
	}
	all := make([]scored, len(s.vectors))
	for i, v := range s.vectors {
		all[i] = scored{i: i, score: cosine(v, vector)}
	}
	slices.SortStableFunc(all, func(a, b scored) int { return cmp.Compare(b.score, a.score) })

	n := min(k, len(all))
	out := make([]domain.Passage, n)
	for i := range n {
		c := s.chunks[all[i].i]
		out[i] = domain.Passage{Text: c.Text, Source: c.Source, Score: all[i].score}
	}
	return out, nil
}

func (s *MemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Reset drops every stored vector.
func (s *MemoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = 0
	s.index = make(map[string]int)
	s.chunks = nil
	s.vectors = nil
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := range n {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
