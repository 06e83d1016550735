package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Match is one search hit.
type Match struct {
	Text  string
	Score float64

	// Position is the chunk's position in insertion order.
	Position int
}

// Store holds (chunk, vector) pairs and answers nearest-neighbour queries.
// Implementations other than MemoryStore can be plugged into Indexer.
type Store interface {
	// Add appends a chunk and its embedding.
	Add(text string, vector []float32) error

	// Search returns up to k chunks ranked by descending similarity to
	// query. Fewer than k are returned when the store holds fewer.
	Search(query []float32, k int) ([]Match, error)

	// Len returns the number of stored chunks.
	Len() int
}

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// MemoryStore is a brute-force cosine store. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	texts   []string
	vectors [][]float32
	dim     int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Add(text string, vector []float32) error {
	if len(vector) == 0 {
		return errors.New("empty vector")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dim == 0 {
		s.dim = len(vector)
	} else if len(vector) != s.dim {
		return fmt.Errorf("%w: store has %d, got %d", ErrDimensionMismatch, s.dim, len(vector))
	}
	s.texts = append(s.texts, text)
	s.vectors = append(s.vectors, vector)
	return nil
}

// Search scans every vector. Ties keep insertion order.
func (s *MemoryStore) Search(query []float32, k int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.vectors) == 0 || k <= 0 {
		return nil, nil
	}
	if len(query) != s.dim {
		return nil, fmt.Errorf("%w: store has %d, query has %d", ErrDimensionMismatch, s.dim, len(query))
	}

	matches := make([]Match, len(s.vectors))
	for i, v := range s.vectors {
		matches[i] = Match{Text: s.texts[i], Score: Cosine(query, v), Position: i}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.texts)
}

// Cosine returns the cosine similarity of a and b. A zero vector, or
// vectors of different length, have similarity 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	// sqrt(na*nb) keeps identical vectors at exactly 1.
	return max(-1, min(1, dot/math.Sqrt(na*nb)))
}
