package memory

import (
	"errors"
	"math"
	"sort"
	"sync"

	"pdfchat/internal/domain"
)

var (
	ErrInvalidDimension  = errors.New("invalid dimension")
	ErrLengthMismatch    = errors.New("chunks and vectors length mismatch")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	vectors   [][]float64
	chunks    []domain.Chunk
}

func NewStorage() *Storage { return &Storage{} }

// Init sets the vector dimension and drops any stored vectors.
func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return ErrInvalidDimension
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.vectors = nil
	s.chunks = nil
	return nil
}

// Upsert appends chunks, replacing any chunk with the same ChunkID.
func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return ErrLengthMismatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension == 0 && len(vectors) > 0 {
		s.dimension = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != s.dimension {
			return ErrDimensionMismatch
		}
	}
	pos := make(map[string]int, len(s.chunks))
	for i, ch := range s.chunks {
		pos[ch.ChunkID] = i
	}
	for i, ch := range chunks {
		if j, ok := pos[ch.ChunkID]; ok {
			s.chunks[j] = ch
			s.vectors[j] = vectors[i]
			continue
		}
		pos[ch.ChunkID] = len(s.chunks)
		s.chunks = append(s.chunks, ch)
		s.vectors = append(s.vectors, vectors[i])
	}
	return nil
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if topK <= 0 {
		topK = 5
	}
	results := make([]domain.SearchResult, len(s.vectors))
	for i := range s.vectors {
		results[i] = domain.SearchResult{Chunk: s.chunks[i], Score: cosine(s.vectors[i], vector)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if topK > len(results) {
		topK = len(results)
	}
	return results[:topK], nil
}

func (s *Storage) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vectors = nil
	s.chunks = nil
	return nil
}

func (s *Storage) Close() error { return nil }

// Len reports the number of stored chunks.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

func cosine(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
