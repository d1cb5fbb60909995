package embeddings

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/ternarybob/concordia/internal/interfaces"
)

// MemoryIndex is an in-memory cosine similarity index. Query results are
// deterministic: ties are broken by insertion order.
type MemoryIndex struct {
	mu    sync.RWMutex
	items []indexItem
	byID  map[string]int
}

type indexItem struct {
	id     string
	title  string
	vector []float32
	norm   float64
}

// NewMemoryIndex creates an empty vector index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		byID: make(map[string]int),
	}
}

// Upsert stores a vector under an item id, replacing any existing entry
func (m *MemoryIndex) Upsert(id, title string, vector []float32) error {
	if id == "" {
		return fmt.Errorf("item id cannot be empty")
	}
	if len(vector) == 0 {
		return fmt.Errorf("vector cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item := indexItem{
		id:     id,
		title:  title,
		vector: vector,
		norm:   vectorNorm(vector),
	}

	if pos, exists := m.byID[id]; exists {
		m.items[pos] = item
		return nil
	}

	m.byID[id] = len(m.items)
	m.items = append(m.items, item)
	return nil
}

// Query returns the k nearest items by cosine similarity, descending
func (m *MemoryIndex) Query(vector []float32, k int) ([]interfaces.SearchHit, error) {
	if len(vector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be at least 1")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	queryNorm := vectorNorm(vector)
	if queryNorm == 0 {
		return []interfaces.SearchHit{}, nil
	}

	type scored struct {
		pos        int
		similarity float64
	}

	candidates := make([]scored, 0, len(m.items))
	for pos, item := range m.items {
		if len(item.vector) != len(vector) || item.norm == 0 {
			continue
		}
		candidates = append(candidates, scored{
			pos:        pos,
			similarity: dotProduct(vector, item.vector) / (queryNorm * item.norm),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].similarity != candidates[j].similarity {
			return candidates[i].similarity > candidates[j].similarity
		}
		return candidates[i].pos < candidates[j].pos
	})

	if k > len(candidates) {
		k = len(candidates)
	}

	hits := make([]interfaces.SearchHit, 0, k)
	for _, c := range candidates[:k] {
		item := m.items[c.pos]
		hits = append(hits, interfaces.SearchHit{
			ID:         item.id,
			Title:      item.title,
			Similarity: clampSimilarity(c.similarity),
		})
	}

	return hits, nil
}

// Len returns the number of indexed items
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func dotProduct(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// clampSimilarity keeps floating point noise inside [0,1]. Negative
// cosine values are floored at 0: opposed vectors carry no support.
func clampSimilarity(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// Ensure MemoryIndex implements the VectorIndex interface
var _ interfaces.VectorIndex = (*MemoryIndex)(nil)
