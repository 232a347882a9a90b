package vector

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/jonesrussell/promocrawl/internal/domain"
)

// MemoryIndex is an in-process Index used by tests and by local runs
// without a Qdrant instance. It ranks by exact cosine similarity.
type MemoryIndex struct {
	mu        sync.RWMutex
	dimension int
	points    map[int64]domain.Point

	// Recreations counts how many times a dimension mismatch forced the
	// collection to be dropped and rebuilt.
	Recreations int
}

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{points: make(map[int64]domain.Point)}
}

// EnsureCollection initializes the dimension on first use and resets
// the index when the dimension changes.
func (m *MemoryIndex) EnsureCollection(_ context.Context, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dimension != 0 && m.dimension != dimension {
		m.points = make(map[int64]domain.Point)
		m.Recreations++
	}
	m.dimension = dimension
	return nil
}

// HasPoint reports whether a point with the given ID exists.
func (m *MemoryIndex) HasPoint(_ context.Context, id int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.points[id]
	return ok, nil
}

// Upsert stores the points, replacing any existing entries with the
// same IDs.
func (m *MemoryIndex) Upsert(_ context.Context, points []domain.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range points {
		m.points[p.ID] = p
	}
	return nil
}

// Search returns the top-limit points by cosine similarity to vector.
func (m *MemoryIndex) Search(_ context.Context, vector []float32, limit int) ([]domain.ScoredPoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scored := make([]domain.ScoredPoint, 0, len(m.points))
	for _, p := range m.points {
		scored = append(scored, domain.ScoredPoint{
			ID:      p.ID,
			Score:   cosineSimilarity(vector, p.Vector),
			Payload: p.Payload,
		})
	}

	sort.Slice(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

// Scroll returns up to limit points in ID order.
func (m *MemoryIndex) Scroll(_ context.Context, limit int) ([]domain.Point, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.Point, 0, len(m.points))
	for _, p := range m.points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of stored points.
func (m *MemoryIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.points), nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
