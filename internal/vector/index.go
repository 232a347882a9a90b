// Package vector abstracts the vector index service: a named collection
// of fixed-dimension points under cosine distance, supporting upsert,
// point retrieval, nearest-neighbor search, and diagnostic scrolling.
package vector

import (
	"context"

	"github.com/jonesrussell/promocrawl/internal/domain"
)

// Index is the vector index surface the embedding sync and the RAG
// service depend on.
type Index interface {
	// EnsureCollection makes sure the collection exists with the given
	// dimension and cosine distance. A collection with a mismatched
	// dimension is dropped and recreated; all prior vectors are lost.
	EnsureCollection(ctx context.Context, dimension int) error
	// HasPoint reports whether a point with the given ID exists.
	HasPoint(ctx context.Context, id int64) (bool, error)
	// Upsert writes the points in one batch.
	Upsert(ctx context.Context, points []domain.Point) error
	// Search returns the top-limit nearest points by cosine similarity,
	// payload included.
	Search(ctx context.Context, vector []float32, limit int) ([]domain.ScoredPoint, error)
	// Scroll returns up to limit points with vectors and payloads, for
	// diagnostics.
	Scroll(ctx context.Context, limit int) ([]domain.Point, error)
	// Count returns the number of points in the collection.
	Count(ctx context.Context) (int, error)
}
