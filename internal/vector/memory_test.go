package vector_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/vector"
)

func TestMemoryIndexSearchRanksByCosineSimilarity(t *testing.T) {
	t.Parallel()

	index := vector.NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, index.EnsureCollection(ctx, 3))

	require.NoError(t, index.Upsert(ctx, []domain.Point{
		{ID: 1, Vector: []float32{1, 0, 0}, Payload: domain.Payload{Title: "exact"}},
		{ID: 2, Vector: []float32{0.7, 0.7, 0}, Payload: domain.Payload{Title: "close"}},
		{ID: 3, Vector: []float32{0, 0, 1}, Payload: domain.Payload{Title: "orthogonal"}},
	}))

	hits, err := index.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, int64(2), hits[1].ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
}

func TestMemoryIndexHasPointAndCount(t *testing.T) {
	t.Parallel()

	index := vector.NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, index.EnsureCollection(ctx, 2))

	exists, err := index.HasPoint(ctx, 7)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, index.Upsert(ctx, []domain.Point{{ID: 7, Vector: []float32{1, 1}}}))

	exists, err = index.HasPoint(ctx, 7)
	require.NoError(t, err)
	assert.True(t, exists)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemoryIndexUpsertReplacesExistingPoint(t *testing.T) {
	t.Parallel()

	index := vector.NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, index.EnsureCollection(ctx, 2))

	require.NoError(t, index.Upsert(ctx, []domain.Point{
		{ID: 1, Vector: []float32{1, 0}, Payload: domain.Payload{Title: "old"}},
	}))
	require.NoError(t, index.Upsert(ctx, []domain.Point{
		{ID: 1, Vector: []float32{0, 1}, Payload: domain.Payload{Title: "new"}},
	}))

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	points, err := index.Scroll(ctx, 10)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "new", points[0].Payload.Title)
}

func TestMemoryIndexRecreatesOnDimensionChange(t *testing.T) {
	t.Parallel()

	index := vector.NewMemoryIndex()
	ctx := context.Background()

	require.NoError(t, index.EnsureCollection(ctx, 3))
	require.NoError(t, index.Upsert(ctx, []domain.Point{{ID: 1, Vector: []float32{1, 0, 0}}}))

	// Same dimension keeps the points.
	require.NoError(t, index.EnsureCollection(ctx, 3))
	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Zero(t, index.Recreations)

	// A dimension change drops everything.
	require.NoError(t, index.EnsureCollection(ctx, 5))
	count, err = index.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, 1, index.Recreations)
}

func TestMemoryIndexScrollOrdersByID(t *testing.T) {
	t.Parallel()

	index := vector.NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, index.EnsureCollection(ctx, 1))

	require.NoError(t, index.Upsert(ctx, []domain.Point{
		{ID: 3, Vector: []float32{1}},
		{ID: 1, Vector: []float32{1}},
		{ID: 2, Vector: []float32{1}},
	}))

	points, err := index.Scroll(ctx, 2)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, int64(1), points[0].ID)
	assert.Equal(t, int64(2), points[1].ID)
}
