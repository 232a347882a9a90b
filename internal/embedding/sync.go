// Package embedding keeps the vector index in step with the promotion
// store: every stored promotion eventually has exactly one point whose
// ID equals its store ID.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/llm"
	"github.com/jonesrussell/promocrawl/internal/logger"
	"github.com/jonesrussell/promocrawl/internal/vector"
)

// ErrSyncInProgress is returned when a sync pass is requested while
// another one is still running.
var ErrSyncInProgress = errors.New("embedding sync already in progress")

// Store is the promotion persistence surface the sync depends on.
type Store interface {
	ListUnembedded(ctx context.Context, limit int) ([]domain.Promotion, error)
	MarkEmbedded(ctx context.Context, id int64, status bool) error
	ResetEmbeddingFlags(ctx context.Context) (int64, error)
	CountAll(ctx context.Context) (int, error)
	CountEmbedded(ctx context.Context) (int, error)
}

// Result summarizes one sync pass.
type Result struct {
	Pending   int `json:"pending"`
	Embedded  int `json:"embedded"`
	Recovered int `json:"recovered"`
	Skipped   int `json:"skipped"`
}

// Report is the output of a consistency check.
type Report struct {
	StoreTotal    int  `json:"storeTotal"`
	StoreEmbedded int  `json:"storeEmbedded"`
	IndexPoints   int  `json:"indexPoints"`
	Consistent    bool `json:"consistent"`
}

// Sync generates embeddings for promotions that lack them and upserts
// the resulting points.
type Sync struct {
	log       logger.Interface
	store     Store
	index     vector.Index
	embedder  llm.Embedder
	dimension int
	running   atomic.Bool
}

// NewSync creates an embedding sync for the given dimension.
func NewSync(log logger.Interface, store Store, index vector.Index, embedder llm.Embedder, dimension int) *Sync {
	return &Sync{
		log:       log,
		store:     store,
		index:     index,
		embedder:  embedder,
		dimension: dimension,
	}
}

// Run performs one sync pass over up to limit pending promotions. When
// force is set, every promotion is re-embedded regardless of its flag.
// Only one pass runs at a time.
func (s *Sync) Run(ctx context.Context, force bool, limit int) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	defer s.running.Store(false)

	if err := s.index.EnsureCollection(ctx, s.dimension); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}

	if force {
		reset, err := s.store.ResetEmbeddingFlags(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to reset embedding flags: %w", err)
		}
		s.log.Info("Forcing embedding regeneration", "reset", reset)
	}

	pending, err := s.store.ListUnembedded(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending promotions: %w", err)
	}

	result := &Result{Pending: len(pending)}
	if len(pending) == 0 {
		return result, nil
	}

	toEmbed, err := s.recoverExisting(ctx, pending, force, result)
	if err != nil {
		return nil, err
	}
	if len(toEmbed) == 0 {
		return result, nil
	}

	if err := s.embedBatch(ctx, toEmbed, result); err != nil {
		return nil, err
	}

	s.log.Info("Embedding sync complete",
		"pending", result.Pending,
		"embedded", result.Embedded,
		"recovered", result.Recovered,
		"skipped", result.Skipped)
	return result, nil
}

// recoverExisting flips the flag for promotions whose point already
// exists. A point without a flag means a prior pass crashed between the
// upsert and the flag update; re-embedding it would waste a provider
// call for an identical vector.
func (s *Sync) recoverExisting(ctx context.Context, pending []domain.Promotion, force bool, result *Result) ([]domain.Promotion, error) {
	if force {
		return pending, nil
	}

	toEmbed := make([]domain.Promotion, 0, len(pending))
	for i := range pending {
		p := &pending[i]

		exists, err := s.index.HasPoint(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to probe point %d: %w", p.ID, err)
		}

		if !exists {
			toEmbed = append(toEmbed, *p)
			continue
		}

		if err := s.store.MarkEmbedded(ctx, p.ID, true); err != nil {
			return nil, fmt.Errorf("failed to recover flag for %d: %w", p.ID, err)
		}
		result.Recovered++
	}
	return toEmbed, nil
}

// embedBatch embeds the promotions in one provider call, upserts the
// points, and flips the flags only after the index write is durable.
func (s *Sync) embedBatch(ctx context.Context, promos []domain.Promotion, result *Result) error {
	texts := make([]string, len(promos))
	for i := range promos {
		texts[i] = promos[i].EmbeddingText()
	}

	vectors, err := s.embedder.CreateEmbeddings(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed %d promotions: %w", len(promos), err)
	}

	points := make([]domain.Point, 0, len(promos))
	embedded := make([]int64, 0, len(promos))
	for i := range promos {
		if len(vectors[i]) != s.dimension {
			s.log.Warn("Skipping promotion with unexpected vector dimension",
				"id", promos[i].ID, "got", len(vectors[i]), "want", s.dimension)
			result.Skipped++
			continue
		}
		points = append(points, domain.Point{
			ID:      promos[i].ID,
			Vector:  vectors[i],
			Payload: domain.PayloadFor(&promos[i]),
		})
		embedded = append(embedded, promos[i].ID)
	}

	if len(points) == 0 {
		return nil
	}

	if err := s.index.Upsert(ctx, points); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	for _, id := range embedded {
		if err := s.store.MarkEmbedded(ctx, id, true); err != nil {
			// The point is durable; the next pass recovers this flag.
			s.log.Error("Failed to mark promotion embedded", "id", id, "error", err)
			continue
		}
		result.Embedded++
	}
	return nil
}

// Check compares store counts against the index point count without
// modifying anything.
func (s *Sync) Check(ctx context.Context) (*Report, error) {
	total, err := s.store.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count promotions: %w", err)
	}

	embedded, err := s.store.CountEmbedded(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count embedded promotions: %w", err)
	}

	points, err := s.index.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count index points: %w", err)
	}

	return &Report{
		StoreTotal:    total,
		StoreEmbedded: embedded,
		IndexPoints:   points,
		Consistent:    embedded == points,
	}, nil
}
