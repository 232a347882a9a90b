package normalize

import (
	"context"
	"fmt"

	"github.com/jonesrussell/promocrawl/internal/config"
	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/logger"
)

// Sync persists normalized promotions into the record store under one
// of two policies: skip-existing (default) or full-refresh.
type Sync struct {
	log    logger.Interface
	store  Store
	policy string
}

// NewSync creates a persistence sync with the given policy.
func NewSync(log logger.Interface, store Store, policy string) *Sync {
	if policy == "" {
		policy = config.PolicySkipExisting
	}
	return &Sync{log: log, store: store, policy: policy}
}

// Persist normalizes the raw results and writes them to the store.
// Per-row insert failures are logged and skipped so the batch always
// completes. The returned slice holds the promotions actually inserted
// this run.
func (s *Sync) Persist(ctx context.Context, results []domain.RawResult) ([]domain.Promotion, error) {
	for _, r := range results {
		if r.Failed() {
			s.log.Warn("Site produced no offers this run", "url", r.URL, "error", r.Err)
		}
	}

	promos := MapResults(results)
	s.log.Info("Normalized crawl results",
		"sites", len(results), "offers", len(promos), "policy", s.policy)

	if s.policy == config.PolicyFullRefresh {
		return s.fullRefresh(ctx, promos)
	}
	return s.skipExisting(ctx, promos)
}

// skipExisting inserts only offers whose (bank, title) pair is not yet
// stored. Duplicate pairs within the same batch are also collapsed.
func (s *Sync) skipExisting(ctx context.Context, promos []domain.Promotion) ([]domain.Promotion, error) {
	inserted := make([]domain.Promotion, 0, len(promos))
	seen := make(map[string]struct{}, len(promos))

	for i := range promos {
		p := promos[i]

		if _, dup := seen[p.Key()]; dup {
			continue
		}
		seen[p.Key()] = struct{}{}

		exists, err := s.store.ExistsByBankTitle(ctx, p.Bank, p.Title)
		if err != nil {
			s.log.Error("Failed to check for existing offer",
				"bank", p.Bank, "title", p.Title, "error", err)
			continue
		}
		if exists {
			s.log.Debug("Offer already stored, skipping", "bank", p.Bank, "title", p.Title)
			continue
		}

		if err := s.store.Insert(ctx, &p); err != nil {
			s.log.Error("Failed to insert offer",
				"bank", p.Bank, "title", p.Title, "error", err)
			continue
		}
		inserted = append(inserted, p)
	}

	s.log.Info("Persisted offers", "inserted", len(inserted), "skipped", len(promos)-len(inserted))
	return inserted, nil
}

// fullRefresh deletes every stored offer and re-inserts the scraped
// set wholesale. All embedding flags are lost with the rows, so every
// offer will be re-embedded on the next embedding sync.
func (s *Sync) fullRefresh(ctx context.Context, promos []domain.Promotion) ([]domain.Promotion, error) {
	if err := s.store.DeleteAll(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear promotions: %w", err)
	}

	inserted := make([]domain.Promotion, 0, len(promos))
	seen := make(map[string]struct{}, len(promos))

	for i := range promos {
		p := promos[i]

		if _, dup := seen[p.Key()]; dup {
			continue
		}
		seen[p.Key()] = struct{}{}

		if err := s.store.Insert(ctx, &p); err != nil {
			s.log.Error("Failed to insert offer",
				"bank", p.Bank, "title", p.Title, "error", err)
			continue
		}
		inserted = append(inserted, p)
	}

	s.log.Info("Refreshed offers", "inserted", len(inserted))
	return inserted, nil
}
