// Package strategy implements per-bank offer extraction over a loaded
// browser page. Each bank gets a dedicated extractor because the DOM
// structure is bank-specific; there is no shared schema at this layer.
package strategy

import (
	"context"
	"time"

	"github.com/jonesrussell/promocrawl/internal/browser"
	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/logger"
)

const (
	// DefaultSelectorTimeout is how long extractors wait for their
	// offer-card selector before treating the site as having no offers.
	DefaultSelectorTimeout = 10 * time.Second

	// legacySelectorTimeout is the wait the pre-rewrite strategies used.
	// TODO: review whether 1s is long enough for the BBVA/Galicia/Nación
	// pages; it was inherited from the legacy scraper and looks too
	// short for client-side rendered lists.
	legacySelectorTimeout = 1 * time.Second
)

// Extractor extracts raw offers from a loaded page. Implementations
// fail soft: on any extraction error they return whatever was
// accumulated so far with the Err field set; a partial result is
// preferred over total failure.
type Extractor interface {
	// BankID is the stable identifier this strategy is registered under.
	BankID() string
	// Extract produces raw offers from the page. Bank and URL fields of
	// the result are filled in by the orchestrator.
	Extract(ctx context.Context, page browser.Page) domain.RawResult
}

// Registry maps stable bank identifiers to extraction strategies, with
// an explicit generic fallback for unrecognized sites.
type Registry struct {
	strategies map[string]Extractor
	fallback   Extractor
}

// NewRegistry builds the registry with all bank strategies and the
// generic fallback wired in.
func NewRegistry(log logger.Interface) *Registry {
	r := &Registry{
		strategies: make(map[string]Extractor),
		fallback:   NewGeneric(log),
	}

	r.Register(NewBancoCiudad(log))
	r.Register(NewBBVA(log))
	r.Register(NewGalicia(log))
	r.Register(NewNacion(log))

	return r
}

// Register adds a strategy under its bank ID.
func (r *Registry) Register(e Extractor) {
	r.strategies[e.BankID()] = e
}

// For returns the strategy registered for the bank ID, or the generic
// fallback when none exists (including the empty ID of unknown banks).
func (r *Registry) For(bankID string) Extractor {
	if e, ok := r.strategies[bankID]; ok {
		return e
	}
	return r.fallback
}

// Fallback returns the generic extractor.
func (r *Registry) Fallback() Extractor {
	return r.fallback
}

// sleep waits for d, returning early if the context is canceled.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
