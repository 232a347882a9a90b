package strategy

import (
	"context"

	"github.com/jonesrussell/promocrawl/internal/browser"
	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/logger"
)

// Generic is the null-object fallback strategy for URLs with no
// registered extractor. It captures the page title and body text as a
// single degraded offer so an unrecognized site still yields something
// searchable.
type Generic struct {
	log logger.Interface
}

// NewGeneric creates the fallback strategy.
func NewGeneric(log logger.Interface) *Generic {
	return &Generic{log: log}
}

// BankID returns the empty key; the fallback is never registered.
func (s *Generic) BankID() string { return "" }

// Extract captures page title and body text.
func (s *Generic) Extract(ctx context.Context, page browser.Page) domain.RawResult {
	title, err := page.Title(ctx)
	if err != nil {
		return domain.RawResult{Err: err.Error()}
	}

	content, err := page.Text(ctx, "body")
	if err != nil {
		return domain.RawResult{Err: err.Error()}
	}

	s.log.Debug("Generic extraction", "title", title)
	return domain.RawResult{Fallback: &domain.RawFallback{
		Title:   title,
		Content: content,
	}}
}
