package strategy

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/promocrawl/internal/browser"
	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/logger"
)

// Semana Nación campaign page selectors.
const (
	nacionItemSelector     = ".beneficio"
	nacionTitleSelector    = ".beneficio__titulo"
	nacionDescSelector     = ".beneficio__descripcion"
	nacionValiditySelector = ".beneficio__validez"
)

// Nacion extracts the nested "promociones" list from the Banco Nación
// campaign site. That page groups offers with Spanish-named fields and
// carries no card type or payment network data.
type Nacion struct {
	log logger.Interface

	// SelectorTimeout is how long to wait for the list selector.
	SelectorTimeout time.Duration
}

// NewNacion creates the Banco Nación strategy.
func NewNacion(log logger.Interface) *Nacion {
	return &Nacion{
		log:             log,
		SelectorTimeout: legacySelectorTimeout,
	}
}

// BankID returns the stable strategy key.
func (s *Nacion) BankID() string { return "nacion" }

// Extract reads the grouped promotion entries from the loaded page.
func (s *Nacion) Extract(ctx context.Context, page browser.Page) domain.RawResult {
	if err := page.WaitVisible(ctx, nacionItemSelector, s.SelectorTimeout); err != nil {
		s.log.Warn("Nación promotions never appeared", "error", err)
		return domain.RawResult{Err: err.Error()}
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return domain.RawResult{Err: err.Error()}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return domain.RawResult{Err: err.Error()}
	}

	var groups []domain.RawGroup
	doc.Find(nacionItemSelector).Each(func(_ int, item *goquery.Selection) {
		groups = append(groups, domain.RawGroup{
			Titulo:      strings.TrimSpace(item.Find(nacionTitleSelector).First().Text()),
			Descripcion: strings.TrimSpace(item.Find(nacionDescSelector).First().Text()),
			Validez:     strings.TrimSpace(item.Find(nacionValiditySelector).First().Text()),
		})
	})

	s.log.Info("Finished scraping Nación", "promociones", len(groups))
	return domain.RawResult{Groups: groups}
}
