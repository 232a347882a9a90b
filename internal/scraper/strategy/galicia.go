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

// Banco Galicia promotions page selectors.
const (
	galiciaCardSelector     = ".promo-item"
	galiciaTitleSelector    = ".promo-item__name"
	galiciaBenefitSelector  = ".promo-item__benefit"
	galiciaCardTypeSelector = ".promo-item__card"
	galiciaValiditySelector = ".promo-item__vigencia"
)

// Galicia extracts the flat promotion list from the Banco Galicia
// benefits page. Galicia is the only site that exposes the card type on
// the listing itself.
type Galicia struct {
	log logger.Interface

	// SelectorTimeout is how long to wait for the card selector.
	SelectorTimeout time.Duration
}

// NewGalicia creates the Banco Galicia strategy.
func NewGalicia(log logger.Interface) *Galicia {
	return &Galicia{
		log:             log,
		SelectorTimeout: legacySelectorTimeout,
	}
}

// BankID returns the stable strategy key.
func (s *Galicia) BankID() string { return "galicia" }

// Extract reads all promotion items from the loaded page.
func (s *Galicia) Extract(ctx context.Context, page browser.Page) domain.RawResult {
	if err := page.WaitVisible(ctx, galiciaCardSelector, s.SelectorTimeout); err != nil {
		s.log.Warn("Galicia promotions never appeared", "error", err)
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

	var offers []domain.RawOffer
	doc.Find(galiciaCardSelector).Each(func(_ int, item *goquery.Selection) {
		offers = append(offers, domain.RawOffer{
			Title:      strings.TrimSpace(item.Find(galiciaTitleSelector).First().Text()),
			Benefits:   strings.TrimSpace(item.Find(galiciaBenefitSelector).First().Text()),
			CardType:   strings.TrimSpace(item.Find(galiciaCardTypeSelector).First().Text()),
			ValidUntil: strings.TrimSpace(item.Find(galiciaValiditySelector).First().Text()),
		})
	})

	s.log.Info("Finished scraping Galicia", "offers", len(offers))
	return domain.RawResult{Offers: offers}
}
