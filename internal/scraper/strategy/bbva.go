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

// BBVA benefits page selectors.
const (
	bbvaCardSelector     = ".benefit-card"
	bbvaTitleSelector    = ".benefit-card__title"
	bbvaDiscountSelector = ".benefit-card__discount"
	bbvaBrandsSelector   = ".benefit-card__brands img"
	bbvaValiditySelector = ".benefit-card__validity"
)

// BBVA extracts the flat benefit-card list from the BBVA promotions
// page. The page renders in one shot; there is no pagination.
type BBVA struct {
	log logger.Interface

	// SelectorTimeout is how long to wait for the card selector.
	SelectorTimeout time.Duration
}

// NewBBVA creates the BBVA strategy.
func NewBBVA(log logger.Interface) *BBVA {
	return &BBVA{
		log:             log,
		SelectorTimeout: legacySelectorTimeout,
	}
}

// BankID returns the stable strategy key.
func (s *BBVA) BankID() string { return "bbva" }

// Extract reads all benefit cards from the loaded page.
func (s *BBVA) Extract(ctx context.Context, page browser.Page) domain.RawResult {
	if err := page.WaitVisible(ctx, bbvaCardSelector, s.SelectorTimeout); err != nil {
		s.log.Warn("BBVA cards never appeared", "error", err)
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
	doc.Find(bbvaCardSelector).Each(func(_ int, card *goquery.Selection) {
		var brands []string
		card.Find(bbvaBrandsSelector).Each(func(_ int, img *goquery.Selection) {
			if alt, _ := img.Attr("alt"); strings.TrimSpace(alt) != "" {
				brands = append(brands, strings.TrimSpace(alt))
			}
		})

		offers = append(offers, domain.RawOffer{
			Title:          strings.TrimSpace(card.Find(bbvaTitleSelector).First().Text()),
			Benefits:       strings.TrimSpace(card.Find(bbvaDiscountSelector).First().Text()),
			PaymentNetwork: strings.Join(brands, ", "),
			ValidUntil:     strings.TrimSpace(card.Find(bbvaValiditySelector).First().Text()),
		})
	})

	s.log.Info("Finished scraping BBVA", "offers", len(offers))
	return domain.RawResult{Offers: offers}
}
