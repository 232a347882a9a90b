package strategy

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jonesrussell/promocrawl/internal/browser"
	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/logger"
)

// Banco Ciudad selectors. The payment-methods container is selected by
// exclusion because the site reuses the base flex classes on unrelated
// rows; only the container without the row/margin modifiers holds the
// payment icons.
const (
	ciudadCardSelector     = ".card-body"
	ciudadTitleSelector    = ".card-title"
	ciudadDiscountSelector = ".min-height-texto p.card-text.card-title-descuento"
	ciudadCuotasSelector   = ".min-height-texto p.card-text:not(.card-title-descuento)"
	ciudadMethodsSelector  = `.d-flex.align-items-center:not([class*="flex-row"]):not([class*="mt-1"]):not([class*="mt-md-3"])`
	ciudadMethodIconSel    = ".medio-pago"
	ciudadDaysSelector     = ".d-flex.flex-row.align-items-center.mt-1.mt-md-3"
	ciudadDaySpanSelector  = ".card-text.ps-2.dia-beneficio.fw-bold, .card-text.ps-2.dia-beneficio"
	ciudadNextSelector     = `.pagination.mb-5 a[title="Siguiente"]`
)

const (
	// ciudadMaxPages bounds worst-case runtime and guards against
	// infinite-pagination bugs.
	ciudadMaxPages = 10
	// ciudadSettleDelay gives the client-side renderer time to finish
	// after a pagination click before the next snapshot.
	ciudadSettleDelay = 2 * time.Second
)

// methodPrefix strips the leading "Medio de pago" label from payment
// icon alt text.
var methodPrefix = regexp.MustCompile(`^Medio de pago\s*`)

// BancoCiudad extracts promotion cards from the Banco Ciudad benefits
// site, following its client-side pagination.
type BancoCiudad struct {
	log logger.Interface

	// SelectorTimeout is how long to wait for the card selector on each
	// page before giving up.
	SelectorTimeout time.Duration
	// SettleDelay is the pause after a pagination click.
	SettleDelay time.Duration
	// MaxPages caps how many pages one extraction follows.
	MaxPages int
}

// NewBancoCiudad creates the Banco Ciudad strategy with its reviewed
// defaults.
func NewBancoCiudad(log logger.Interface) *BancoCiudad {
	return &BancoCiudad{
		log:             log,
		SelectorTimeout: DefaultSelectorTimeout,
		SettleDelay:     ciudadSettleDelay,
		MaxPages:        ciudadMaxPages,
	}
}

// BankID returns the stable strategy key.
func (s *BancoCiudad) BankID() string { return "bancociudad" }

// Extract walks the paginated card list, accumulating offers across
// pages. Any failure returns the offers collected so far with Err set.
func (s *BancoCiudad) Extract(ctx context.Context, page browser.Page) domain.RawResult {
	var offers []domain.RawOffer

	if err := page.WaitVisible(ctx, ciudadCardSelector, s.SelectorTimeout); err != nil {
		s.log.Warn("Banco Ciudad cards never appeared", "error", err)
		return domain.RawResult{Err: err.Error()}
	}

	for pageNum := 1; pageNum <= s.MaxPages; pageNum++ {
		s.log.Debug("Scraping Banco Ciudad page", "page", pageNum)

		html, err := page.HTML(ctx)
		if err != nil {
			return domain.RawResult{Offers: offers, Err: err.Error()}
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			return domain.RawResult{Offers: offers, Err: err.Error()}
		}

		doc.Find(ciudadCardSelector).Each(func(_ int, card *goquery.Selection) {
			offers = append(offers, extractCiudadCard(card))
		})

		if pageNum == s.MaxPages || !hasNextPage(doc) {
			break
		}

		if err := s.advancePage(ctx, page); err != nil {
			s.log.Warn("Banco Ciudad pagination stopped early",
				"page", pageNum, "error", err)
			return domain.RawResult{Offers: offers, Err: err.Error()}
		}
	}

	s.log.Info("Finished scraping Banco Ciudad", "offers", len(offers))
	return domain.RawResult{Offers: offers}
}

// advancePage clicks the next-page control and waits for the new card
// list to render.
func (s *BancoCiudad) advancePage(ctx context.Context, page browser.Page) error {
	if err := page.Click(ctx, ciudadNextSelector); err != nil {
		return err
	}
	if err := page.WaitVisible(ctx, ciudadCardSelector, s.SelectorTimeout); err != nil {
		return err
	}
	sleep(ctx, s.SettleDelay)
	return nil
}

// extractCiudadCard pulls one offer out of a card node. Missing nodes
// yield empty fields; the normalization layer turns blanks into nulls.
func extractCiudadCard(card *goquery.Selection) domain.RawOffer {
	title := strings.TrimSpace(card.Find(ciudadTitleSelector).First().Text())
	discount := strings.TrimSpace(card.Find(ciudadDiscountSelector).First().Text())
	cuotas := strings.TrimSpace(card.Find(ciudadCuotasSelector).First().Text())

	// Combine whichever of discount / installment lines are present.
	var parts []string
	if discount != "" {
		parts = append(parts, discount)
	}
	if cuotas != "" {
		parts = append(parts, cuotas)
	}

	return domain.RawOffer{
		Title:          title,
		Benefits:       strings.Join(parts, ", "),
		PaymentNetwork: extractPaymentMethods(card),
		ValidUntil:     extractValidDays(card),
	}
}

// extractPaymentMethods reads payment-network names from icon alt text
// inside the exclusion-selected container.
func extractPaymentMethods(card *goquery.Selection) string {
	container := card.Find(ciudadMethodsSelector).First()
	if container.Length() == 0 {
		return ""
	}

	var methods []string
	container.Find(ciudadMethodIconSel).Each(func(_ int, img *goquery.Selection) {
		alt, _ := img.Attr("alt")
		method := strings.ToLower(strings.TrimSpace(methodPrefix.ReplaceAllString(alt, "")))
		if method != "" {
			methods = append(methods, method)
		}
	})

	return strings.Join(methods, ", ")
}

// extractValidDays joins the validity-day spans from the dedicated
// container.
func extractValidDays(card *goquery.Selection) string {
	container := card.Find(ciudadDaysSelector).First()
	if container.Length() == 0 {
		return ""
	}

	var days []string
	container.Find(ciudadDaySpanSelector).Each(func(_ int, span *goquery.Selection) {
		if text := strings.TrimSpace(span.Text()); text != "" {
			days = append(days, text)
		}
	})

	return strings.Join(days, ", ")
}

// hasNextPage reports whether an enabled next-page control is present
// in the snapshot.
func hasNextPage(doc *goquery.Document) bool {
	next := doc.Find(ciudadNextSelector).First()
	return next.Length() > 0 && !next.HasClass("disabled")
}
