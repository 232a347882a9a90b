// Package normalize maps heterogeneous per-bank raw results into the
// canonical promotion schema and syncs them into the record store.
// Shape branching happens exactly once, here; downstream code only ever
// sees canonical promotions.
package normalize

import (
	"context"

	"github.com/jonesrussell/promocrawl/internal/domain"
)

// MapResult converts one raw crawl result into canonical promotions.
// An error-only result maps to nothing: it represents a site that could
// not be scraped this run, not an offer.
func MapResult(r domain.RawResult) []domain.Promotion {
	switch {
	case len(r.Offers) > 0:
		return mapOffers(r)
	case len(r.Groups) > 0:
		return mapGroups(r)
	case r.Fallback != nil:
		return []domain.Promotion{mapFallback(r)}
	default:
		return nil
	}
}

// MapResults flattens a batch of raw results into canonical promotions.
func MapResults(results []domain.RawResult) []domain.Promotion {
	var promos []domain.Promotion
	for _, r := range results {
		promos = append(promos, MapResult(r)...)
	}
	return promos
}

// mapOffers maps the flat benefits shape field by field.
func mapOffers(r domain.RawResult) []domain.Promotion {
	promos := make([]domain.Promotion, 0, len(r.Offers))
	for _, o := range r.Offers {
		promos = append(promos, domain.Promotion{
			Bank:           r.Bank,
			Title:          titleOrSentinel(o.Title),
			LinkPromotion:  r.URL,
			CardType:       domain.StrPtr(o.CardType),
			PaymentNetwork: domain.StrPtr(o.PaymentNetwork),
			Benefits:       domain.StrPtr(o.Benefits),
			ValidUntil:     domain.StrPtr(o.ValidUntil),
		})
	}
	return promos
}

// mapGroups maps the nested "promociones" shape. That schema carries no
// card type or payment network; both stay null.
func mapGroups(r domain.RawResult) []domain.Promotion {
	promos := make([]domain.Promotion, 0, len(r.Groups))
	for _, g := range r.Groups {
		promos = append(promos, domain.Promotion{
			Bank:          r.Bank,
			Title:         titleOrSentinel(g.Titulo),
			LinkPromotion: r.URL,
			Benefits:      domain.StrPtr(g.Descripcion),
			ValidUntil:    domain.StrPtr(g.Validez),
		})
	}
	return promos
}

// mapFallback produces a single degraded promotion from a generic
// extraction: page title as the headline, body text as the benefit.
func mapFallback(r domain.RawResult) domain.Promotion {
	return domain.Promotion{
		Bank:          r.Bank,
		Title:         titleOrSentinel(r.Fallback.Title),
		LinkPromotion: r.URL,
		Benefits:      domain.StrPtr(r.Fallback.Content),
	}
}

func titleOrSentinel(title string) string {
	if title == "" {
		return domain.NoTitleSentinel
	}
	return title
}

// Store is the record-store surface the sync needs.
type Store interface {
	ExistsByBankTitle(ctx context.Context, bank, title string) (bool, error)
	Insert(ctx context.Context, p *domain.Promotion) error
	DeleteAll(ctx context.Context) error
}
