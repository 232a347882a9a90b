package domain

// RawOffer is one offer card as extracted from a bank page. Fields are
// empty strings when the corresponding DOM node was missing; the
// normalization layer converts blanks to nulls.
type RawOffer struct {
	Title          string `json:"title"`
	Benefits       string `json:"benefits"`
	CardType       string `json:"cardtype"`
	PaymentNetwork string `json:"payment_network"`
	ValidUntil     string `json:"valid_until"`
}

// RawGroup is a nested promotion entry produced by banks that group
// offers under a "promociones" list. That schema carries no card type or
// payment network information.
type RawGroup struct {
	Titulo      string `json:"titulo"`
	Descripcion string `json:"descripcion"`
	Validez     string `json:"validez"`
}

// RawFallback is the degraded single-offer shape produced by the generic
// extractor when no bank-specific strategy is registered for a URL.
type RawFallback struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// RawResult is the outcome of scraping one URL: a tagged union of the
// three extraction shapes, or an error when the site could not be
// scraped this run. Exactly one of Offers, Groups, Fallback, or Err is
// set; an error result is excluded from persistence.
type RawResult struct {
	Bank string `json:"bank"`
	URL  string `json:"url"`

	Offers   []RawOffer   `json:"benefits,omitempty"`
	Groups   []RawGroup   `json:"promociones,omitempty"`
	Fallback *RawFallback `json:"fallback,omitempty"`
	Err      string       `json:"error,omitempty"`
}

// Failed reports whether this result represents a site that could not
// be scraped and produced no offers at all.
func (r *RawResult) Failed() bool {
	return r.Err != "" && len(r.Offers) == 0 && len(r.Groups) == 0 && r.Fallback == nil
}
