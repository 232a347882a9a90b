package domain

// Payload is the denormalized copy of a promotion stored alongside its
// vector, so retrieval never needs a join back to the record store.
type Payload struct {
	Bank           string `json:"bank"`
	Title          string `json:"title"`
	LinkPromotion  string `json:"link_promotion"`
	CardType       string `json:"cardtype"`
	PaymentNetwork string `json:"payment_network"`
	Benefits       string `json:"benefits"`
	ValidUntil     string `json:"valid_until"`
}

// Point is one vector index entry. ID mirrors the promotion's record
// store ID; every point corresponds to exactly one stored promotion.
type Point struct {
	ID      int64     `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload Payload   `json:"payload"`
}

// ScoredPoint is a search hit: a point with its cosine similarity score.
// The vector itself is not returned by searches.
type ScoredPoint struct {
	ID      int64   `json:"id"`
	Score   float32 `json:"score"`
	Payload Payload `json:"payload"`
}

// PayloadFor builds the index payload for a promotion.
func PayloadFor(p *Promotion) Payload {
	return Payload{
		Bank:           p.Bank,
		Title:          p.Title,
		LinkPromotion:  p.LinkPromotion,
		CardType:       StrOr(p.CardType, ""),
		PaymentNetwork: StrOr(p.PaymentNetwork, ""),
		Benefits:       StrOr(p.Benefits, ""),
		ValidUntil:     StrOr(p.ValidUntil, ""),
	}
}
