// Package domain defines the core types shared across the scraping,
// persistence, embedding, and retrieval components.
package domain

import (
	"fmt"
	"time"
)

// NoTitleSentinel is the headline used when a card exposes no title at
// all. It is the only sentinel that survives into storage: Title is a
// required column.
const NoTitleSentinel = "Sin título"

// Promotion is the canonical offer schema every bank-specific raw shape
// is normalized into before storage. Optional classification and text
// fields are nil when the source page did not expose them.
type Promotion struct {
	ID             int64     `db:"id" json:"id"`
	Bank           string    `db:"bank" json:"bank"`
	Title          string    `db:"title" json:"title"`
	LinkPromotion  string    `db:"link_promotion" json:"link_promotion"`
	CardType       *string   `db:"cardtype" json:"cardtype"`
	PaymentNetwork *string   `db:"payment_network" json:"payment_network"`
	Benefits       *string   `db:"benefits" json:"benefits"`
	ValidUntil     *string   `db:"valid_until" json:"valid_until"`
	EmbeddingGen   bool      `db:"embedding_generated" json:"embedding_generated"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Key returns the deduplication identity of a promotion. Two offers with
// the same bank and title are the same offer, even when their benefits
// text differs between runs.
func (p *Promotion) Key() string {
	return p.Bank + "\x00" + p.Title
}

// EmbeddingText builds the descriptive string that gets embedded for
// this promotion. Missing optional fields are rendered as "N/A" so the
// embedding input stays well-formed.
func (p *Promotion) EmbeddingText() string {
	return fmt.Sprintf(
		"Título: %s. Beneficios: %s. Válido hasta: %s.",
		p.Title,
		orNA(p.Benefits),
		orNA(p.ValidUntil),
	)
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

// StrPtr returns a pointer to s, or nil when s is empty. Used at the
// normalization boundary to turn extraction blanks into proper nulls.
func StrPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StrOr returns *s, or fallback when s is nil or empty.
func StrOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
