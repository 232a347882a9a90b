package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/promocrawl/internal/domain"
)

// PromotionRepository handles database operations for promotions.
type PromotionRepository struct {
	db *sqlx.DB
}

// NewPromotionRepository creates a new promotion repository.
func NewPromotionRepository(db *sqlx.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

// Insert stores a new promotion and fills in its store-assigned ID and
// creation timestamp.
func (r *PromotionRepository) Insert(ctx context.Context, p *domain.Promotion) error {
	query := `
		INSERT INTO promotions (bank, title, link_promotion, cardtype,
		                        payment_network, benefits, valid_until,
		                        embedding_generated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		p.Bank,
		p.Title,
		p.LinkPromotion,
		p.CardType,
		p.PaymentNetwork,
		p.Benefits,
		p.ValidUntil,
		p.EmbeddingGen,
	).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert promotion: %w", err)
	}

	return nil
}

// ExistsByBankTitle reports whether a promotion with the same (bank,
// title) identity is already stored.
func (r *PromotionRepository) ExistsByBankTitle(ctx context.Context, bank, title string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM promotions WHERE bank = $1 AND title = $2)`

	if err := r.db.GetContext(ctx, &exists, query, bank, title); err != nil {
		return false, fmt.Errorf("failed to check promotion existence: %w", err)
	}

	return exists, nil
}

// ListAll retrieves stored promotions, newest first.
func (r *PromotionRepository) ListAll(ctx context.Context, limit int) ([]domain.Promotion, error) {
	var promos []domain.Promotion
	query := `SELECT * FROM promotions ORDER BY created_at DESC`

	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	if err := r.db.SelectContext(ctx, &promos, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}

	return promos, nil
}

// ListUnembedded retrieves up to limit promotions that have no vector
// representation yet.
func (r *PromotionRepository) ListUnembedded(ctx context.Context, limit int) ([]domain.Promotion, error) {
	var promos []domain.Promotion
	query := `
		SELECT * FROM promotions
		WHERE embedding_generated = FALSE
		ORDER BY created_at
		LIMIT $1
	`

	if err := r.db.SelectContext(ctx, &promos, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list unembedded promotions: %w", err)
	}

	return promos, nil
}

// MarkEmbedded sets the embedding-generated flag for one promotion.
func (r *PromotionRepository) MarkEmbedded(ctx context.Context, id int64, status bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE promotions SET embedding_generated = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update embedding flag: %w", err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("promotion %d: %w", id, sql.ErrNoRows)
	}

	return nil
}

// ResetEmbeddingFlags clears the embedding flag on every promotion so a
// forced regeneration re-embeds the whole store.
func (r *PromotionRepository) ResetEmbeddingFlags(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE promotions SET embedding_generated = FALSE WHERE embedding_generated = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("failed to reset embedding flags: %w", err)
	}

	affected, _ := res.RowsAffected()
	return affected, nil
}

// DeleteAll removes every stored promotion. Used by the full-refresh
// persistence policy.
func (r *PromotionRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM promotions`); err != nil {
		return fmt.Errorf("failed to delete promotions: %w", err)
	}
	return nil
}

// CountAll returns the number of stored promotions.
func (r *PromotionRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM promotions`); err != nil {
		return 0, fmt.Errorf("failed to count promotions: %w", err)
	}
	return count, nil
}

// CountEmbedded returns the number of promotions with a generated
// embedding.
func (r *PromotionRepository) CountEmbedded(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM promotions WHERE embedding_generated = TRUE`
	if err := r.db.GetContext(ctx, &count, query); err != nil {
		return 0, fmt.Errorf("failed to count embedded promotions: %w", err)
	}
	return count, nil
}

// IsEmpty reports whether the store holds no promotions at all.
func (r *PromotionRepository) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.CountAll(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
