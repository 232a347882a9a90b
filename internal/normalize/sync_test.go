package normalize_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/promocrawl/internal/config"
	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/logger"
	"github.com/jonesrussell/promocrawl/internal/normalize"
)

// fakeStore is an in-memory normalize.Store keyed by (bank, title).
type fakeStore struct {
	rows       map[string]domain.Promotion
	insertErr  error
	deleteAlls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]domain.Promotion)}
}

func (s *fakeStore) ExistsByBankTitle(_ context.Context, bank, title string) (bool, error) {
	_, ok := s.rows[bank+"\x00"+title]
	return ok, nil
}

func (s *fakeStore) Insert(_ context.Context, p *domain.Promotion) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	p.ID = int64(len(s.rows) + 1)
	s.rows[p.Key()] = *p
	return nil
}

func (s *fakeStore) DeleteAll(context.Context) error {
	s.rows = make(map[string]domain.Promotion)
	s.deleteAlls++
	return nil
}

func TestMapResult(t *testing.T) {
	t.Parallel()

	t.Run("flat offers map field by field", func(t *testing.T) {
		t.Parallel()

		promos := normalize.MapResult(domain.RawResult{
			Bank: "Banco Ciudad",
			URL:  "https://bancociudad.com.ar/beneficios",
			Offers: []domain.RawOffer{
				{Title: "20% en supermercados", Benefits: "20% de descuento", PaymentNetwork: "visa", ValidUntil: "lunes"},
				{Title: "Promo sin detalle"},
			},
		})

		require.Len(t, promos, 2)
		assert.Equal(t, "Banco Ciudad", promos[0].Bank)
		assert.Equal(t, "20% en supermercados", promos[0].Title)
		assert.Equal(t, "https://bancociudad.com.ar/beneficios", promos[0].LinkPromotion)
		require.NotNil(t, promos[0].PaymentNetwork)
		assert.Equal(t, "visa", *promos[0].PaymentNetwork)

		// Blank extraction fields become nulls, not empty strings.
		assert.Nil(t, promos[1].Benefits)
		assert.Nil(t, promos[1].PaymentNetwork)
		assert.Nil(t, promos[1].ValidUntil)
	})

	t.Run("grouped offers carry no card type or network", func(t *testing.T) {
		t.Parallel()

		promos := normalize.MapResult(domain.RawResult{
			Bank: "Banco Galicia",
			URL:  "https://beneficios.galicia.ar",
			Groups: []domain.RawGroup{
				{Titulo: "Cine 2x1", Descripcion: "2x1 en entradas", Validez: "31/12/2026"},
			},
		})

		require.Len(t, promos, 1)
		assert.Equal(t, "Cine 2x1", promos[0].Title)
		assert.Nil(t, promos[0].CardType)
		assert.Nil(t, promos[0].PaymentNetwork)
		require.NotNil(t, promos[0].ValidUntil)
		assert.Equal(t, "31/12/2026", *promos[0].ValidUntil)
	})

	t.Run("fallback maps to a single degraded promotion", func(t *testing.T) {
		t.Parallel()

		promos := normalize.MapResult(domain.RawResult{
			Bank:     "Unknown Bank",
			URL:      "https://example.com",
			Fallback: &domain.RawFallback{Title: "Promos", Content: "body text"},
		})

		require.Len(t, promos, 1)
		assert.Equal(t, "Promos", promos[0].Title)
		require.NotNil(t, promos[0].Benefits)
		assert.Equal(t, "body text", *promos[0].Benefits)
	})

	t.Run("missing title falls back to the sentinel", func(t *testing.T) {
		t.Parallel()

		promos := normalize.MapResult(domain.RawResult{
			Bank:   "BBVA",
			Offers: []domain.RawOffer{{Benefits: "10%"}},
		})

		require.Len(t, promos, 1)
		assert.Equal(t, domain.NoTitleSentinel, promos[0].Title)
	})

	t.Run("error result maps to nothing", func(t *testing.T) {
		t.Parallel()

		promos := normalize.MapResult(domain.RawResult{
			Bank: "BBVA",
			Err:  "navigation timeout",
		})
		assert.Empty(t, promos)
	})
}

func TestPersistSkipExisting(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	sync := normalize.NewSync(logger.NewNoop(), store, config.PolicySkipExisting)

	results := []domain.RawResult{{
		Bank: "Banco Ciudad",
		URL:  "https://bancociudad.com.ar/beneficios",
		Offers: []domain.RawOffer{
			{Title: "Promo A", Benefits: "20%"},
			{Title: "Promo B", Benefits: "10%"},
			{Title: "Promo A", Benefits: "duplicate within batch"},
		},
	}}

	inserted, err := sync.Persist(context.Background(), results)
	require.NoError(t, err)
	assert.Len(t, inserted, 2, "in-batch duplicate must be collapsed")
	assert.Len(t, store.rows, 2)

	// A second identical run inserts nothing.
	inserted, err = sync.Persist(context.Background(), results)
	require.NoError(t, err)
	assert.Empty(t, inserted)
	assert.Len(t, store.rows, 2)
}

func TestPersistSkipExistingKeepsGoingOnInsertFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.insertErr = errors.New("connection reset")
	sync := normalize.NewSync(logger.NewNoop(), store, config.PolicySkipExisting)

	inserted, err := sync.Persist(context.Background(), []domain.RawResult{{
		Bank:   "BBVA",
		Offers: []domain.RawOffer{{Title: "Promo A"}, {Title: "Promo B"}},
	}})

	require.NoError(t, err, "per-row failures must not fail the batch")
	assert.Empty(t, inserted)
}

func TestPersistFullRefresh(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	sync := normalize.NewSync(logger.NewNoop(), store, config.PolicyFullRefresh)

	first := []domain.RawResult{{
		Bank:   "BBVA",
		Offers: []domain.RawOffer{{Title: "Old promo"}},
	}}
	_, err := sync.Persist(context.Background(), first)
	require.NoError(t, err)

	second := []domain.RawResult{{
		Bank:   "BBVA",
		Offers: []domain.RawOffer{{Title: "New promo"}},
	}}
	inserted, err := sync.Persist(context.Background(), second)
	require.NoError(t, err)

	assert.Equal(t, 2, store.deleteAlls)
	assert.Len(t, inserted, 1)
	require.Len(t, store.rows, 1)
	for _, p := range store.rows {
		assert.Equal(t, "New promo", p.Title)
	}
}

func TestPersistDefaultsToSkipExisting(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	sync := normalize.NewSync(logger.NewNoop(), store, "")

	results := []domain.RawResult{{
		Bank:   "BBVA",
		Offers: []domain.RawOffer{{Title: "Promo"}},
	}}

	_, err := sync.Persist(context.Background(), results)
	require.NoError(t, err)
	_, err = sync.Persist(context.Background(), results)
	require.NoError(t, err)

	assert.Zero(t, store.deleteAlls)
	assert.Len(t, store.rows, 1)
}
