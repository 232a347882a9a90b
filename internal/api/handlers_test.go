package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/promocrawl/internal/api"
	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/embedding"
	"github.com/jonesrussell/promocrawl/internal/logger"
	"github.com/jonesrussell/promocrawl/internal/rag"
	"github.com/jonesrussell/promocrawl/internal/scraper"
)

type fakeCrawl struct {
	runs       chan struct{}
	inProgress bool
	runErr     error
}

func (c *fakeCrawl) Run(context.Context) ([]domain.Promotion, error) {
	if c.runs != nil {
		c.runs <- struct{}{}
	}
	return nil, c.runErr
}

func (c *fakeCrawl) RunAsync(ctx context.Context) error {
	if c.inProgress {
		return scraper.ErrCrawlInProgress
	}
	go func() {
		_, _ = c.Run(ctx)
	}()
	return nil
}

func (c *fakeCrawl) Status() scraper.Status {
	st := scraper.Status{Status: scraper.StateReady}
	if c.inProgress {
		st.Status = scraper.StateInProgress
	}
	return st
}

type fakeStore struct {
	promos []domain.Promotion
}

func (s *fakeStore) ListAll(context.Context, int) ([]domain.Promotion, error) {
	return s.promos, nil
}

func (s *fakeStore) IsEmpty(context.Context) (bool, error) {
	return len(s.promos) == 0, nil
}

type fakeEmbed struct {
	result *embedding.Result
	report *embedding.Report
	err    error

	lastForce bool
	lastLimit int
}

func (e *fakeEmbed) Run(_ context.Context, force bool, limit int) (*embedding.Result, error) {
	e.lastForce = force
	e.lastLimit = limit
	return e.result, e.err
}

func (e *fakeEmbed) Check(context.Context) (*embedding.Report, error) {
	return e.report, e.err
}

type fakeAnswerer struct {
	answer string
	hits   []domain.ScoredPoint
	err    error

	lastLimit int
}

func (a *fakeAnswerer) Answer(context.Context, string) (string, error) {
	return a.answer, a.err
}

func (a *fakeAnswerer) Search(_ context.Context, _ string, limit int) ([]domain.ScoredPoint, error) {
	a.lastLimit = limit
	return a.hits, a.err
}

type testDeps struct {
	crawl *fakeCrawl
	store *fakeStore
	embed *fakeEmbed
	rag   *fakeAnswerer
}

func newTestRouter(t *testing.T, deps testDeps) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNoop()
	return api.SetupRouter(log, api.Handlers{
		Scrape:     api.NewScrapeHandler(log, deps.crawl, deps.store),
		RAG:        api.NewRAGHandler(log, deps.rag),
		Embeddings: api.NewEmbeddingsHandler(log, deps.embed, 100),
	})
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetPromotionsServesStoredData(t *testing.T) {
	t.Parallel()

	crawl := &fakeCrawl{runs: make(chan struct{}, 1)}
	router := newTestRouter(t, testDeps{
		crawl: crawl,
		store: &fakeStore{promos: []domain.Promotion{{ID: 1, Bank: "BBVA", Title: "Promo"}}},
		embed: &fakeEmbed{},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodGet, "/scrape", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, crawl.runs, "a populated store must not trigger a crawl")

	var resp struct {
		Promotions []domain.Promotion `json:"promotions"`
		Total      int                `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Promotions, 1)
	assert.Equal(t, "BBVA", resp.Promotions[0].Bank)
}

func TestGetPromotionsCrawlsWhenStoreEmpty(t *testing.T) {
	t.Parallel()

	crawl := &fakeCrawl{runs: make(chan struct{}, 1)}
	router := newTestRouter(t, testDeps{
		crawl: crawl,
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodGet, "/scrape", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, crawl.runs, 1)
}

func TestGetPromotionsConflictsOnInFlightRun(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{runErr: scraper.ErrCrawlInProgress},
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodGet, "/scrape", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRefreshRejectsWhenRunInProgress(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{inProgress: true},
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodPost, "/scrape/refresh", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRefreshStartsBackgroundRun(t *testing.T) {
	t.Parallel()

	crawl := &fakeCrawl{runs: make(chan struct{}, 1)}
	router := newTestRouter(t, testDeps{
		crawl: crawl,
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodPost, "/scrape/refresh", nil)
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case <-crawl.runs:
	case <-time.After(time.Second):
		t.Fatal("background crawl never started")
	}
}

func TestScrapeStatus(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{inProgress: true},
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodGet, "/scrape/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "in_progress", body["status"])
	assert.Contains(t, body, "dataAvailable")
}

func TestScrapeStatusReportsReadyWhenIdle(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{},
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodGet, "/scrape/status", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestQueryRequiresQuestion(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{},
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodPost, "/rag/query", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryReturnsAnswerWithTiming(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{},
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   &fakeAnswerer{answer: "Hay un 30% en BBVA."},
	})

	w := doJSON(t, router, http.MethodPost, "/rag/query",
		api.QueryRequest{Question: "¿Qué promos hay?"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.QueryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Hay un 30% en BBVA.", resp.Answer)
	assert.NotEmpty(t, resp.ProcessingTime)
}

func TestSearchPassesLimitThrough(t *testing.T) {
	t.Parallel()

	answerer := &fakeAnswerer{hits: []domain.ScoredPoint{{ID: 1}}}
	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{},
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   answerer,
	})

	w := doJSON(t, router, http.MethodPost, "/rag/search",
		api.SearchRequest{Query: "descuentos", Limit: 7})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 7, answerer.lastLimit)

	var resp api.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
}

func TestSearchRejectsLimitAboveMax(t *testing.T) {
	t.Parallel()

	answerer := &fakeAnswerer{}
	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{},
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   answerer,
	})

	w := doJSON(t, router, http.MethodPost, "/rag/search",
		api.SearchRequest{Query: "descuentos", Limit: rag.MaxTopK + 1})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, answerer.lastLimit, "an oversized limit must never reach the service")
}

func TestRegenerateConflictsOnInFlightSync(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{},
		store: &fakeStore{},
		embed: &fakeEmbed{err: embedding.ErrSyncInProgress},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodPost, "/embeddings/regenerate",
		api.RegenerateRequest{Force: true})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegenerateDefaultsLimit(t *testing.T) {
	t.Parallel()

	embed := &fakeEmbed{result: &embedding.Result{Embedded: 3}}
	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{},
		store: &fakeStore{},
		embed: embed,
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodPost, "/embeddings/regenerate",
		api.RegenerateRequest{Force: true})
	require.Equal(t, http.StatusOK, w.Code)

	assert.True(t, embed.lastForce)
	assert.Equal(t, 100, embed.lastLimit, "zero limit falls back to the configured batch size")
}

func TestEmbeddingsCheck(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{},
		store: &fakeStore{},
		embed: &fakeEmbed{report: &embedding.Report{StoreTotal: 5, StoreEmbedded: 5, IndexPoints: 5, Consistent: true}},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodGet, "/embeddings/check", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report embedding.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.Consistent)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, testDeps{
		crawl: &fakeCrawl{},
		store: &fakeStore{},
		embed: &fakeEmbed{},
		rag:   &fakeAnswerer{},
	})

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
