package api

import (
	"context"

	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/embedding"
	"github.com/jonesrussell/promocrawl/internal/scraper"
)

// CrawlService triggers and reports on scraping runs. RunAsync admits a
// run synchronously and executes it in the background, so its return
// value alone decides whether a run started.
type CrawlService interface {
	Run(ctx context.Context) ([]domain.Promotion, error)
	RunAsync(ctx context.Context) error
	Status() scraper.Status
}

// PromotionStore is the read surface the scrape endpoints need.
type PromotionStore interface {
	ListAll(ctx context.Context, limit int) ([]domain.Promotion, error)
	IsEmpty(ctx context.Context) (bool, error)
}

// EmbeddingService runs embedding sync passes and consistency checks.
type EmbeddingService interface {
	Run(ctx context.Context, force bool, limit int) (*embedding.Result, error)
	Check(ctx context.Context) (*embedding.Report, error)
}

// AnswerService answers questions and searches over indexed offers.
type AnswerService interface {
	Answer(ctx context.Context, question string) (string, error)
	Search(ctx context.Context, query string, limit int) ([]domain.ScoredPoint, error)
}

// QueryRequest is the body of POST /rag/query.
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
}

// QueryResponse is the body returned by POST /rag/query.
type QueryResponse struct {
	Answer         string `json:"answer"`
	ProcessingTime string `json:"processingTime"`
}

// SearchRequest is the body of POST /rag/search.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
	Limit int    `json:"limit"`
}

// SearchResponse is the body returned by POST /rag/search.
type SearchResponse struct {
	Results []domain.ScoredPoint `json:"results"`
	Total   int                  `json:"total"`
}

// RegenerateRequest is the body of POST /embeddings/regenerate.
type RegenerateRequest struct {
	Force bool `json:"force"`
	Limit int  `json:"limit"`
}
