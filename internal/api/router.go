// Package api implements the HTTP surface of the service: scraping
// triggers, question answering, semantic search, and embedding
// maintenance.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/promocrawl/internal/config"
	"github.com/jonesrussell/promocrawl/internal/logger"
)

const readHeaderTimeout = 10 * time.Second

// Handlers bundles the endpoint handlers the router mounts.
type Handlers struct {
	Scrape     *ScrapeHandler
	RAG        *RAGHandler
	Embeddings *EmbeddingsHandler
}

// SetupRouter builds the gin engine with all routes and middleware.
func SetupRouter(log logger.Interface, h Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/scrape", h.Scrape.GetPromotions)
	router.POST("/scrape/refresh", h.Scrape.Refresh)
	router.GET("/scrape/status", h.Scrape.Status)

	router.POST("/rag/query", h.RAG.Query)
	router.POST("/rag/search", h.RAG.Search)

	router.POST("/embeddings/regenerate", h.Embeddings.Regenerate)
	router.GET("/embeddings/check", h.Embeddings.Check)

	return router
}

// NewHTTPServer wraps the router in an http.Server with the configured
// timeouts.
func NewHTTPServer(cfg config.ServerConfig, router *gin.Engine) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// loggingMiddleware logs every request with a per-request ID.
func loggingMiddleware(log logger.Interface) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		requestID := uuid.NewString()
		c.Header("X-Request-ID", requestID)

		c.Next()

		log.Info("HTTP Request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}
