package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/promocrawl/internal/logger"
	"github.com/jonesrussell/promocrawl/internal/scraper"
)

// ScrapeHandler handles scraping-related HTTP requests.
type ScrapeHandler struct {
	log   logger.Interface
	crawl CrawlService
	store PromotionStore
}

// NewScrapeHandler creates a new scrape handler.
func NewScrapeHandler(log logger.Interface, crawl CrawlService, store PromotionStore) *ScrapeHandler {
	return &ScrapeHandler{
		log:   log,
		crawl: crawl,
		store: store,
	}
}

// GetPromotions handles GET /scrape. It serves stored promotions, first
// running a crawl when the store is empty so a fresh deployment returns
// data on its first request.
func (h *ScrapeHandler) GetPromotions(c *gin.Context) {
	ctx := c.Request.Context()

	empty, err := h.store.IsEmpty(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check promotion store",
		})
		return
	}

	if empty {
		if _, runErr := h.crawl.Run(ctx); runErr != nil {
			if errors.Is(runErr, scraper.ErrCrawlInProgress) {
				c.JSON(http.StatusConflict, gin.H{
					"error": "A scraping run is already in progress",
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Scraping run failed",
			})
			return
		}
	}

	promos, err := h.store.ListAll(ctx, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list promotions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"promotions": promos,
		"total":      len(promos),
	})
}

// Refresh handles POST /scrape/refresh. The crawl is admitted before
// the response is written and runs detached from the request, so a 202
// always means exactly one run started.
func (h *ScrapeHandler) Refresh(c *gin.Context) {
	if err := h.crawl.RunAsync(context.Background()); err != nil {
		if errors.Is(err, scraper.ErrCrawlInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "A scraping run is already in progress",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start scraping run",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Scraping run started",
	})
}

// Status handles GET /scrape/status.
func (h *ScrapeHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.crawl.Status())
}
