package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/promocrawl/internal/embedding"
	"github.com/jonesrussell/promocrawl/internal/logger"
)

// EmbeddingsHandler handles embedding maintenance requests.
type EmbeddingsHandler struct {
	log        logger.Interface
	sync       EmbeddingService
	batchLimit int
}

// NewEmbeddingsHandler creates a new embeddings handler.
func NewEmbeddingsHandler(log logger.Interface, sync EmbeddingService, batchLimit int) *EmbeddingsHandler {
	return &EmbeddingsHandler{
		log:        log,
		sync:       sync,
		batchLimit: batchLimit,
	}
}

// Regenerate handles POST /embeddings/regenerate.
func (h *EmbeddingsHandler) Regenerate(c *gin.Context) {
	var req RegenerateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid request payload",
			})
			return
		}
	}

	limit := req.Limit
	if limit <= 0 {
		limit = h.batchLimit
	}

	result, err := h.sync.Run(c.Request.Context(), req.Force, limit)
	if err != nil {
		if errors.Is(err, embedding.ErrSyncInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "An embedding sync is already in progress",
			})
			return
		}
		h.log.Error("Embedding sync failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Embedding sync failed",
		})
		return
	}

	c.JSON(http.StatusOK, result)
}

// Check handles GET /embeddings/check.
func (h *EmbeddingsHandler) Check(c *gin.Context) {
	report, err := h.sync.Check(c.Request.Context())
	if err != nil {
		h.log.Error("Embedding check failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Embedding check failed",
		})
		return
	}

	c.JSON(http.StatusOK, report)
}
