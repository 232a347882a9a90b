package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/promocrawl/internal/logger"
	"github.com/jonesrussell/promocrawl/internal/rag"
)

// RAGHandler handles question answering and semantic search requests.
type RAGHandler struct {
	log logger.Interface
	rag AnswerService
}

// NewRAGHandler creates a new RAG handler.
func NewRAGHandler(log logger.Interface, rag AnswerService) *RAGHandler {
	return &RAGHandler{log: log, rag: rag}
}

// Query handles POST /rag/query.
func (h *RAGHandler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: question is required",
		})
		return
	}

	start := time.Now()
	answer, err := h.rag.Answer(c.Request.Context(), req.Question)
	if err != nil {
		h.log.Error("Failed to answer question", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to answer question",
		})
		return
	}

	c.JSON(http.StatusOK, QueryResponse{
		Answer:         answer,
		ProcessingTime: time.Since(start).Round(time.Millisecond).String(),
	})
}

// Search handles POST /rag/search.
func (h *RAGHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request: query is required",
		})
		return
	}

	if req.Limit > rag.MaxTopK {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("El límite máximo es %d", rag.MaxTopK),
		})
		return
	}

	results, err := h.rag.Search(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		h.log.Error("Failed to search promotions", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Search failed",
		})
		return
	}

	c.JSON(http.StatusOK, SearchResponse{
		Results: results,
		Total:   len(results),
	})
}
