// Package rag answers natural-language questions about stored
// promotions by retrieving the nearest offers from the vector index and
// grounding a completion on them.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/prompts"

	"github.com/jonesrussell/promocrawl/internal/domain"
	"github.com/jonesrussell/promocrawl/internal/llm"
	"github.com/jonesrussell/promocrawl/internal/logger"
	"github.com/jonesrussell/promocrawl/internal/vector"
)

const (
	// DefaultTopK is the number of offers retrieved per question.
	DefaultTopK = 5
	// MaxTopK caps client-requested retrieval sizes.
	MaxTopK = 20

	// unspecifiedField replaces missing optional fields in the rendered
	// context so the model never sees empty values.
	unspecifiedField = "No especificado"

	// fallbackAnswer is returned when a provider call fails while
	// answering, on either the retrieval or the completion path. Search
	// keeps surfacing provider errors to its callers.
	fallbackAnswer = "Lo siento, no pude generar una respuesta en este momento. " +
		"Por favor, intentá de nuevo más tarde."
)

const answerTemplate = `Sos Savy, un asistente experto en promociones bancarias argentinas.
Respondé la pregunta del usuario usando únicamente la información del contexto.
Si el contexto no contiene la respuesta, decilo claramente. No inventes promociones,
bancos, descuentos ni fechas que no estén en el contexto.

Contexto:
{{.context}}

Pregunta: {{.question}}

Respuesta:`

// Service answers questions over the indexed promotions.
type Service struct {
	log      logger.Interface
	index    vector.Index
	provider llm.Provider
	template prompts.PromptTemplate
}

// NewService creates a RAG service over the given index and provider.
func NewService(log logger.Interface, index vector.Index, provider llm.Provider) *Service {
	return &Service{
		log:      log,
		index:    index,
		provider: provider,
		template: prompts.NewPromptTemplate(answerTemplate, []string{"context", "question"}),
	}
}

// Search embeds the query and returns the nearest offers. A limit of
// zero or less selects the default; limits above MaxTopK are clamped.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]domain.ScoredPoint, error) {
	limit = clampLimit(limit)

	vec, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.index.Search(ctx, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}
	return hits, nil
}

// Answer retrieves the offers nearest to the question and generates a
// grounded answer. Provider failures on both the retrieval and the
// completion path degrade to a static apology so the chat surface stays
// usable; callers needing hard errors use Search directly.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	hits, err := s.Search(ctx, question, DefaultTopK)
	if err != nil {
		s.log.Error("Retrieval failed, returning fallback answer", "error", err)
		return fallbackAnswer, nil
	}

	prompt, err := s.template.Format(map[string]any{
		"context":  FormatContext(hits),
		"question": question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}

	answer, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		s.log.Error("Completion failed, returning fallback answer", "error", err)
		return fallbackAnswer, nil
	}
	return strings.TrimSpace(answer), nil
}

func (s *Service) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vectors, err := s.provider.CreateEmbeddings(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding provider returned no vector")
	}
	return vectors[0], nil
}

// FormatContext renders retrieved offers as labeled blocks for the
// prompt. An empty result set renders an explicit no-data marker so the
// model declines instead of improvising.
func FormatContext(hits []domain.ScoredPoint) string {
	if len(hits) == 0 {
		return "No hay promociones disponibles en este momento."
	}

	blocks := make([]string, 0, len(hits))
	for _, hit := range hits {
		p := hit.Payload
		var b strings.Builder
		fmt.Fprintf(&b, "Promoción: %s\n", orUnspecified(p.Title))
		fmt.Fprintf(&b, "Banco: %s\n", orUnspecified(p.Bank))
		fmt.Fprintf(&b, "Beneficios: %s\n", orUnspecified(p.Benefits))
		fmt.Fprintf(&b, "Válido hasta: %s\n", orUnspecified(p.ValidUntil))
		fmt.Fprintf(&b, "Link: %s", orUnspecified(p.LinkPromotion))
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return unspecifiedField
	}
	return s
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultTopK
	}
	if limit > MaxTopK {
		return MaxTopK
	}
	return limit
}
