package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/jonesrussell/promocrawl/internal/config"
)

// OpenAIProvider implements Provider on the OpenAI API via langchaingo.
type OpenAIProvider struct {
	llm         *openai.LLM
	temperature float64
}

// NewOpenAIProvider builds a provider using the configured models.
func NewOpenAIProvider(cfg config.OpenAIConfig) (*OpenAIProvider, error) {
	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.LLMModel),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}

	return &OpenAIProvider{
		llm:         llm,
		temperature: cfg.Temperature,
	}, nil
}

// CreateEmbeddings embeds texts in one batch call, preserving order.
func (p *OpenAIProvider) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := p.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embeddings: %w", err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d for %d texts",
			len(vectors), len(texts))
	}
	return vectors, nil
}

// Complete generates a completion at the configured low temperature to
// keep answers grounded in the supplied context.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	answer, err := llms.GenerateFromSinglePrompt(ctx, p.llm, prompt,
		llms.WithTemperature(p.temperature))
	if err != nil {
		return "", fmt.Errorf("failed to generate completion: %w", err)
	}
	return answer, nil
}
