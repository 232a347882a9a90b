// Package llm wraps the embedding and completion provider behind small
// interfaces so the sync and RAG services can be tested without network
// access.
package llm

import "context"

// Embedder turns texts into fixed-dimension vectors.
type Embedder interface {
	// CreateEmbeddings embeds texts in one batch call, preserving order.
	CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer generates a completion for a fully rendered prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Provider is an Embedder and a Completer backed by the same account.
type Provider interface {
	Embedder
	Completer
}
