// Package llm wraps the external embedding and generation providers behind
// small interfaces. Providers are consumed as black boxes: text in, vector
// or text out. Every HTTP call is bounded by a timeout, rate limited, and
// protected by a circuit breaker.
package llm

import "context"

// TextGenerator is the interface for LLM answer generation.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
	GetModel() string
}

// EmbeddingGenerator is the interface for generating vector embeddings.
// EmbedBatch preserves input order: result[i] is the embedding of texts[i].
type EmbeddingGenerator interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float64, error)
	GetModel() string
}

// MarkupGenerator produces structured visualization markup (SVG or HTML)
// from a text prompt. Invoked only on explicit user request, never
// automatically.
type MarkupGenerator interface {
	GenerateMarkup(ctx context.Context, prompt string) (string, error)
}
