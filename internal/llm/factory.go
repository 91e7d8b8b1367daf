package llm

import (
	"fmt"

	"github.com/scrypster/praxis/internal/config"
)

// NewTextGenerator creates the answer-generation client for the configured
// provider.
func NewTextGenerator(cfg config.LLMConfig) (TextGenerator, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			APIKey:            cfg.GeminiAPIKey,
			Model:             cfg.GeminiModel,
			Timeout:           cfg.RequestTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL:           cfg.OllamaURL,
			Model:             cfg.OllamaModel,
			Timeout:           cfg.RequestTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// NewEmbeddingGenerator creates the embedding client for the configured
// provider. The embedding model name doubles as the version pin for cache
// and index entries.
func NewEmbeddingGenerator(cfg config.LLMConfig) (EmbeddingGenerator, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			APIKey:            cfg.GeminiAPIKey,
			Model:             cfg.GeminiEmbedModel,
			OutputDimension:   cfg.EmbeddingDimension,
			Timeout:           cfg.RequestTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL:           cfg.OllamaURL,
			Model:             cfg.OllamaEmbedModel,
			Timeout:           cfg.RequestTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}

// NewMarkupGenerator creates the client used for SVG/HTML diagram markup.
// Gemini uses the cheaper markup model; Ollama reuses the text model.
func NewMarkupGenerator(cfg config.LLMConfig) (MarkupGenerator, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			APIKey:            cfg.GeminiAPIKey,
			Model:             cfg.GeminiMarkupModel,
			Timeout:           cfg.RequestTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	case "ollama", "":
		return NewOllamaClient(OllamaConfig{
			BaseURL:           cfg.OllamaURL,
			Model:             cfg.OllamaModel,
			Timeout:           cfg.RequestTimeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", cfg.Provider)
	}
}
