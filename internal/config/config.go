// Package config provides configuration management for Praxis.
// It loads settings from environment variables with the PRAXIS_ prefix
// and provides sensible defaults for all configuration options.
//
// Every matching threshold lives here rather than inline in the cache or
// index code, so the matching policy stays auditable and tunable without
// touching any logic.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the Praxis application.
type Config struct {
	Storage   StorageConfig
	LLM       LLMConfig
	Retrieval RetrievalConfig
}

// StorageConfig contains record-store and cache-file configuration.
type StorageConfig struct {
	StorageEngine string // Record store engine: jsonfile, sqlite (default: jsonfile)
	DataPath      string // Path to data directory (default: ./data)
}

// LLMConfig contains embedding and generation provider configuration.
type LLMConfig struct {
	Provider           string        // Provider: gemini, ollama (default: ollama)
	GeminiAPIKey       string        // Google AI API key
	GeminiModel        string        // Gemini model for answers (default: gemini-2.5-pro)
	GeminiMarkupModel  string        // Gemini model for SVG/HTML markup (default: gemini-2.5-flash)
	GeminiEmbedModel   string        // Gemini embedding model (default: gemini-embedding-001)
	OllamaURL          string        // Ollama API URL (default: http://localhost:11434)
	OllamaModel        string        // Ollama model for answers (default: qwen2.5:7b)
	OllamaEmbedModel   string        // Ollama embedding model (default: nomic-embed-text)
	EmbeddingDimension int           // Embedding vector dimension (default: 768)
	RequestTimeout     time.Duration // Per-call timeout for provider requests (default: 30s)
	RequestsPerSecond  float64       // Rate limit for provider calls (default: 5)
}

// RetrievalConfig contains the similarity-matching policy.
type RetrievalConfig struct {
	// CacheThreshold is the minimum cosine similarity for a persistent
	// answer-cache hit (default: 0.85).
	CacheThreshold float64

	// VisualThreshold is the minimum cosine similarity for diagram and
	// image search results (default: 0.65). Below it, no result is
	// returned even if it ranks first.
	VisualThreshold float64

	// TopK is the number of grounding records retrieved per query
	// (default: 5).
	TopK int

	// RequireContext decides what happens when retrieval finds nothing:
	// true short-circuits with ErrNoRelevantRecords, false proceeds to
	// generation with no grounding context (default: false).
	RequireContext bool
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the PRAXIS_ prefix.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Storage: StorageConfig{
			StorageEngine: getEnv("PRAXIS_STORAGE_ENGINE", "jsonfile"),
			DataPath:      getEnv("PRAXIS_DATA_PATH", "./data"),
		},
		LLM: LLMConfig{
			Provider:           getEnv("PRAXIS_LLM_PROVIDER", "ollama"),
			GeminiAPIKey:       getEnv("PRAXIS_GEMINI_API_KEY", ""),
			GeminiModel:        getEnv("PRAXIS_GEMINI_MODEL", "gemini-2.5-pro"),
			GeminiMarkupModel:  getEnv("PRAXIS_GEMINI_MARKUP_MODEL", "gemini-2.5-flash"),
			GeminiEmbedModel:   getEnv("PRAXIS_GEMINI_EMBED_MODEL", "gemini-embedding-001"),
			OllamaURL:          getEnv("PRAXIS_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("PRAXIS_OLLAMA_MODEL", "qwen2.5:7b"),
			OllamaEmbedModel:   getEnv("PRAXIS_OLLAMA_EMBED_MODEL", "nomic-embed-text"),
			EmbeddingDimension: getEnvInt("PRAXIS_EMBEDDING_DIMENSION", 768),
			RequestTimeout:     getEnvDuration("PRAXIS_REQUEST_TIMEOUT", 30*time.Second),
			RequestsPerSecond:  getEnvFloat("PRAXIS_REQUESTS_PER_SECOND", 5),
		},
		Retrieval: RetrievalConfig{
			CacheThreshold:  getEnvFloat("PRAXIS_CACHE_THRESHOLD", 0.85),
			VisualThreshold: getEnvFloat("PRAXIS_VISUAL_THRESHOLD", 0.65),
			TopK:            getEnvInt("PRAXIS_TOP_K", 5),
			RequireContext:  getEnvBool("PRAXIS_REQUIRE_CONTEXT", false),
		},
	}
	return cfg, nil
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. An unparsable value falls back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat retrieves a float environment variable or returns a default
// value. An unparsable value falls back to the default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default
// value. It recognizes "true", "1", "yes" and "false", "0", "no".
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch value {
		case "true", "1", "yes", "True", "TRUE", "Yes", "YES":
			return true
		case "false", "0", "no", "False", "FALSE", "No", "NO":
			return false
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable (Go duration
// syntax, e.g. "30s") or returns a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
