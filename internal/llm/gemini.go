package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// defaultGeminiBaseURL is the Google Generative Language API endpoint.
const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiClient handles communication with the Google Generative Language
// API for completions and embeddings. Embedding requests are batched via
// batchEmbedContents to reduce round-trips during index rebuilds. One
// client serves one model, like OllamaClient.
type GeminiClient struct {
	baseURL        string
	apiKey         string
	client         *http.Client
	circuitBreaker *CircuitBreaker
	limiter        *rate.Limiter
	model          string
	outputDim      int
	timeout        time.Duration
}

// GeminiConfig holds Gemini client configuration.
type GeminiConfig struct {
	// APIKey is the Google AI API key (required).
	APIKey string

	// Model is the model name, e.g. "gemini-2.5-pro" for answers or
	// "gemini-embedding-001" for embeddings.
	Model string

	// OutputDimension requests a fixed embedding dimension from models
	// that support it (default: 768). Ignored for text generation.
	OutputDimension int

	// BaseURL overrides the API endpoint, used by tests.
	BaseURL string

	// Timeout is the per-request timeout (default: 30s)
	Timeout time.Duration

	// RequestsPerSecond limits outbound calls (default: 5)
	RequestsPerSecond float64
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

type geminiEmbedRequest struct {
	Model                string        `json:"model"`
	Content              geminiContent `json:"content"`
	OutputDimensionality int           `json:"outputDimensionality,omitempty"`
}

type geminiBatchEmbedRequest struct {
	Requests []geminiEmbedRequest `json:"requests"`
}

type geminiEmbedding struct {
	Values []float64 `json:"values"`
}

type geminiBatchEmbedResponse struct {
	Embeddings []geminiEmbedding `json:"embeddings"`
}

// NewGeminiClient creates a new Gemini client, applying defaults for any
// unset configuration values.
func NewGeminiClient(config GeminiConfig) *GeminiClient {
	if config.BaseURL == "" {
		config.BaseURL = defaultGeminiBaseURL
	}
	if config.Model == "" {
		config.Model = "gemini-2.5-pro"
	}
	if config.OutputDimension == 0 {
		config.OutputDimension = 768
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 5
	}

	return &GeminiClient{
		baseURL:        strings.TrimRight(config.BaseURL, "/"),
		apiKey:         config.APIKey,
		client:         &http.Client{Timeout: config.Timeout},
		circuitBreaker: NewCircuitBreaker("gemini"),
		limiter:        rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
		model:          config.Model,
		outputDim:      config.OutputDimension,
		timeout:        config.Timeout,
	}
}

// Complete sends a generateContent request and returns the first candidate
// text. Failures, including an open circuit, are reported as
// ErrGenerationUnavailable.
func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: empty prompt", ErrGenerationUnavailable)
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.complete(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	return result.(string), nil
}

// GenerateMarkup produces visualization markup via the completion endpoint.
func (c *GeminiClient) GenerateMarkup(ctx context.Context, prompt string) (string, error) {
	return c.Complete(ctx, prompt)
}

func (c *GeminiClient) complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := geminiGenerateRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	var respData geminiGenerateResponse
	path := fmt.Sprintf("/models/%s:generateContent", c.model)
	if err := c.post(ctx, path, reqBody, &respData); err != nil {
		return "", err
	}

	if len(respData.Candidates) == 0 || len(respData.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}
	return respData.Candidates[0].Content.Parts[0].Text, nil
}

// Embed generates an embedding for a single text.
func (c *GeminiClient) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts with a single
// batchEmbedContents call, preserving input order. Failures, including an
// open circuit, are reported as ErrEmbeddingUnavailable.
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("%w: empty text at index %d", ErrEmbeddingUnavailable, i)
		}
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.embedBatch(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingUnavailable, err)
	}
	return result.([][]float64), nil
}

func (c *GeminiClient) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	reqBody := geminiBatchEmbedRequest{Requests: make([]geminiEmbedRequest, len(texts))}
	for i, text := range texts {
		reqBody.Requests[i] = geminiEmbedRequest{
			Model:                "models/" + c.model,
			Content:              geminiContent{Parts: []geminiPart{{Text: text}}},
			OutputDimensionality: c.outputDim,
		}
	}

	var respData geminiBatchEmbedResponse
	path := fmt.Sprintf("/models/%s:batchEmbedContents", c.model)
	if err := c.post(ctx, path, reqBody, &respData); err != nil {
		return nil, err
	}

	if len(respData.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d inputs",
			len(respData.Embeddings), len(texts))
	}

	vectors := make([][]float64, len(respData.Embeddings))
	for i, emb := range respData.Embeddings {
		if len(emb.Values) == 0 {
			return nil, fmt.Errorf("gemini returned empty embedding for input %d", i)
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// post sends a JSON POST request with the API key attached and decodes the
// JSON response into out.
func (c *GeminiClient) post(ctx context.Context, path string, body, out interface{}) error {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// GetModel returns the configured model name.
func (c *GeminiClient) GetModel() string {
	return c.model
}

// Compile-time assertions that GeminiClient satisfies the LLM interfaces.
var _ TextGenerator = (*GeminiClient)(nil)
var _ EmbeddingGenerator = (*GeminiClient)(nil)
var _ MarkupGenerator = (*GeminiClient)(nil)
