package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGeminiTestServer(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewGeminiClient(GeminiConfig{
		APIKey:            "test-key",
		Model:             "gemini-embedding-001",
		OutputDimension:   4,
		BaseURL:           srv.URL,
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
	})
}

func TestGeminiClient_EmbedBatch_SingleBatchedCall(t *testing.T) {
	calls := 0
	client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.True(t, strings.HasSuffix(r.URL.Path, ":batchEmbedContents"))
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req geminiBatchEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Requests, 3)
		assert.Equal(t, 4, req.Requests[0].OutputDimensionality)

		resp := geminiBatchEmbedResponse{Embeddings: []geminiEmbedding{
			{Values: []float64{1, 0, 0, 0}},
			{Values: []float64{0, 1, 0, 0}},
			{Values: []float64{0, 0, 1, 0}},
		}}
		_ = json.NewEncoder(w).Encode(resp)
	})

	vectors, err := client.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, 1, calls, "batch embedding must use a single round-trip")
	assert.Equal(t, []float64{0, 1, 0, 0}, vectors[1])
}

func TestGeminiClient_Complete(t *testing.T) {
	client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, ":generateContent"))
		resp := geminiGenerateResponse{}
		resp.Candidates = append(resp.Candidates, struct {
			Content geminiContent `json:"content"`
		}{Content: geminiContent{Parts: []geminiPart{{Text: "use flexbox"}}}})
		_ = json.NewEncoder(w).Encode(resp)
	})

	answer, err := client.Complete(context.Background(), "center a div")
	require.NoError(t, err)
	assert.Equal(t, "use flexbox", answer)
}

func TestGeminiClient_Complete_NoCandidatesFails(t *testing.T) {
	client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(geminiGenerateResponse{})
	})

	_, err := client.Complete(context.Background(), "center a div")
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestGeminiClient_EmbedBatch_RejectedInputMapsToUnavailable(t *testing.T) {
	client := newGeminiTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid request"}}`, http.StatusBadRequest)
	})

	_, err := client.EmbedBatch(context.Background(), []string{"x"})
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}
