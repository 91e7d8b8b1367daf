package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOllamaTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *OllamaClient) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewOllamaClient(OllamaConfig{
		BaseURL:           srv.URL,
		Model:             "nomic-embed-text",
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
	})
	return srv, client
}

func TestOllamaClient_Complete(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaGenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "how to center a div", req.Prompt)
		assert.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(ollamaGenerateResponse{
			Response: "use flexbox",
			Done:     true,
		})
	})

	answer, err := client.Complete(context.Background(), "how to center a div")
	require.NoError(t, err)
	assert.Equal(t, "use flexbox", answer)
}

func TestOllamaClient_Complete_EmptyPromptRejected(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called for empty prompts")
	})

	_, err := client.Complete(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
}

func TestOllamaClient_EmbedBatch_PreservesOrder(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float64{{1, 0}, {0, 1}},
		})
	})

	vectors, err := client.EmbedBatch(context.Background(), []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float64{1, 0}, vectors[0])
	assert.Equal(t, []float64{0, 1}, vectors[1])
}

func TestOllamaClient_EmbedBatch_CountMismatchFails(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(ollamaEmbedResponse{
			Embeddings: [][]float64{{1, 0}},
		})
	})

	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestOllamaClient_Embed_EmptyTextRejected(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("provider must not be called for empty input")
	})

	_, err := client.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestOllamaClient_UnreachableProviderMapsToUnavailable(t *testing.T) {
	client := NewOllamaClient(OllamaConfig{
		BaseURL:           "http://127.0.0.1:1", // nothing listens here
		Timeout:           200 * time.Millisecond,
		RequestsPerSecond: 1000,
	})

	_, err := client.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)

	_, err = client.Complete(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrGenerationUnavailable)
	assert.True(t, IsUnavailable(err))
}

func TestOllamaClient_ServerErrorMapsToUnavailable(t *testing.T) {
	_, client := newOllamaTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := client.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)
}

func TestOllamaClient_GetModel(t *testing.T) {
	client := NewOllamaClient(OllamaConfig{Model: "nomic-embed-text"})
	assert.Equal(t, "nomic-embed-text", client.GetModel())
}
