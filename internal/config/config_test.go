package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scrypster/praxis/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"PRAXIS_STORAGE_ENGINE", "PRAXIS_CACHE_THRESHOLD",
		"PRAXIS_VISUAL_THRESHOLD", "PRAXIS_TOP_K", "PRAXIS_REQUIRE_CONTEXT",
		"PRAXIS_EMBEDDING_DIMENSION", "PRAXIS_REQUEST_TIMEOUT",
	} {
		_ = os.Unsetenv(key)
	}

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "jsonfile", cfg.Storage.StorageEngine)
	assert.Equal(t, 0.85, cfg.Retrieval.CacheThreshold)
	assert.Equal(t, 0.65, cfg.Retrieval.VisualThreshold)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.False(t, cfg.Retrieval.RequireContext)
	assert.Equal(t, 768, cfg.LLM.EmbeddingDimension)
	assert.Equal(t, 30*time.Second, cfg.LLM.RequestTimeout)
}

func TestLoadConfig_ThresholdsAreTunable(t *testing.T) {
	t.Setenv("PRAXIS_CACHE_THRESHOLD", "0.9")
	t.Setenv("PRAXIS_VISUAL_THRESHOLD", "0.5")
	t.Setenv("PRAXIS_TOP_K", "10")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.Retrieval.CacheThreshold)
	assert.Equal(t, 0.5, cfg.Retrieval.VisualThreshold)
	assert.Equal(t, 10, cfg.Retrieval.TopK)
}

func TestLoadConfig_RequireContextPolicy(t *testing.T) {
	t.Setenv("PRAXIS_REQUIRE_CONTEXT", "true")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.Retrieval.RequireContext)
}

func TestLoadConfig_UnparsableValuesFallBack(t *testing.T) {
	t.Setenv("PRAXIS_TOP_K", "many")
	t.Setenv("PRAXIS_CACHE_THRESHOLD", "high")
	t.Setenv("PRAXIS_REQUEST_TIMEOUT", "soon")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 0.85, cfg.Retrieval.CacheThreshold)
	assert.Equal(t, 30*time.Second, cfg.LLM.RequestTimeout)
}
