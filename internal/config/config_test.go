package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"PORT", "PDFQA_UPLOAD_DIR", "PDFQA_LOG_LEVEL", "PDFQA_EMBEDDER", "PDFQA_COMPLETION"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":3000", cfg.Server.Addr)
	assert.Equal(t, "./data/pdfs", cfg.Uploads.Dir)
	assert.Equal(t, 10, cfg.Uploads.MaxFiles)
	assert.EqualValues(t, 20<<20, cfg.Uploads.MaxFileBytes)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
	assert.Equal(t, 200, cfg.Chunker.ChunkOverlap)
	assert.Equal(t, "hashing", cfg.Embedder.Type)
	assert.Equal(t, 768, cfg.Embedder.Dimension)
	assert.Equal(t, "extractive", cfg.Completion.Type)
	assert.Equal(t, 3, cfg.Retrieval.TopK)
	assert.NotEmpty(t, cfg.Answer.NotInitializedMessage)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFillsOpenAIDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedder:
  type: openai
  openai:
    model: nomic-embed-text
    base_url: http://localhost:11434/v1
completion:
  type: openai
retrieval:
  top_k: 5
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "nomic-embed-text", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedder.OpenAI.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 3, cfg.Embedder.OpenAI.MaxRetries)
	require.NotNil(t, cfg.Completion.OpenAI)
	assert.Equal(t, "gpt-4o-mini", cfg.Completion.OpenAI.Model)
	assert.EqualValues(t, 5, cfg.Completion.OpenAI.FailureThreshold)
	assert.Equal(t, 30, cfg.Completion.OpenAI.BreakerCooldownSecs)
	assert.Equal(t, 5, cfg.Retrieval.TopK)
	assert.Equal(t, 1000, cfg.Chunker.ChunkSize)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("PDFQA_UPLOAD_DIR", "/srv/pdfs")
	t.Setenv("PDFQA_LOG_LEVEL", "debug")
	t.Setenv("PDFQA_COMPLETION", "openai")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.Server.Addr)
	assert.Equal(t, "/srv/pdfs", cfg.Uploads.Dir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "openai", cfg.Completion.Type)
	require.NotNil(t, cfg.Completion.OpenAI)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Retrieval.TopK = 7
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Retrieval.TopK)
	assert.Equal(t, cfg.Answer, loaded.Answer)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.Embedder.Type = "word2vec"
	cfg.Chunker.ChunkOverlap = cfg.Chunker.ChunkSize
	cfg.Retrieval.TopK = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "word2vec")
	assert.Contains(t, err.Error(), "chunk_overlap")
	assert.Contains(t, err.Error(), "top_k")
}
