package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, "llama3", cfg.LLM.Config.Model)
	assert.Equal(t, 250, cfg.LLM.Config.MaxTokens)
	assert.Equal(t, 0.5, cfg.LLM.Config.Temperature)
	assert.True(t, cfg.LLM.Config.Stream)
	assert.Equal(t, "http://localhost:11434", cfg.LLM.Config.BaseURL)
	assert.Equal(t, "ollama", cfg.Embedder.Provider)
	assert.Equal(t, "llama3", cfg.Embedder.Config.Model)
	assert.Equal(t, "local", cfg.VectorDB.Provider)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfchat.yaml")
	data := []byte("llm:\n  config:\n    model: mistral\n    temperature: 0.2\nretrieval:\n  top_k: 7\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mistral", cfg.LLM.Config.Model)
	assert.Equal(t, 0.2, cfg.LLM.Config.Temperature)
	assert.Equal(t, 250, cfg.LLM.Config.MaxTokens)
	assert.Equal(t, 7, cfg.Retrieval.TopK)
	assert.Equal(t, "local", cfg.VectorDB.Provider)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  config:\n    model: mistral\n"), 0o644))
	t.Setenv("PDFCHAT_LLM_MODEL", "phi3")
	t.Setenv("PDFCHAT_LLM_BASE_URL", "http://ollama:11434")
	t.Setenv("PDFCHAT_EMBEDDER_PROVIDER", "tfidf")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "phi3", cfg.LLM.Config.Model)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.Config.BaseURL)
	assert.Equal(t, "tfidf", cfg.Embedder.Provider)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_OpenAIEmbedderOnLocalOllama(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder:\n  provider: openai\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedder.Config.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.Config.APIKeyEnv)
}

func TestLoad_EnvOnlyGetsProviderDefaults(t *testing.T) {
	t.Setenv("PDFCHAT_EMBEDDER_PROVIDER", "openai")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Embedder.Provider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedder.Config.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.Config.APIKeyEnv)
}

func TestLoadDefault_WritesDefaultsAndAppliesEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("PDFCHAT_EMBEDDER_PROVIDER", "openai")

	cfg, path, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".config", "pdfchat", "config.yaml"), path)
	assert.FileExists(t, path)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedder.Config.BaseURL)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.Config.APIKeyEnv)
}

func TestLoad_QdrantFromEnvOnly(t *testing.T) {
	t.Setenv("PDFCHAT_VECTORDB_PROVIDER", "qdrant")
	t.Setenv("PDFCHAT_VECTORDB_QDRANT_URL", "http://localhost:6333")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	require.NotNil(t, cfg.VectorDB.Qdrant)
	assert.Equal(t, "http://localhost:6333", cfg.VectorDB.Qdrant.URL)
	assert.Equal(t, "pdfchat", cfg.VectorDB.Qdrant.Collection)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_QdrantEnvOverridesFileWithoutBlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte("vectordb:\n  provider: qdrant\n"), 0o644))
	t.Setenv("PDFCHAT_VECTORDB_QDRANT_URL", "http://qdrant:6333")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://qdrant:6333", cfg.VectorDB.Qdrant.URL)
	assert.NoError(t, cfg.Validate())
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.LLM.Config.Model = "gemma:2b"

	require.NoError(t, Save(path, cfg))
	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemma:2b", got.LLM.Config.Model)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *AppConfig)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *AppConfig) {}},
		{name: "unknown llm provider", mutate: func(c *AppConfig) { c.LLM.Provider = "openai" }, wantErr: true},
		{name: "temperature too high", mutate: func(c *AppConfig) { c.LLM.Config.Temperature = 3 }, wantErr: true},
		{name: "zero max tokens", mutate: func(c *AppConfig) { c.LLM.Config.MaxTokens = 0 }, wantErr: true},
		{name: "bad base url", mutate: func(c *AppConfig) { c.LLM.Config.BaseURL = "not a url" }, wantErr: true},
		{name: "unknown vector store", mutate: func(c *AppConfig) { c.VectorDB.Provider = "chroma" }, wantErr: true},
		{name: "qdrant without url", mutate: func(c *AppConfig) { c.VectorDB.Provider = "qdrant" }, wantErr: true},
		{name: "qdrant with url", mutate: func(c *AppConfig) {
			c.VectorDB.Provider = "qdrant"
			c.VectorDB.Qdrant = &QdrantConfig{URL: "http://localhost:6333", Collection: "pdfchat"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithStorageDirDoesNotMutate(t *testing.T) {
	cfg := Default()
	bound := cfg.WithStorageDir("/tmp/ws")
	assert.Equal(t, "/tmp/ws", bound.VectorDB.Config.Dir)
	assert.Empty(t, cfg.VectorDB.Config.Dir)
}
