package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOllamaURL = "http://localhost:11434"
	DefaultModel     = "llama3"
	envPrefix        = "PDFCHAT_"
)

// LLMOptions configures the language model client.
type LLMOptions struct {
	Model       string  `yaml:"model" env:"MODEL" validate:"required"`
	MaxTokens   int     `yaml:"max_tokens" env:"MAX_TOKENS" validate:"gt=0"`
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE" validate:"gte=0,lte=2"`
	Stream      bool    `yaml:"stream" env:"STREAM"`
	BaseURL     string  `yaml:"base_url" env:"BASE_URL" validate:"required,url"`
	TimeoutSecs int     `yaml:"timeout_secs" env:"TIMEOUT_SECS" validate:"gte=0"`
}

// LLMConfig selects and configures the language model provider.
type LLMConfig struct {
	Provider string     `yaml:"provider" env:"PROVIDER" validate:"oneof=ollama"`
	Config   LLMOptions `yaml:"config"`
}

// VectorDBOptions holds the storage location. Dir is assigned from the workspace.
type VectorDBOptions struct {
	Dir string `yaml:"dir"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	URL         string `yaml:"url" env:"URL"`
	APIKey      string `yaml:"api_key" env:"API_KEY"`
	Collection  string `yaml:"collection" env:"COLLECTION"`
	TimeoutSecs int    `yaml:"timeout_secs" env:"TIMEOUT_SECS"`
}

// VectorDBConfig selects and configures the vector store implementation.
type VectorDBConfig struct {
	Provider string          `yaml:"provider" env:"PROVIDER" validate:"oneof=local memory qdrant"`
	Config   VectorDBOptions `yaml:"config"`
	Qdrant   *QdrantConfig   `yaml:"qdrant,omitempty" envPrefix:"QDRANT_"`
}

// EmbedderOptions configures a remote embeddings endpoint.
type EmbedderOptions struct {
	Model       string `yaml:"model" env:"MODEL"`
	BaseURL     string `yaml:"base_url" env:"BASE_URL"`
	APIKeyEnv   string `yaml:"api_key_env" env:"API_KEY_ENV"`
	TimeoutSecs int    `yaml:"timeout_secs" env:"TIMEOUT_SECS" validate:"gte=0"`
	CacheMins   int    `yaml:"cache_mins" env:"CACHE_MINS" validate:"gte=0"`
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Provider string          `yaml:"provider" env:"PROVIDER" validate:"oneof=ollama openai tfidf"`
	Config   EmbedderOptions `yaml:"config"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	SentencesPerChunk int `yaml:"sentences_per_chunk" env:"SENTENCES_PER_CHUNK" validate:"gte=0"`
	OverlapSentences  int `yaml:"overlap_sentences" env:"OVERLAP_SENTENCES" validate:"gte=0"`
}

// RetrievalConfig configures how many chunks are put into a prompt.
type RetrievalConfig struct {
	TopK int `yaml:"top_k" env:"TOP_K" validate:"gt=0"`
}

// WorkspaceConfig sets where per-session directories are created.
type WorkspaceConfig struct {
	Root string `yaml:"root" env:"ROOT"`
}

// LogConfig configures the rotating log file.
type LogConfig struct {
	File    string `yaml:"file" env:"FILE" validate:"required"`
	Level   string `yaml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	Console bool   `yaml:"console" env:"CONSOLE"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	LLM       LLMConfig       `yaml:"llm" envPrefix:"LLM_"`
	VectorDB  VectorDBConfig  `yaml:"vectordb" envPrefix:"VECTORDB_"`
	Embedder  EmbedderConfig  `yaml:"embedder" envPrefix:"EMBEDDER_"`
	Chunker   ChunkerConfig   `yaml:"chunker" envPrefix:"CHUNKER_"`
	Retrieval RetrievalConfig `yaml:"retrieval" envPrefix:"RETRIEVAL_"`
	Workspace WorkspaceConfig `yaml:"workspace" envPrefix:"WORKSPACE_"`
	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// PDFCHAT_* environment variables override values from the file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return finalize(defaultConfig())
		}
		return nil, err
	}
	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return finalize(cfg)
}

// LoadDefault tries ./pdfchat.yaml first, then ~/.config/pdfchat/config.yaml.
// If neither exists, it writes defaults to ~/.config/pdfchat/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "pdfchat.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	cfg, err = finalize(cfg)
	if err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// WithStorageDir returns a copy of the config bound to a workspace directory.
func (c AppConfig) WithStorageDir(dir string) AppConfig {
	c.VectorDB.Config.Dir = dir
	return c
}

// finalize layers PDFCHAT_* overrides on top of cfg, then fills provider-dependent defaults.
func finalize(cfg *AppConfig) (*AppConfig, error) {
	if cfg.VectorDB.Qdrant == nil {
		// env only descends into allocated struct pointers
		cfg.VectorDB.Qdrant = &QdrantConfig{}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: envPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	applyConfigDefaults(cfg)
	return cfg, nil
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "pdfchat", "config.yaml"), nil
}

// Default returns the built-in configuration: llama3 served by a local Ollama.
func Default() *AppConfig { return defaultConfig() }

func defaultConfig() *AppConfig {
	return &AppConfig{
		LLM: LLMConfig{
			Provider: "ollama",
			Config: LLMOptions{
				Model:       DefaultModel,
				MaxTokens:   250,
				Temperature: 0.5,
				Stream:      true,
				BaseURL:     DefaultOllamaURL,
				TimeoutSecs: 120,
			},
		},
		VectorDB: VectorDBConfig{Provider: "local", Qdrant: &QdrantConfig{}},
		Embedder: EmbedderConfig{
			Provider: "ollama",
			Config: EmbedderOptions{
				Model:       DefaultModel,
				BaseURL:     DefaultOllamaURL,
				TimeoutSecs: 30,
				CacheMins:   60,
			},
		},
		Chunker:   ChunkerConfig{SentencesPerChunk: 5, OverlapSentences: 1},
		Retrieval: RetrievalConfig{TopK: 4},
		Log:       LogConfig{File: "pdfchat.log", Level: "info"},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	if cfg.Chunker.SentencesPerChunk == 0 {
		cfg.Chunker.SentencesPerChunk = 5
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.LLM.Config.BaseURL == "" {
		cfg.LLM.Config.BaseURL = DefaultOllamaURL
	}
	switch cfg.Embedder.Provider {
	case "ollama":
		if cfg.Embedder.Config.BaseURL == "" {
			cfg.Embedder.Config.BaseURL = DefaultOllamaURL
		}
		if cfg.Embedder.Config.Model == "" {
			cfg.Embedder.Config.Model = DefaultModel
		}
	case "openai":
		switch cfg.Embedder.Config.BaseURL {
		case "":
			cfg.Embedder.Config.BaseURL = "https://api.openai.com/v1"
		case DefaultOllamaURL:
			// Ollama serves the OpenAI-compatible API under /v1.
			cfg.Embedder.Config.BaseURL = DefaultOllamaURL + "/v1"
		}
		if cfg.Embedder.Config.APIKeyEnv == "" {
			cfg.Embedder.Config.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.Config.Model == "" {
			cfg.Embedder.Config.Model = "text-embedding-3-small"
		}
	}
	if cfg.Embedder.Config.TimeoutSecs == 0 {
		cfg.Embedder.Config.TimeoutSecs = 30
	}
	if cfg.VectorDB.Provider == "qdrant" && cfg.VectorDB.Qdrant != nil && cfg.VectorDB.Qdrant.Collection == "" {
		cfg.VectorDB.Qdrant.Collection = "pdfchat"
	}
	if cfg.Log.File == "" {
		cfg.Log.File = "pdfchat.log"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}
