package llm

import (
	"fmt"
	"time"

	"pdfchat/internal/config"
	"pdfchat/internal/domain"
	"pdfchat/internal/llm/ollama"
)

// New builds the language model client selected by cfg.Provider.
func New(cfg config.LLMConfig) (domain.LLM, error) {
	switch cfg.Provider {
	case "", "ollama":
		o := cfg.Config
		return ollama.NewProvider(ollama.Options{
			BaseURL:     o.BaseURL,
			Model:       o.Model,
			MaxTokens:   o.MaxTokens,
			Temperature: o.Temperature,
			Stream:      o.Stream,
			Timeout:     time.Duration(o.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}
