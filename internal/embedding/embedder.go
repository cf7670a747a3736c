package embedding

import (
	"fmt"
	"time"

	"pdfchat/internal/config"
	"pdfchat/internal/domain"
	"pdfchat/internal/embedding/cache"
	"pdfchat/internal/embedding/ollama"
	"pdfchat/internal/embedding/openai"
	"pdfchat/internal/embedding/tfidf"
)

// New builds the embedder selected by cfg.Provider. Remote embedders are
// wrapped in a vector cache when cache_mins is positive.
func New(cfg config.EmbedderConfig) (domain.Embedder, error) {
	o := cfg.Config
	timeout := time.Duration(o.TimeoutSecs) * time.Second

	var emb domain.Embedder
	switch cfg.Provider {
	case "tfidf":
		return tfidf.NewEmbedder(), nil
	case "", "ollama":
		emb = ollama.NewEmbedder(o.BaseURL, o.Model, timeout)
	case "openai":
		emb = openai.NewClient(openai.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Timeout:   timeout,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Provider)
	}
	if o.CacheMins > 0 {
		emb = cache.New(emb, time.Duration(o.CacheMins)*time.Minute)
	}
	return emb, nil
}

// CorpusDependent reports whether emb must be re-fitted over every chunk
// whenever the corpus changes.
func CorpusDependent(emb domain.Embedder) bool {
	ce, ok := emb.(domain.CorpusEmbedder)
	return ok && ce.CorpusDependent()
}
