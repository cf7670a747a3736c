package vectorstore

import (
	"fmt"
	"time"

	"pdfchat/internal/config"
	"pdfchat/internal/domain"
	"pdfchat/internal/vectorstore/local"
	"pdfchat/internal/vectorstore/memory"
	"pdfchat/internal/vectorstore/qdrant"
)

// New builds the vector store selected by cfg.Provider. The local store
// writes into cfg.Config.Dir, which must be a workspace directory.
func New(cfg config.VectorDBConfig) (domain.VectorStore, error) {
	switch cfg.Provider {
	case "", "local":
		return local.Open(cfg.Config.Dir)
	case "memory":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.Qdrant == nil || cfg.Qdrant.URL == "" {
			return nil, fmt.Errorf("vectordb provider qdrant requires qdrant.url")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown vectordb provider: %s", cfg.Provider)
	}
}
