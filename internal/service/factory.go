package service

import (
	"fmt"

	"pdfchat/internal/chunker"
	"pdfchat/internal/config"
	"pdfchat/internal/domain"
	"pdfchat/internal/embedding"
	"pdfchat/internal/llm"
	"pdfchat/internal/loader"
	"pdfchat/internal/logger"
	"pdfchat/internal/summarizer"
	"pdfchat/internal/vectorstore"
)

// Factory builds sessions from configuration, one per workspace directory.
type Factory struct {
	cfg config.AppConfig
	log logger.ILogger
}

func NewFactory(cfg config.AppConfig, log logger.ILogger) *Factory {
	if log == nil {
		log = logger.NewNop()
	}
	return &Factory{cfg: cfg, log: log}
}

// New assembles a session whose store lives in dir.
func (f *Factory) New(dir string) (domain.RAGSession, error) {
	cfg := f.cfg.WithStorageDir(dir)

	emb, err := embedding.New(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	model, err := llm.New(cfg.LLM)
	if err != nil {
		return nil, err
	}
	store, err := vectorstore.New(cfg.VectorDB)
	if err != nil {
		return nil, fmt.Errorf("open vector store: %w", err)
	}

	f.log.Info(logModule, "session created", map[string]interface{}{
		"dir":      dir,
		"embedder": emb.Name(),
		"store":    cfg.VectorDB.Provider,
		"model":    model.Model(),
	})
	return NewSession(dir, Components{
		Loader:     loader.NewFileLoader(),
		Chunker:    chunker.NewSentenceChunker(cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences),
		Embedder:   emb,
		Store:      store,
		LLM:        model,
		Summarizer: summarizer.NewFrequencySummarizer(),
		Logger:     f.log,
		TopK:       cfg.Retrieval.TopK,
	}), nil
}
