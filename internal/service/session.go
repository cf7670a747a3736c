package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"pdfchat/internal/domain"
	"pdfchat/internal/embedding"
	"pdfchat/internal/logger"
)

const (
	logModule        = "session"
	summarySentences = 2
)

// Components are the collaborators a Session is built from.
type Components struct {
	Loader     domain.Loader
	Chunker    domain.Chunker
	Embedder   domain.Embedder
	Store      domain.VectorStore
	LLM        domain.LLM
	Summarizer domain.Summarizer
	Logger     logger.ILogger
	TopK       int
}

// Session is a retrieval-augmented chat session bound to one workspace
// directory. It owns the vector store but never the directory itself.
type Session struct {
	mu    sync.Mutex
	dir   string
	c     Components
	topK  int
	ready bool // store initialized with the embedder's dimension

	chunks []domain.Chunk
}

var _ domain.RAGSession = (*Session)(nil)

func NewSession(dir string, c Components) *Session {
	if c.Logger == nil {
		c.Logger = logger.NewNop()
	}
	topK := c.TopK
	if topK <= 0 {
		topK = 4
	}
	return &Session{dir: dir, c: c, topK: topK}
}

// Dir is the workspace directory the session persists into.
func (s *Session) Dir() string { return s.dir }

// Ingest loads, chunks and embeds one file into the knowledge base.
func (s *Session) Ingest(ctx context.Context, path, kind string) (domain.IngestReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.c.Loader.Load(path, kind)
	if err != nil {
		return domain.IngestReport{}, asIngestion(err)
	}
	chunks, err := s.c.Chunker.Chunk(doc)
	if err != nil {
		return domain.IngestReport{}, asIngestion(err)
	}
	if len(chunks) == 0 {
		return domain.IngestReport{}, fmt.Errorf("%w: %s: no text to index", domain.ErrIngestion, doc.Name)
	}

	if embedding.CorpusDependent(s.c.Embedder) {
		err = s.rebuild(ctx, append(append([]domain.Chunk(nil), s.chunks...), chunks...))
	} else {
		err = s.add(ctx, chunks)
	}
	if err != nil {
		return domain.IngestReport{}, err
	}
	s.chunks = append(s.chunks, chunks...)

	summary := ""
	if s.c.Summarizer != nil {
		if summary, err = s.c.Summarizer.Summarize(doc.Content, summarySentences); err != nil {
			s.c.Logger.Warn(logModule, "summary failed", map[string]interface{}{"file": doc.Name, "error": err})
			summary = ""
		}
	}

	s.c.Logger.Info(logModule, "document ingested", map[string]interface{}{
		"file":     doc.Name,
		"chunks":   len(chunks),
		"total":    len(s.chunks),
		"embedder": s.c.Embedder.Name(),
	})
	return domain.IngestReport{Filename: doc.Name, Chunks: len(chunks), Summary: summary}, nil
}

// rebuild re-fits a corpus-dependent embedder and replaces the whole index.
func (s *Session) rebuild(ctx context.Context, all []domain.Chunk) error {
	texts := make([]string, len(all))
	for i, ch := range all {
		texts[i] = ch.Text
	}
	if err := s.c.Embedder.Prepare(texts); err != nil {
		return asIngestion(err)
	}
	vectors, err := s.embedAll(ctx, all)
	if err != nil {
		return err
	}
	if err := s.c.Store.Init(s.c.Embedder.Dimension()); err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	s.ready = true
	if err := s.c.Store.Upsert(all, vectors); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func (s *Session) add(ctx context.Context, chunks []domain.Chunk) error {
	vectors, err := s.embedAll(ctx, chunks)
	if err != nil {
		return err
	}
	if !s.ready {
		if err := s.c.Store.Init(len(vectors[0])); err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		s.ready = true
	}
	if err := s.c.Store.Upsert(chunks, vectors); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

func (s *Session) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float64, error) {
	vectors := make([][]float64, len(chunks))
	for i, ch := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := s.c.Embedder.Embed(ctx, ch.Text)
		if err != nil {
			return nil, asBackend(err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Query answers question from the ingested documents. An empty knowledge
// base still reaches the model, with an empty context block.
func (s *Session) Query(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", domain.ErrEmptyQuery
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	answer, err := s.c.LLM.Generate(ctx, buildPrompt(question, results))
	if err != nil {
		s.c.Logger.Error(logModule, "generation failed", map[string]interface{}{"model": s.c.LLM.Model(), "error": err})
		return "", asBackend(err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		s.c.Logger.Warn(logModule, "empty generation", map[string]interface{}{"model": s.c.LLM.Model()})
		return "", fmt.Errorf("%w: model %s returned an empty answer", domain.ErrBackendUnavailable, s.c.LLM.Model())
	}
	s.c.Logger.Debug(logModule, "query answered", map[string]interface{}{
		"model":    s.c.LLM.Model(),
		"contexts": len(results),
	})
	return answer, nil
}

func (s *Session) retrieve(ctx context.Context, question string) ([]domain.SearchResult, error) {
	if len(s.chunks) == 0 {
		return nil, nil
	}
	vec, err := s.c.Embedder.Embed(ctx, question)
	if err != nil {
		return nil, asBackend(err)
	}
	if isZero(vec) {
		return lexicalSearch(s.chunks, question, s.topK), nil
	}
	res, err := s.c.Store.Search(vec, s.topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	for _, r := range res {
		if r.Score > 1e-9 {
			return res, nil
		}
	}
	return lexicalSearch(s.chunks, question, s.topK), nil
}

// Reset drops every stored chunk. The workspace directory is left alone.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.c.Store.Clear(); err != nil {
		return fmt.Errorf("clear store: %w", err)
	}
	s.chunks = nil
	s.ready = false
	return nil
}

// Close releases the store so the workspace can be removed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Store.Close()
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

func asIngestion(err error) error {
	if errors.Is(err, domain.ErrIngestion) || errors.Is(err, domain.ErrBackendUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrIngestion, err)
}

func asBackend(err error) error {
	if errors.Is(err, domain.ErrBackendUnavailable) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
}
