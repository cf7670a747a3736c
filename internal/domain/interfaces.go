package domain

import "context"

// Document is the text content extracted from one uploaded file.
type Document struct {
	ID      string
	Name    string
	Path    string
	Content string
}

// Chunk is a retrievable part of a document.
type Chunk struct {
	DocumentID string
	ChunkID    string
	Source     string
	Text       string
	Index      int
}

// SearchResult represents a matching chunk with a relevance score.
type SearchResult struct {
	Chunk Chunk
	Score float64
}

// IngestReport describes a document that was added to the knowledge base.
type IngestReport struct {
	Filename string
	Chunks   int
	Summary  string
}

// Loader extracts the text of a file of the declared kind.
type Loader interface {
	Load(path, kind string) (Document, error)
}

// Embedder converts free text into a numeric vector representation.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CorpusEmbedder is implemented by embedders whose vectors depend on the whole corpus,
// so every ingest has to re-fit them and re-embed all stored chunks.
type CorpusEmbedder interface {
	Embedder
	CorpusDependent() bool
}

// Chunker splits documents into chunks suitable for retrieval indexing.
type Chunker interface {
	Chunk(document Document) ([]Chunk, error)
}

// VectorStore persists vectors and supports similarity search.
type VectorStore interface {
	Init(dimension int) error
	Upsert(chunks []Chunk, vectors [][]float64) error
	Search(vector []float64, topK int) ([]SearchResult, error)
	Clear() error
	Close() error
}

// Summarizer produces a brief summary of the provided text.
type Summarizer interface {
	Summarize(text string, maxSentences int) (string, error)
}

// LLM generates an answer for a prompt.
type LLM interface {
	Model() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// RAGSession is the retrieval-augmented knowledge base bound to one workspace.
type RAGSession interface {
	Ingest(ctx context.Context, path, kind string) (IngestReport, error)
	Query(ctx context.Context, text string) (string, error)
	Reset(ctx context.Context) error
	Close() error
}
