package qdrant

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdfchat/internal/domain"
)

// Storage is a minimal REST client to Qdrant.
// It assumes cosine distance and creates the collection on Init.
type Storage struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client
}

type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewStorage(cfg Config) *Storage {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	if cfg.Collection == "" {
		cfg.Collection = "pdfchat"
	}
	return &Storage{
		url:        strings.TrimRight(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// Init recreates the collection with the given vector size.
func (s *Storage) Init(dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	if err := s.Clear(); err != nil {
		return err
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return s.do(http.MethodPut, s.collectionURL(""), body, nil)
}

func (s *Storage) Upsert(chunks []domain.Chunk, vectors [][]float64) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	if len(chunks) == 0 {
		return nil
	}
	points := make([]map[string]any, len(chunks))
	for i, ch := range chunks {
		points[i] = map[string]any{
			"id":     pointID(ch.ChunkID),
			"vector": vectors[i],
			"payload": map[string]any{
				"document_id": ch.DocumentID,
				"chunk_id":    ch.ChunkID,
				"source":      ch.Source,
				"index":       ch.Index,
				"text":        ch.Text,
			},
		}
	}
	return s.do(http.MethodPut, s.collectionURL("/points?wait=true"), map[string]any{"points": points}, nil)
}

func (s *Storage) Search(vector []float64, topK int) ([]domain.SearchResult, error) {
	if topK <= 0 {
		topK = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        topK,
		"with_payload": true,
	}
	var resp struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				DocumentID string `json:"document_id"`
				ChunkID    string `json:"chunk_id"`
				Source     string `json:"source"`
				Index      int    `json:"index"`
				Text       string `json:"text"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := s.do(http.MethodPost, s.collectionURL("/points/search"), req, &resp); err != nil {
		return nil, err
	}
	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		p := r.Payload
		results = append(results, domain.SearchResult{
			Chunk: domain.Chunk{
				DocumentID: p.DocumentID,
				ChunkID:    p.ChunkID,
				Source:     p.Source,
				Index:      p.Index,
				Text:       p.Text,
			},
			Score: r.Score,
		})
	}
	return results, nil
}

// Clear drops the collection. A missing collection is not an error.
func (s *Storage) Clear() error {
	err := s.do(http.MethodDelete, s.collectionURL(""), nil, nil)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		return nil
	}
	return err
}

// Close releases idle connections. The collection is left in place.
func (s *Storage) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Storage) collectionURL(suffix string) string {
	return fmt.Sprintf("%s/collections/%s%s", s.url, s.collection, suffix)
}

type statusError struct {
	method, url string
	code        int
	body        string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("qdrant %s %s failed: %d %s", e.method, e.url, e.code, e.body)
}

func (s *Storage) do(method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: qdrant: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &statusError{method: method, url: url, code: resp.StatusCode, body: strings.TrimSpace(string(msg))}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// pointID maps a chunk ID to a stable UUID, since Qdrant only accepts
// unsigned integers or UUIDs as point IDs.
func pointID(chunkID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(chunkID)).String()
}
