package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pdfchat/internal/domain"
)

// Embedder calls Ollama's native /api/embeddings endpoint.
type Embedder struct {
	baseURL   string
	model     string
	client    *http.Client
	dimension int
}

func NewEmbedder(baseURL, model string, timeout time.Duration) *Embedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Embedder{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float64 `json:"embedding"`
}

func (e *Embedder) Name() string { return "ollama" }

// Prepare is a no-op: the model server needs no corpus.
func (e *Embedder) Prepare(corpus []string) error { return nil }

func (e *Embedder) Dimension() int { return e.dimension }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: ollama embeddings: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read ollama response: %v", domain.ErrBackendUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: ollama embedding error: status %d, body: %s",
			domain.ErrBackendUnavailable, resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var out embeddingResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return nil, fmt.Errorf("%w: decode ollama response: %v", domain.ErrBackendUnavailable, err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("%w: ollama returned an empty embedding for model %s", domain.ErrBackendUnavailable, e.model)
	}
	if e.dimension == 0 {
		e.dimension = len(out.Embedding)
	}
	return out.Embedding, nil
}
