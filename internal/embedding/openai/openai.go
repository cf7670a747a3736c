package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"pdfchat/internal/domain"
)

// Client is an OpenAI-compatible embeddings client (OpenAI, Ollama's /v1, LocalAI, ...).
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	client     *http.Client
	maxRetries int
	wait       func(context.Context, time.Duration) error
}

// Config configures the OpenAI-compatible embeddings client.
type Config struct {
	BaseURL   string
	APIKeyEnv string
	Model     string
	Timeout   time.Duration
}

// NewClient creates a new embeddings client. The API key is optional since
// local OpenAI-compatible servers do not check it.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	t := cfg.Timeout
	if t == 0 {
		t = 30 * time.Second
	}
	var key string
	if cfg.APIKeyEnv != "" {
		key = os.Getenv(cfg.APIKeyEnv)
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     key,
		model:      cfg.Model,
		client:     &http.Client{Timeout: t},
		maxRetries: 3,
		wait:       sleepCtx,
	}
}

func (c *Client) Name() string { return "openai" }

// Prepare is not required for remote embedding. Dimension is set on first embed.
func (c *Client) Prepare(corpus []string) error { return nil }

func (c *Client) Dimension() int { return c.dimension }

// Embed returns an embedding vector for the given text. Only 429 and 5xx
// responses are retried, with backoff or the server's Retry-After; every
// failure wraps domain.ErrBackendUnavailable.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	payload, err := json.Marshal(struct {
		Input string `json:"input"`
		Model string `json:"model"`
	}{Input: text, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := c.baseURL + "/embeddings"
	var lastErr error
	for attempt := 0; ; attempt++ {
		vec, retryAfter, err := c.do(ctx, url, payload)
		if err == nil {
			if c.dimension == 0 {
				c.dimension = len(vec)
			}
			return vec, nil
		}
		lastErr = err
		if retryAfter < 0 || attempt >= c.maxRetries {
			break
		}
		if retryAfter == 0 {
			retryAfter = retryDelay(attempt)
		}
		if err := c.wait(ctx, retryAfter); err != nil {
			lastErr = err
			break
		}
	}
	return nil, fmt.Errorf("%w: openai embeddings: %w", domain.ErrBackendUnavailable, lastErr)
}

// do performs one request. retryAfter < 0 means the error is final,
// 0 means retry after the default backoff.
func (c *Client) do(ctx context.Context, url string, payload []byte) (vec []float64, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, -1, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, -1, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		wait := time.Duration(0)
		if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
			wait = time.Duration(secs) * time.Second
		}
		return nil, wait, fmt.Errorf("status %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, -1, fmt.Errorf("status %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out struct {
		Data []struct {
			Embedding []float64 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, -1, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, -1, errors.New("no embedding returned")
	}
	return out.Data[0].Embedding, 0, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	// exponential backoff capped at 5s
	d := 200 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
