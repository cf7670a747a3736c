package ollama

import (
	"bufio"
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

// Provider talks to the Ollama chat API.
type Provider struct {
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float64
	Stream      bool
	Client      *http.Client
}

var _ domain.LLM = (*Provider)(nil)

// Options configures a Provider. A zero Timeout leaves requests unbounded.
type Options struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Stream      bool
	Timeout     time.Duration
}

func NewProvider(opts Options) *Provider {
	return &Provider{
		BaseURL:     strings.TrimRight(opts.BaseURL, "/"),
		ModelName:   opts.Model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      opts.Stream,
		Client:      &http.Client{Timeout: opts.Timeout},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Model   string      `json:"model"`
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

func (p *Provider) Model() string { return p.ModelName }

// Generate sends prompt as a single user message. In stream mode the
// newline-delimited chunks are concatenated into the full answer.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model:    p.ModelName,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   p.Stream,
		Options:  &chatOptions{Temperature: p.Temperature, NumPredict: p.MaxTokens},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: ollama request failed: %v", domain.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: ollama error: status %d, body: %s",
			domain.ErrBackendUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if !p.Stream {
		var out chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("%w: decode response: %v", domain.ErrBackendUnavailable, err)
		}
		if out.Error != "" {
			return "", fmt.Errorf("%w: ollama error: %s", domain.ErrBackendUnavailable, out.Error)
		}
		return out.Message.Content, nil
	}
	return readStream(resp.Body)
}

func readStream(r io.Reader) (string, error) {
	var answer strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var part chatResponse
		if err := json.Unmarshal(line, &part); err != nil {
			return "", fmt.Errorf("%w: decode stream: %v", domain.ErrBackendUnavailable, err)
		}
		if part.Error != "" {
			return "", fmt.Errorf("%w: ollama error: %s", domain.ErrBackendUnavailable, part.Error)
		}
		answer.WriteString(part.Message.Content)
		if part.Done {
			return answer.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: read stream: %v", domain.ErrBackendUnavailable, err)
	}
	return "", fmt.Errorf("%w: stream ended before done", domain.ErrBackendUnavailable)
}
