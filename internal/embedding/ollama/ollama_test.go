package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/domain"
)

func TestEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req embeddingRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3", req.Model)
		assert.Equal(t, "what is go", req.Prompt)
		_, _ = w.Write([]byte(`{"embedding":[0.5,0.25]}`))
	}))
	defer srv.Close()

	e := NewEmbedder(srv.URL+"/", "", 0)
	v, err := e.Embed(context.Background(), "what is go")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.25}, v)
	assert.Equal(t, 2, e.Dimension())
	assert.NoError(t, e.Prepare(nil))
}

func TestEmbedder_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'llama3' not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewEmbedder(srv.URL, "llama3", 0).Embed(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "not found")
}

func TestEmbedder_EmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[]}`))
	}))
	defer srv.Close()

	_, err := NewEmbedder(srv.URL, "llama3", 0).Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}

func TestEmbedder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewEmbedder(url, "llama3", 0).Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
}
