package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/domain"
)

func newTestClient(url string) *Client {
	c := NewClient(Config{BaseURL: url, APIKeyEnv: "PDFCHAT_TEST_KEY", Model: "nomic"})
	c.wait = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestClient_Embed(t *testing.T) {
	t.Setenv("PDFCHAT_TEST_KEY", "secret")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nomic", body["model"])
		assert.Equal(t, "hello", body["input"])
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	v, err := c.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, v)
	assert.Equal(t, 3, c.Dimension())
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[1]}]}`))
	}))
	defer srv.Close()

	v, err := newTestClient(srv.URL).Embed(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, v)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestClient_ClientErrorIsFinal(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Embed(context.Background(), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClient_UnreachableIsNotRetried(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(url)
	waits := 0
	c.wait = func(context.Context, time.Duration) error {
		waits++
		return nil
	}

	_, err := c.Embed(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.Zero(t, waits)
}

func TestClient_RetryWaitStopsOnCancel(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.Embed(ctx, "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBackendUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}
