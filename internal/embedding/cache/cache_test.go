package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	err   error
}

func (c *countingEmbedder) Name() string                  { return "counting" }
func (c *countingEmbedder) Prepare(corpus []string) error { return nil }
func (c *countingEmbedder) Dimension() int                { return 1 }
func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []float64{float64(len(text))}, nil
}

func TestEmbedder_CachesByText(t *testing.T) {
	inner := &countingEmbedder{}
	e := New(inner, time.Minute)
	ctx := context.Background()

	a, err := e.Embed(ctx, "hello")
	require.NoError(t, err)
	b, err := e.Embed(ctx, "hello")
	require.NoError(t, err)
	_, err = e.Embed(ctx, "world!")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, e.Len())
	assert.Equal(t, "counting", e.Name())
}

func TestEmbedder_DoesNotCacheErrors(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("down")}
	e := New(inner, time.Minute)

	_, err := e.Embed(context.Background(), "x")
	require.Error(t, err)
	_, err = e.Embed(context.Background(), "x")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, e.Len())
}
