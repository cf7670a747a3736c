package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"pdfchat/internal/domain"
)

// Embedder memoizes vectors of a remote embedder by text, so rebuilding an
// index after an upload only pays for chunks it has not seen before.
// It must not wrap corpus-dependent embedders, whose vectors change over time.
type Embedder struct {
	next  domain.Embedder
	store *gocache.Cache
}

func New(next domain.Embedder, ttl time.Duration) *Embedder {
	return &Embedder{
		next:  next,
		store: gocache.New(ttl, 2*ttl),
	}
}

func (e *Embedder) Name() string { return e.next.Name() }

func (e *Embedder) Prepare(corpus []string) error { return e.next.Prepare(corpus) }

func (e *Embedder) Dimension() int { return e.next.Dimension() }

func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	key := cacheKey(text)
	if v, ok := e.store.Get(key); ok {
		return v.([]float64), nil
	}
	vec, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.store.SetDefault(key, vec)
	return vec, nil
}

// Len reports how many vectors are cached.
func (e *Embedder) Len() int { return e.store.ItemCount() }

func cacheKey(text string) string {
	h := sha1.Sum([]byte(text))
	return hex.EncodeToString(h[:])
}
