// Package cache decorates an embedder with a ristretto cache, so repeated
// embeddings of the same text (common for memory queries) skip the remote
// call.
package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/burrowkit/burrow/memory"
)

// Embedder wraps another embedder with an in-process cache keyed by text.
// Zero vectors (the degraded output of a failed call) are never cached, so
// a transient backend outage does not poison later lookups.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

// New creates a caching embedder holding up to maxEntries vectors.
func New(inner memory.Embedder, maxEntries int64) (*Embedder, error) {
	if maxEntries <= 0 {
		maxEntries = 4096
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Embedder{inner: inner, cache: c}, nil
}

// Embed returns the cached vector when present, otherwise delegates.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if !memory.IsZeroVector(vec) {
		e.cache.Set(text, vec, 1)
	}
	return vec, nil
}

// Dimensions returns the inner embedder's vector size.
func (e *Embedder) Dimensions() int { return e.inner.Dimensions() }

// Close releases the cache.
func (e *Embedder) Close() {
	e.cache.Close()
}
