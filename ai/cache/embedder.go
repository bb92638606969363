package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Embedder is the single-text embedding call being cached.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// CachedEmbedder memoizes query embeddings. Recommendation descriptions and chat
// messages repeat often, and the model output for a text does not change.
type CachedEmbedder struct {
	embedder Embedder
	cache    *LRUCache[string, []float32]
	sf       singleflight.Group
}

// NewCachedEmbedder wraps embedder with an LRU of the given capacity and TTL.
func NewCachedEmbedder(embedder Embedder, capacity int, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		embedder: embedder,
		cache:    NewLRUCache[string, []float32](capacity, ttl),
	}
}

// sharedEmbedTimeout bounds a model call that outlives the caller that started it.
const sharedEmbedTimeout = time.Minute

// Embed returns a copy of the cached vector, calling the model on a miss.
// Concurrent misses for the same text share one model call. The shared call is
// detached from any single caller's cancellation; each caller stops waiting when
// its own ctx ends. Failures are not cached.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(text); ok {
		return append([]float32(nil), vec...), nil
	}

	ch := e.sf.DoChan(text, func() (any, error) {
		callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedEmbedTimeout)
		defer cancel()
		vec, err := e.embedder.Embed(callCtx, text)
		if err != nil {
			return nil, err
		}
		e.cache.Set(text, vec)
		return vec, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]float32(nil), res.Val.([]float32)...), nil
	}
}
