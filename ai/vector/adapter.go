// Package vector adapts the store's native vector search to a plain similarity query.
package vector

import (
	"context"
	"fmt"
	"time"

	"github.com/hrygo/staynest/store"
)

// CandidateMultiplier is the over-scan factor applied to the approximate index.
const CandidateMultiplier = 10

// Searcher runs a native vector search. *store.Store implements it.
type Searcher interface {
	VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ListingMatch, error)
}

// Observer receives one call per executed query.
type Observer interface {
	RecordVectorSearch(latency time.Duration, results int, success bool)
}

// Result is a normalized similarity hit.
type Result struct {
	Metadata map[string]any `json:"metadata"`
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
}

// Adapter turns a (vector, k) query into a native search request.
type Adapter struct {
	searcher Searcher
	observer Observer
}

// NewAdapter creates an Adapter. observer may be nil.
func NewAdapter(searcher Searcher, observer Observer) *Adapter {
	return &Adapter{searcher: searcher, observer: observer}
}

// Query returns up to topK listings nearest to vector, in descending score order.
// Store errors are returned unchanged in meaning.
func (a *Adapter) Query(ctx context.Context, vector []float32, topK int) ([]Result, error) {
	if topK < 1 {
		return nil, fmt.Errorf("topK must be at least 1: %d", topK)
	}

	start := time.Now()
	matches, err := a.searcher.VectorSearch(ctx, &store.VectorSearchOptions{
		Vector:        vector,
		Limit:         topK,
		NumCandidates: topK * CandidateMultiplier,
	})
	if a.observer != nil {
		a.observer.RecordVectorSearch(time.Since(start), len(matches), err == nil)
	}
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		if m == nil {
			continue
		}
		metadata := m.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		results = append(results, Result{
			ID:       m.ID,
			Text:     m.Text,
			Metadata: metadata,
			Score:    m.Score,
		})
	}
	return results, nil
}
