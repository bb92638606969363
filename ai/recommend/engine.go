// Package recommend implements listing recommendations on top of vector search.
package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/hrygo/staynest/ai/internal/strutil"
	"github.com/hrygo/staynest/ai/vector"
	"github.com/hrygo/staynest/store"
)

// DefaultTopK is the number of recommendations returned when the caller does not ask for a count.
const DefaultTopK = 5

const untitled = "Untitled"

// Strategy names, used as metric labels.
const (
	StrategyByID      = "by_id"
	StrategyByText    = "by_text"
	StrategyByHistory = "by_history"
)

// Recommendation is one recommended listing as shown to users.
type Recommendation struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Image      string `json:"image"`
	MatchScore string `json:"match_score"`
}

// ListingStore reads listings by id. *store.Store implements it.
type ListingStore interface {
	GetListing(ctx context.Context, id string) (*store.Listing, error)
	ListListings(ctx context.Context, find *store.FindListing) ([]*store.Listing, error)
}

// Querier runs a similarity query. *vector.Adapter implements it.
type Querier interface {
	Query(ctx context.Context, vec []float32, topK int) ([]vector.Result, error)
}

// Embedder turns text into a query vector. ai.EmbeddingService implements it.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Observer receives one call per strategy invocation.
type Observer interface {
	RecordRecommendation(strategy string, latency time.Duration, success bool)
}

// Engine produces ranked listing recommendations. It holds no mutable state.
type Engine struct {
	listings ListingStore
	querier  Querier
	embedder Embedder
	observer Observer
}

// NewEngine creates an Engine. observer may be nil.
func NewEngine(listings ListingStore, querier Querier, embedder Embedder, observer Observer) *Engine {
	return &Engine{
		listings: listings,
		querier:  querier,
		embedder: embedder,
		observer: observer,
	}
}

// ByID recommends listings similar to an existing listing.
// An unknown, unembedded or malformed listing id yields an empty list.
func (e *Engine) ByID(ctx context.Context, listingID string, topK int) (recs []Recommendation, err error) {
	defer e.observe(StrategyByID, time.Now(), &err)

	anchor, err := e.lookupListing(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if anchor.status != lookupFound {
		slog.Debug("recommend: no anchor listing", "listing_id", listingID, "status", anchor.status)
		return []Recommendation{}, nil
	}

	return e.search(ctx, anchor.vector, topK, anchor.ids)
}

// ByText recommends listings similar to a free-text description.
func (e *Engine) ByText(ctx context.Context, description string, topK int) (recs []Recommendation, err error) {
	defer e.observe(StrategyByText, time.Now(), &err)

	vec, err := e.embedder.Embed(ctx, description)
	if err != nil {
		return nil, fmt.Errorf("failed to embed description: %w", err)
	}
	return e.search(ctx, vec, topK, nil)
}

// ByHistory recommends listings similar to the average of the viewed listings.
// Viewed listings are never recommended back.
func (e *Engine) ByHistory(ctx context.Context, historyIDs []string, topK int) (recs []Recommendation, err error) {
	defer e.observe(StrategyByHistory, time.Now(), &err)

	anchor, err := e.lookupHistory(ctx, historyIDs)
	if err != nil {
		return nil, err
	}
	if anchor.status != lookupFound {
		slog.Debug("recommend: no embedded history listings", "history", len(historyIDs), "status", anchor.status)
		return []Recommendation{}, nil
	}

	return e.search(ctx, anchor.vector, topK, anchor.ids)
}

// search over-fetches by the exclusion count and keeps the first topK results not excluded.
func (e *Engine) search(ctx context.Context, vec []float32, topK int, exclude []string) ([]Recommendation, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	// The over-fetch is capped at the store maximum, so very large histories may return fewer than topK.
	fetch := min(topK+len(excluded), store.MaxVectorSearchLimit)
	results, err := e.querier.Query(ctx, vec, fetch)
	if err != nil {
		return nil, err
	}

	recs := make([]Recommendation, 0, topK)
	for _, r := range results {
		if _, skip := excluded[r.ID]; skip {
			continue
		}
		recs = append(recs, toRecommendation(r))
		if len(recs) >= topK {
			break
		}
	}
	return recs, nil
}

func (e *Engine) observe(strategy string, start time.Time, err *error) {
	if e.observer == nil {
		return
	}
	e.observer.RecordRecommendation(strategy, time.Since(start), *err == nil)
}

func toRecommendation(r vector.Result) Recommendation {
	return Recommendation{
		ID:         r.ID,
		Title:      titleOf(r.Text),
		Image:      imageOf(r.Metadata),
		MatchScore: formatScore(r.Score),
	}
}

// titleOf returns the first line of a listing's text.
func titleOf(text string) string {
	if text == "" {
		return untitled
	}
	return strutil.FirstLine(text)
}

func imageOf(metadata map[string]any) string {
	url, _ := metadata["url"].(string)
	return url
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 2, 64)
}
