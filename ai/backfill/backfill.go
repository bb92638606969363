// Package backfill computes embeddings for listings stored without one.
package backfill

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hrygo/staynest/store"
)

const (
	DefaultBatchSize   = 50
	DefaultChunkSize   = 16
	DefaultConcurrency = 4
)

// Store is the subset of *store.Store the backfill needs.
type Store interface {
	ListListings(ctx context.Context, find *store.FindListing) ([]*store.Listing, error)
	UpdateListingEmbeddings(ctx context.Context, updates []*store.ListingEmbedding) (int, error)
	CountListingsWithoutEmbedding(ctx context.Context) (int64, error)
}

// Embedder embeds listing texts in batches. ai.EmbeddingService implements it.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Observer receives per-batch counts.
type Observer interface {
	RecordBackfill(updated, skipped int)
}

// Config tunes a backfill run. Zero values select the defaults.
type Config struct {
	BatchSize   int
	ChunkSize   int
	Concurrency int
	// RequestsPerSecond limits embedding requests. Zero means unlimited.
	RequestsPerSecond float64
	Observer          Observer
}

// Report summarizes a run.
type Report struct {
	Batches   int   `json:"batches"`
	Processed int   `json:"processed"`
	Updated   int   `json:"updated"`
	Skipped   int   `json:"skipped"`
	Remaining int64 `json:"remaining"`
}

// Backfiller embeds listings lacking an embedding until none are left.
type Backfiller struct {
	store    Store
	embedder Embedder
	cfg      Config
	limiter  *rate.Limiter
}

func New(s Store, embedder Embedder, cfg Config) *Backfiller {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Backfiller{
		store:    s,
		embedder: embedder,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, cfg.Concurrency),
	}
}

// Run processes batches until no eligible listing remains.
// Listings with empty text, or whose embedding request failed, are skipped for the rest of the run.
// Store failures and context cancellation end the run with an error.
func (b *Backfiller) Run(ctx context.Context) (Report, error) {
	var report Report
	skipped := []string{}

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		batch, err := b.store.ListListings(ctx, &store.FindListing{
			MissingEmbedding: true,
			ExcludeIDs:       skipped,
			Limit:            b.cfg.BatchSize,
		})
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			break
		}

		remaining, err := b.store.CountListingsWithoutEmbedding(ctx)
		if err != nil {
			return report, err
		}
		slog.Info("backfill: processing batch", "size", len(batch), "remaining", remaining)

		updates, failed, err := b.embedBatch(ctx, batch)
		if err != nil {
			return report, err
		}

		updated, err := b.store.UpdateListingEmbeddings(ctx, updates)
		if err != nil {
			return report, err
		}

		skipped = append(skipped, failed...)
		report.Batches++
		report.Processed += len(batch)
		report.Updated += updated
		report.Skipped += len(failed)
		if b.cfg.Observer != nil {
			b.cfg.Observer.RecordBackfill(updated, len(failed))
		}
	}

	remaining, err := b.store.CountListingsWithoutEmbedding(ctx)
	if err != nil {
		return report, err
	}
	report.Remaining = remaining

	slog.Info("backfill: finished",
		"batches", report.Batches,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"remaining", report.Remaining,
	)
	return report, nil
}

// embedBatch embeds the batch in chunks and returns the updates plus the ids to skip.
func (b *Backfiller) embedBatch(ctx context.Context, batch []*store.Listing) ([]*store.ListingEmbedding, []string, error) {
	var (
		eligible []*store.Listing
		failed   []string
	)
	for _, listing := range batch {
		if strings.TrimSpace(listing.Text) == "" {
			failed = append(failed, listing.ID)
			continue
		}
		eligible = append(eligible, listing)
	}

	var (
		mu      sync.Mutex
		updates = make([]*store.ListingEmbedding, 0, len(eligible))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Concurrency)
	for start := 0; start < len(eligible); start += b.cfg.ChunkSize {
		chunk := eligible[start:min(start+b.cfg.ChunkSize, len(eligible))]
		g.Go(func() error {
			if err := b.limiter.Wait(gctx); err != nil {
				return err
			}

			texts := make([]string, len(chunk))
			for i, listing := range chunk {
				texts[i] = listing.Text
			}

			vectors, err := b.embedder.EmbedBatch(gctx, texts)

			mu.Lock()
			defer mu.Unlock()
			if err != nil || len(vectors) != len(chunk) {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("backfill: skipping chunk", "size", len(chunk), "error", err)
				for _, listing := range chunk {
					failed = append(failed, listing.ID)
				}
				return nil
			}
			for i, listing := range chunk {
				if len(vectors[i]) == 0 {
					failed = append(failed, listing.ID)
					continue
				}
				updates = append(updates, &store.ListingEmbedding{ListingID: listing.ID, Embedding: vectors[i]})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return updates, failed, nil
}
