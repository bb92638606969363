package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hrygo/staynest/store"
)

type lookupStatus int

const (
	lookupFound lookupStatus = iota
	lookupNotFound
	lookupInvalid
)

func (s lookupStatus) String() string {
	switch s {
	case lookupFound:
		return "found"
	case lookupNotFound:
		return "not_found"
	case lookupInvalid:
		return "invalid"
	}
	return "unknown"
}

// anchor is the outcome of resolving the listings a recommendation is relative to.
// On lookupFound, vector is the query vector and ids are the canonical ids to exclude.
type anchor struct {
	status lookupStatus
	vector []float32
	ids    []string
}

func (e *Engine) lookupListing(ctx context.Context, listingID string) (anchor, error) {
	listing, err := e.listings.GetListing(ctx, listingID)
	if errors.Is(err, store.ErrInvalidID) {
		return anchor{status: lookupInvalid}, nil
	}
	if err != nil {
		return anchor{}, fmt.Errorf("failed to get listing %s: %w", listingID, err)
	}
	if !listing.HasEmbedding() {
		return anchor{status: lookupNotFound}, nil
	}
	return anchor{
		status: lookupFound,
		vector: listing.Embedding,
		ids:    []string{listing.ID},
	}, nil
}

func (e *Engine) lookupHistory(ctx context.Context, historyIDs []string) (anchor, error) {
	if len(historyIDs) == 0 {
		return anchor{status: lookupNotFound}, nil
	}

	listings, err := e.listings.ListListings(ctx, &store.FindListing{IDList: historyIDs})
	if err != nil {
		return anchor{}, fmt.Errorf("failed to list history listings: %w", err)
	}

	embedded := make([]*store.Listing, 0, len(listings))
	for _, listing := range listings {
		if !listing.HasEmbedding() {
			continue
		}
		if len(embedded) > 0 && len(listing.Embedding) != len(embedded[0].Embedding) {
			slog.Warn("recommend: skipping history listing with mismatched embedding dimension",
				"listing_id", listing.ID,
				"dimension", len(listing.Embedding),
				"expected", len(embedded[0].Embedding),
			)
			continue
		}
		embedded = append(embedded, listing)
	}
	if len(embedded) == 0 {
		return anchor{status: lookupNotFound}, nil
	}

	vectors := make([][]float32, len(embedded))
	ids := make([]string, len(embedded))
	for i, listing := range embedded {
		vectors[i] = listing.Embedding
		ids[i] = listing.ID
	}

	return anchor{
		status: lookupFound,
		vector: meanVector(vectors),
		ids:    ids,
	}, nil
}

// meanVector returns the element-wise mean of equal-length vectors.
func meanVector(vectors [][]float32) []float32 {
	sum := make([]float64, len(vectors[0]))
	for _, vec := range vectors {
		for i, v := range vec {
			sum[i] += float64(v)
		}
	}

	mean := make([]float32, len(sum))
	n := float64(len(vectors))
	for i, s := range sum {
		mean[i] = float32(s / n)
	}
	return mean
}
