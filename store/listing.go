package store

import (
	"context"

	"github.com/pkg/errors"
)

// ErrInvalidID is returned when a listing id cannot be parsed into the driver's native identifier.
var ErrInvalidID = errors.New("invalid listing id")

// Listing is a property listing as seen by the AI service.
// ID is always the driver's canonical string form of the native identifier.
type Listing struct {
	ID        string
	Text      string
	Image     map[string]any
	Embedding []float32
}

// HasEmbedding reports whether the listing is visible to vector search.
func (l *Listing) HasEmbedding() bool {
	return l != nil && len(l.Embedding) > 0
}

// FindListing is the find condition for listings.
type FindListing struct {
	// IDList restricts the result to these ids. Malformed ids are dropped.
	// A non-nil empty list matches nothing.
	IDList []string
	// ExcludeIDs removes these ids from the result. Malformed ids are ignored.
	ExcludeIDs []string
	// MissingEmbedding selects only listings without an embedding.
	MissingEmbedding bool
	Limit            int
}

// ListingEmbedding is a vector to be written onto an existing listing.
type ListingEmbedding struct {
	ListingID string
	Embedding []float32
}

// ListingMatch is a normalized vector search hit.
type ListingMatch struct {
	Metadata map[string]any
	ID       string
	Text     string
	Score    float64
}

// MaxVectorSearchLimit is the largest Limit a vector search accepts.
// With the 10x over-scan it keeps numCandidates within the Atlas bound of 10000.
const MaxVectorSearchLimit = 1000

// VectorSearchOptions represents the options for listing vector search.
type VectorSearchOptions struct {
	Vector []float32
	// Limit is the number of matches returned.
	Limit int
	// NumCandidates is the candidate pool scanned by the approximate index.
	NumCandidates int
}

// Validate validates the VectorSearchOptions.
func (o *VectorSearchOptions) Validate() error {
	if len(o.Vector) == 0 {
		return errors.Errorf("vector cannot be empty")
	}
	if o.Limit < 1 {
		return errors.Errorf("limit must be at least 1: %d", o.Limit)
	}
	if o.Limit > MaxVectorSearchLimit {
		return errors.Errorf("limit too large (max %d): %d", MaxVectorSearchLimit, o.Limit)
	}
	if o.NumCandidates == 0 {
		o.NumCandidates = o.Limit * 10
	}
	if o.NumCandidates < o.Limit {
		return errors.Errorf("numCandidates (%d) cannot be less than limit (%d)", o.NumCandidates, o.Limit)
	}
	return nil
}

// GetListing returns the listing with the given id, or nil when it does not exist.
// A malformed id yields ErrInvalidID.
func (s *Store) GetListing(ctx context.Context, id string) (*Listing, error) {
	return s.driver.GetListing(ctx, id)
}

func (s *Store) ListListings(ctx context.Context, find *FindListing) ([]*Listing, error) {
	if find.IDList != nil && len(find.IDList) == 0 {
		return []*Listing{}, nil
	}
	return s.driver.ListListings(ctx, find)
}

func (s *Store) CreateListing(ctx context.Context, create *Listing) (*Listing, error) {
	return s.driver.CreateListing(ctx, create)
}

// UpdateListingEmbeddings writes the embeddings in one bulk operation and returns the number of listings updated.
func (s *Store) UpdateListingEmbeddings(ctx context.Context, updates []*ListingEmbedding) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}
	return s.driver.UpdateListingEmbeddings(ctx, updates)
}

func (s *Store) CountListingsWithoutEmbedding(ctx context.Context) (int64, error) {
	return s.driver.CountListingsWithoutEmbedding(ctx)
}

// VectorSearch performs a k-nearest-neighbor search over listing embeddings.
// Matches are ordered by descending score.
func (s *Store) VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*ListingMatch, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return s.driver.VectorSearch(ctx, opts)
}
