package store

import "context"

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
// Drivers own the native identifier type of their backend and expose ids only as canonical strings.
type Driver interface {
	Close() error
	Migrate(ctx context.Context) error

	// Listing model related methods.
	GetListing(ctx context.Context, id string) (*Listing, error)
	ListListings(ctx context.Context, find *FindListing) ([]*Listing, error)
	CreateListing(ctx context.Context, create *Listing) (*Listing, error)
	UpdateListingEmbeddings(ctx context.Context, updates []*ListingEmbedding) (int, error)
	CountListingsWithoutEmbedding(ctx context.Context) (int64, error)
	VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*ListingMatch, error)
}
