package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/staynest/internal/profile"
)

func TestVectorSearchOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    *VectorSearchOptions
		wantErr bool
		errMsg  string
	}{
		{"valid", &VectorSearchOptions{Vector: []float32{0.1}, Limit: 5}, false, ""},
		{"empty vector", &VectorSearchOptions{Vector: []float32{}, Limit: 5}, true, "vector cannot be empty"},
		{"nil vector", &VectorSearchOptions{Vector: nil, Limit: 5}, true, "vector cannot be empty"},
		{"zero limit", &VectorSearchOptions{Vector: []float32{0.1}, Limit: 0}, true, "limit must be at least 1"},
		{"negative limit", &VectorSearchOptions{Vector: []float32{0.1}, Limit: -3}, true, "limit must be at least 1"},
		{"limit too large", &VectorSearchOptions{Vector: []float32{0.1}, Limit: 1001}, true, "limit too large"},
		{"candidates below limit", &VectorSearchOptions{Vector: []float32{0.1}, Limit: 5, NumCandidates: 4}, true, "numCandidates"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, strings.Contains(err.Error(), tt.errMsg),
					"expected error to contain %q, got %q", tt.errMsg, err.Error())
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestVectorSearchOptions_Validate_DefaultsCandidatePool(t *testing.T) {
	opts := &VectorSearchOptions{Vector: []float32{0.1}, Limit: 7}

	require.NoError(t, opts.Validate())
	assert.Equal(t, 70, opts.NumCandidates)
}

func TestListing_HasEmbedding(t *testing.T) {
	var missing *Listing
	assert.False(t, missing.HasEmbedding())
	assert.False(t, (&Listing{ID: "a"}).HasEmbedding())
	assert.False(t, (&Listing{ID: "a", Embedding: []float32{}}).HasEmbedding())
	assert.True(t, (&Listing{ID: "a", Embedding: []float32{0.5}}).HasEmbedding())
}

// recordingDriver records the calls that reach the driver.
type recordingDriver struct {
	Driver
	listCalls   int
	updateCalls int
	searchCalls int
}

func (d *recordingDriver) ListListings(context.Context, *FindListing) ([]*Listing, error) {
	d.listCalls++
	return []*Listing{{ID: "x"}}, nil
}

func (d *recordingDriver) UpdateListingEmbeddings(_ context.Context, updates []*ListingEmbedding) (int, error) {
	d.updateCalls++
	return len(updates), nil
}

func (d *recordingDriver) VectorSearch(context.Context, *VectorSearchOptions) ([]*ListingMatch, error) {
	d.searchCalls++
	return nil, nil
}

func TestStore_ShortCircuits(t *testing.T) {
	ctx := context.Background()
	driver := &recordingDriver{}
	s := New(driver, &profile.Profile{Driver: "sqlite"})

	list, err := s.ListListings(ctx, &FindListing{IDList: []string{}})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, driver.listCalls, "empty id list must not reach the driver")

	_, err = s.ListListings(ctx, &FindListing{MissingEmbedding: true})
	require.NoError(t, err)
	assert.Equal(t, 1, driver.listCalls)

	n, err := s.UpdateListingEmbeddings(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 0, driver.updateCalls)

	_, err = s.VectorSearch(ctx, &VectorSearchOptions{Vector: []float32{1}, Limit: 0})
	require.Error(t, err)
	assert.Equal(t, 0, driver.searchCalls, "invalid options must not reach the driver")
}
