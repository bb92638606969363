package postgres

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/staynest/store"
)

func TestParseID_RoundTrip(t *testing.T) {
	u := uuid.New()

	parsed, err := parseID(formatID(u))

	require.NoError(t, err)
	assert.Equal(t, u, parsed)
}

func TestParseID_Invalid(t *testing.T) {
	for _, id := range []string{"", "123", "65a1f0c2e4b0a1b2c3d4e5f6", "not-a-uuid-at-all-xxxxxxxxxxxxxxxxxx"} {
		t.Run(id, func(t *testing.T) {
			_, err := parseID(id)
			require.Error(t, err)
			assert.ErrorIs(t, err, store.ErrInvalidID)
		})
	}
}

func TestParseIDs_Canonicalizes(t *testing.T) {
	u := uuid.New()
	upper := strings.ToUpper(u.String())

	ids := parseIDs([]string{upper, "bad"})

	assert.Equal(t, []string{u.String()}, ids)
}

func TestScoreFromDistance(t *testing.T) {
	tests := []struct {
		name     string
		distance float64
		want     float64
	}{
		{"identical", 0, 1},
		{"orthogonal", 1, 0.5},
		{"opposite", 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scoreFromDistance(tt.distance), 1e-12)
		})
	}
}

func TestEfSearch(t *testing.T) {
	assert.Equal(t, 50, efSearch(50))
	assert.Equal(t, maxEfSearch, efSearch(5000))
}

func TestFindWhere(t *testing.T) {
	u := uuid.New()

	t.Run("malformed id list matches nothing", func(t *testing.T) {
		_, _, ok := findWhere(&store.FindListing{IDList: []string{"bad"}})
		assert.False(t, ok)
	})

	t.Run("id list and missing embedding", func(t *testing.T) {
		where, args, ok := findWhere(&store.FindListing{IDList: []string{u.String()}, MissingEmbedding: true})
		require.True(t, ok)
		assert.Equal(t, []string{"1 = 1", "id = ANY($1::uuid[])", "embedding IS NULL"}, where)
		assert.Len(t, args, 1)
	})

	t.Run("exclusions numbered after id list", func(t *testing.T) {
		where, args, ok := findWhere(&store.FindListing{IDList: []string{u.String()}, ExcludeIDs: []string{uuid.New().String()}})
		require.True(t, ok)
		assert.Equal(t, "NOT (id = ANY($2::uuid[]))", where[2])
		assert.Len(t, args, 2)
	})
}

func TestIsValidTableName(t *testing.T) {
	assert.True(t, isValidTableName("listings"))
	assert.True(t, isValidTableName("_stays_2024"))
	assert.False(t, isValidTableName("listings; DROP TABLE x"))
	assert.False(t, isValidTableName("1listings"))
	assert.False(t, isValidTableName(""))
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", placeholders(3))
	assert.Equal(t, "$4", placeholder(4))
}

func TestDecodeImage(t *testing.T) {
	assert.Equal(t, map[string]any{"url": "u"}, decodeImage([]byte(`{"url":"u"}`)))
	assert.Empty(t, decodeImage(nil))
	assert.Empty(t, decodeImage([]byte(`not json`)))
}
