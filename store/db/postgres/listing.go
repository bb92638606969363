package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/staynest/store"
)

// maxEfSearch is the upper bound pgvector accepts for hnsw.ef_search.
const maxEfSearch = 1000

// efSearch maps the requested candidate pool onto the HNSW search breadth.
func efSearch(numCandidates int) int {
	if numCandidates > maxEfSearch {
		return maxEfSearch
	}
	return numCandidates
}

// scoreFromDistance converts a pgvector cosine distance into the $vectorSearch cosine score (1 + cos) / 2.
func scoreFromDistance(distance float64) float64 {
	return 1 - distance/2
}

func (d *DB) listingColumns() string {
	return "id, text_for_ai, image, embedding"
}

func scanListing(row interface{ Scan(...any) error }) (*store.Listing, error) {
	var (
		id        uuid.UUID
		listing   store.Listing
		imageJSON []byte
		vector    *pgvector.Vector
	)
	if err := row.Scan(&id, &listing.Text, &imageJSON, &vector); err != nil {
		return nil, err
	}
	listing.ID = formatID(id)
	listing.Image = decodeImage(imageJSON)
	if vector != nil {
		listing.Embedding = vector.Slice()
	}
	return &listing, nil
}

func decodeImage(raw []byte) map[string]any {
	image := map[string]any{}
	if len(raw) == 0 {
		return image
	}
	if err := json.Unmarshal(raw, &image); err != nil {
		return map[string]any{}
	}
	return image
}

func (d *DB) GetListing(ctx context.Context, id string) (*store.Listing, error) {
	u, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + d.listingColumns() + ` FROM ` + d.table + ` WHERE id = ` + placeholder(1)
	listing, err := scanListing(d.db.QueryRowContext(ctx, query, u))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get listing")
	}
	return listing, nil
}

// findWhere builds the WHERE clause for a find condition. ok is false when nothing can match.
func findWhere(find *store.FindListing) (where []string, args []any, ok bool) {
	where = []string{"1 = 1"}
	if find.IDList != nil {
		ids := parseIDs(find.IDList)
		if len(ids) == 0 {
			return nil, nil, false
		}
		where, args = append(where, "id = ANY("+placeholder(len(args)+1)+"::uuid[])"), append(args, pq.Array(ids))
	}
	if ids := parseIDs(find.ExcludeIDs); len(ids) > 0 {
		where, args = append(where, "NOT (id = ANY("+placeholder(len(args)+1)+"::uuid[]))"), append(args, pq.Array(ids))
	}
	if find.MissingEmbedding {
		where = append(where, "embedding IS NULL")
	}
	return where, args, true
}

func (d *DB) ListListings(ctx context.Context, find *store.FindListing) ([]*store.Listing, error) {
	where, args, ok := findWhere(find)
	if !ok {
		return []*store.Listing{}, nil
	}

	query := `SELECT ` + d.listingColumns() + ` FROM ` + d.table + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC`
	if find.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list listings")
	}
	defer rows.Close()

	list := []*store.Listing{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan listing")
		}
		list = append(list, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) CreateListing(ctx context.Context, create *store.Listing) (*store.Listing, error) {
	imageJSON, err := json.Marshal(nonNilImage(create.Image))
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal image")
	}

	var vector any
	if create.HasEmbedding() {
		vector = pgvector.NewVector(create.Embedding)
	}

	stmt := `INSERT INTO ` + d.table + ` (id, text_for_ai, image, embedding) VALUES (` + placeholders(4) + `)`
	id := uuid.New()
	if _, err := d.db.ExecContext(ctx, stmt, id, create.Text, imageJSON, vector); err != nil {
		return nil, errors.Wrap(err, "failed to insert listing")
	}

	created := *create
	created.ID = formatID(id)
	return &created, nil
}

func nonNilImage(image map[string]any) map[string]any {
	if image == nil {
		return map[string]any{}
	}
	return image
}

func (d *DB) UpdateListingEmbeddings(ctx context.Context, updates []*store.ListingEmbedding) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `UPDATE `+d.table+` SET embedding = `+placeholder(1)+` WHERE id = `+placeholder(2))
	if err != nil {
		return 0, errors.Wrap(err, "failed to prepare embedding update")
	}
	defer stmt.Close()

	updated := 0
	for _, u := range updates {
		id, err := parseID(u.ListingID)
		if err != nil {
			return 0, err
		}
		result, err := stmt.ExecContext(ctx, pgvector.NewVector(u.Embedding), id)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to update embedding of listing %s", u.ListingID)
		}
		rows, _ := result.RowsAffected()
		updated += int(rows)
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit embedding updates")
	}
	return updated, nil
}

func (d *DB) CountListingsWithoutEmbedding(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+d.table+` WHERE embedding IS NULL`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count listings without embedding")
	}
	return count, nil
}

// VectorSearch runs an ordered cosine-distance query served by the HNSW index.
// The candidate pool widens hnsw.ef_search for the duration of the read-only transaction.
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ListingMatch, error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", efSearch(opts.NumCandidates))); err != nil {
		return nil, errors.Wrap(err, "failed to set hnsw.ef_search")
	}

	query := `
		SELECT id, text_for_ai, image, embedding <=> ` + placeholder(1) + ` AS distance
		FROM ` + d.table + `
		WHERE embedding IS NOT NULL
		ORDER BY distance ASC
		LIMIT ` + placeholder(2)

	rows, err := tx.QueryContext(ctx, query, pgvector.NewVector(opts.Vector), opts.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	matches := []*store.ListingMatch{}
	for rows.Next() {
		var (
			id        uuid.UUID
			text      string
			imageJSON []byte
			distance  float64
		)
		if err := rows.Scan(&id, &text, &imageJSON, &distance); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		matches = append(matches, &store.ListingMatch{
			ID:       formatID(id),
			Text:     text,
			Metadata: decodeImage(imageJSON),
			Score:    scoreFromDistance(distance),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}
