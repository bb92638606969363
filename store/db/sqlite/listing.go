package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hrygo/staynest/store"
)

func scanListing(row interface{ Scan(...any) error }) (*store.Listing, error) {
	var (
		rawID     []byte
		listing   store.Listing
		imageJSON string
		blob      []byte
	)
	if err := row.Scan(&rawID, &listing.Text, &imageJSON, &blob); err != nil {
		return nil, err
	}

	id, err := idFromBytes(rawID)
	if err != nil {
		return nil, err
	}
	listing.ID = id
	listing.Image = decodeImage(imageJSON)
	if len(blob) > 0 {
		vec, err := blobToFloat32Array(blob)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode embedding")
		}
		listing.Embedding = vec
	}
	return &listing, nil
}

func decodeImage(raw string) map[string]any {
	image := map[string]any{}
	if raw == "" {
		return image
	}
	if err := json.Unmarshal([]byte(raw), &image); err != nil {
		return map[string]any{}
	}
	return image
}

func (d *DB) GetListing(ctx context.Context, id string) (*store.Listing, error) {
	u, err := parseID(id)
	if err != nil {
		return nil, err
	}

	query := `SELECT id, text_for_ai, image, embedding FROM ` + d.table + ` WHERE id = ?`
	listing, err := scanListing(d.db.QueryRowContext(ctx, query, u[:]))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get listing")
	}
	return listing, nil
}

func inClause(ids []uuid.UUID) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, u := range ids {
		u := u
		marks[i] = "?"
		args[i] = u[:]
	}
	return "(" + strings.Join(marks, ", ") + ")", args
}

func (d *DB) ListListings(ctx context.Context, find *store.FindListing) ([]*store.Listing, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.IDList != nil {
		ids := parseIDs(find.IDList)
		if len(ids) == 0 {
			return []*store.Listing{}, nil
		}
		clause, inArgs := inClause(ids)
		where, args = append(where, "id IN "+clause), append(args, inArgs...)
	}
	if ids := parseIDs(find.ExcludeIDs); len(ids) > 0 {
		clause, inArgs := inClause(ids)
		where, args = append(where, "id NOT IN "+clause), append(args, inArgs...)
	}
	if find.MissingEmbedding {
		where = append(where, "embedding IS NULL")
	}

	query := `SELECT id, text_for_ai, image, embedding FROM ` + d.table + `
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, rowid ASC`
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
	image := create.Image
	if image == nil {
		image = map[string]any{}
	}
	imageJSON, err := json.Marshal(image)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal image")
	}

	var blob any
	if create.HasEmbedding() {
		blob = float32ArrayToBLOB(create.Embedding)
	}

	id := uuid.New()
	stmt := `INSERT INTO ` + d.table + ` (id, text_for_ai, image, embedding) VALUES (?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt, id[:], create.Text, string(imageJSON), blob); err != nil {
		return nil, errors.Wrap(err, "failed to insert listing")
	}

	created := *create
	created.ID = formatID(id)
	return &created, nil
}

func (d *DB) UpdateListingEmbeddings(ctx context.Context, updates []*store.ListingEmbedding) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	updated := 0
	for _, u := range updates {
		id, err := parseID(u.ListingID)
		if err != nil {
			return 0, err
		}
		result, err := tx.ExecContext(ctx, `UPDATE `+d.table+` SET embedding = ? WHERE id = ?`, float32ArrayToBLOB(u.Embedding), id[:])
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

// VectorSearch scores every embedded listing by exact cosine similarity.
// Scores follow the $vectorSearch cosine convention (1 + cos) / 2.
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.ListingMatch, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, text_for_ai, image, embedding FROM `+d.table+` WHERE embedding IS NOT NULL`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search")
	}
	defer rows.Close()

	matches := []*store.ListingMatch{}
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search candidate")
		}
		if len(listing.Embedding) != len(opts.Vector) {
			continue
		}
		matches = append(matches, &store.ListingMatch{
			ID:       listing.ID,
			Text:     listing.Text,
			Metadata: listing.Image,
			Score:    (1 + cosineSimilarity(opts.Vector, listing.Embedding)) / 2,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches, nil
}
