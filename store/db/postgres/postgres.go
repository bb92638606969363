package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"

	// Import the PostgreSQL driver.
	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/hrygo/staynest/internal/profile"
	"github.com/hrygo/staynest/store"
)

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// isValidTableName validates that a table name contains only safe characters.
// Table names are interpolated into statements, so anything else is rejected.
func isValidTableName(name string) bool {
	return tableNamePattern.MatchString(name) && len(name) <= 63
}

type DB struct {
	db         *sql.DB
	table      string
	dimensions int
}

// NewDB opens a PostgreSQL database with the pgvector extension available.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}
	if !isValidTableName(profile.Collection) {
		return nil, errors.Errorf("invalid table name %q", profile.Collection)
	}

	db, err := sql.Open("postgres", profile.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open db")
	}

	return &DB{
		db:         db,
		table:      profile.Collection,
		dimensions: profile.EmbeddingDimensions,
	}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Migrate creates the listing table and its HNSW cosine index when missing.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			text_for_ai TEXT NOT NULL DEFAULT '',
			image JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d),
			created_ts BIGINT NOT NULL DEFAULT EXTRACT(EPOCH FROM NOW())::BIGINT
		)`, d.table, d.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_embedding ON %s USING hnsw (embedding vector_cosine_ops)`, d.table, d.table),
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to migrate: %s", firstLine(stmt))
		}
	}
	return nil
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
