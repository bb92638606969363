package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/pkg/errors"

	// Import the SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/hrygo/staynest/internal/profile"
	"github.com/hrygo/staynest/store"
)

// ============================================================================
// SQLITE SUPPORT POLICY
// ============================================================================
// SQLite is a development driver for running the service without a managed
// vector database.
//
// - Vectors are stored as little-endian float32 BLOBs.
// - Similarity is exact cosine computed in the application layer (O(n)).
// - numCandidates is ignored; every embedded listing is scored.
// ============================================================================

var tableNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// isValidTableName validates that a table name contains only safe characters.
// This prevents SQL injection when using dynamic table names.
func isValidTableName(name string) bool {
	return tableNamePattern.MatchString(name) && len(name) <= 64
}

type DB struct {
	db    *sql.DB
	table string
}

// NewDB opens a database specified by its database driver name and a
// driver-specific data source name, usually consisting of at least a
// database name and connection information.
func NewDB(profile *profile.Profile) (store.Driver, error) {
	if profile.DSN == "" {
		return nil, errors.New("dsn required")
	}
	if !isValidTableName(profile.Collection) {
		return nil, errors.Errorf("invalid table name %q", profile.Collection)
	}

	// When using the `modernc.org/sqlite` driver, each pragma must be prefixed with `_pragma=`.
	sqliteDB, err := sql.Open("sqlite", profile.DSN+"?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open db with dsn: %s", profile.DSN)
	}

	// SQLite: single connection is optimal with WAL
	sqliteDB.SetMaxOpenConns(1)
	sqliteDB.SetMaxIdleConns(1)
	sqliteDB.SetConnMaxLifetime(0)
	sqliteDB.SetConnMaxIdleTime(0)

	return &DB{db: sqliteDB, table: profile.Collection}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) Migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id BLOB PRIMARY KEY,
		text_for_ai TEXT NOT NULL DEFAULT '',
		image TEXT NOT NULL DEFAULT '{}',
		embedding BLOB,
		created_ts INTEGER NOT NULL DEFAULT (strftime('%%s', 'now'))
	)`, d.table)
	if _, err := d.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrap(err, "failed to migrate")
	}
	return nil
}
