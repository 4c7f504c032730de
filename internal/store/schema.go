package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// SchemaVersion is the newest schema version this build understands.
const SchemaVersion = 1

// migrations[i] upgrades a catalog from version i to version i+1.
var migrations = []string{
	`
-- One row per command invocation
CREATE TABLE runs (
    id TEXT PRIMARY KEY,        -- uuid
    command TEXT NOT NULL,
    label TEXT,
    params TEXT,                -- JSON
    created_at TEXT NOT NULL
);
CREATE INDEX idx_runs_created ON runs(created_at);

-- One row per cluster graph processed in a run
CREATE TABLE events (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    source TEXT NOT NULL,
    graph INTEGER NOT NULL,
    blobs INTEGER NOT NULL,
    skipped INTEGER NOT NULL,
    width INTEGER NOT NULL,     -- matrix columns
    nrows INTEGER NOT NULL,
    matrix BLOB,                -- snappy-compressed little-endian float64
    PRIMARY KEY (run_id, seq)
);
`,
}

// InitSchema brings db up to SchemaVersion. Existing catalogs are checked
// for integrity first; a catalog written by a newer build is rejected.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	var current int
	if err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", current, SchemaVersion)
	}
	if current > 0 {
		if err := ValidateIntegrity(ctx, db); err != nil {
			return fmt.Errorf("database integrity check failed: %w", err)
		}
	}

	for v := current; v < SchemaVersion; v++ {
		if err := migrate(ctx, db, v+1, migrations[v]); err != nil {
			return err
		}
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB, version int, ddl string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration %d: %w", version, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("migration %d: %w", version, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`, version); err != nil {
		return fmt.Errorf("failed to record schema version %d: %w", version, err)
	}
	return tx.Commit()
}

// ValidateIntegrity runs PRAGMA integrity_check and foreign_key_check.
func ValidateIntegrity(ctx context.Context, db *sql.DB) error {
	problems, err := pragmaRows(ctx, db, `PRAGMA integrity_check`)
	if err != nil {
		return err
	}
	if len(problems) != 1 || problems[0] != "ok" {
		return fmt.Errorf("integrity_check failed: %s", strings.Join(problems, "; "))
	}

	violations, err := pragmaRows(ctx, db, `PRAGMA foreign_key_check`)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		return fmt.Errorf("foreign_key_check failed: %s", strings.Join(violations, "; "))
	}
	return nil
}

// pragmaRows runs a pragma and renders each result row as space-separated
// columns.
func pragmaRows(ctx context.Context, db *sql.DB, pragma string) ([]string, error) {
	rows, err := db.QueryContext(ctx, pragma)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", pragma, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan %s result: %w", pragma, err)
		}
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = v.String
		}
		out = append(out, strings.Join(parts, " "))
	}
	return out, rows.Err()
}
