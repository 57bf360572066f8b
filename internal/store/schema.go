package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

const createTodos = `
CREATE TABLE IF NOT EXISTS todos (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL DEFAULT '',
	completed_at TEXT,
	due_by TEXT,
	parent_id INTEGER,
	hidden INTEGER NOT NULL DEFAULT 0
)`

// columnMigrations add columns missing from databases created by older
// releases. Each is applied only if the column is absent.
var columnMigrations = []struct {
	column string
	ddl    string
}{
	{"hidden", "ALTER TABLE todos ADD COLUMN hidden INTEGER NOT NULL DEFAULT 0"},
	{"due_by", "ALTER TABLE todos ADD COLUMN due_by TEXT"},
	{"updated_at", "ALTER TABLE todos ADD COLUMN updated_at TEXT NOT NULL DEFAULT ''"},
}

var indexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_todos_parent ON todos(parent_id)",
	"CREATE INDEX IF NOT EXISTS idx_todos_completed ON todos(completed_at)",
}

// pragmas tune the connection for an interactive single-writer workload.
var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA wal_autocheckpoint = 5000",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA cache_size = -64000", // 64MB
	"PRAGMA temp_store = MEMORY",
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, createTodos); err != nil {
		return fmt.Errorf("create todos table: %w", err)
	}

	existing, err := columns(ctx, db)
	if err != nil {
		return err
	}
	for _, m := range columnMigrations {
		if existing[m.column] {
			continue
		}
		if _, err := db.ExecContext(ctx, m.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", m.column, err)
		}
	}
	// Rows from before updated_at existed inherit their creation time.
	if _, err := db.ExecContext(ctx, "UPDATE todos SET updated_at = created_at WHERE updated_at = ''"); err != nil {
		return fmt.Errorf("backfill updated_at: %w", err)
	}

	for _, ddl := range indexes {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func columns(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info(todos)")
	if err != nil {
		return nil, fmt.Errorf("read table info: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notnull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		out[strings.ToLower(name)] = true
	}
	return out, rows.Err()
}
