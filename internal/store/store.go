// Package store persists todos in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/tododb/pkg/debug"
	"github.com/vanderheijden86/tododb/pkg/metrics"
	"github.com/vanderheijden86/tododb/pkg/model"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

var (
	// ErrNotFound is returned when no todo has the requested id.
	ErrNotFound = errors.New("todo not found")
	// ErrEmptyTitle is returned by Create and Update for a blank title.
	ErrEmptyTitle = model.ErrEmptyTitle
)

// timeLayout is how timestamps are written to TEXT columns.
const timeLayout = time.RFC3339Nano

const selectColumns = `id, title, description, created_at, updated_at, completed_at, due_by, parent_id, hidden`

// Store is the SQLite-backed record store.
type Store struct {
	db   *sql.DB
	path string

	// now is swapped in tests.
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("cannot create database directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	// One connection keeps per-connection pragmas and the WAL writer consistent.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			debug.Log("store: %s failed: %v", p, err)
		}
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	debug.Log("store: opened %s", path)
	return &Store{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close checkpoints the WAL into the main file, truncating it, and closes.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		debug.Log("store: truncate checkpoint failed: %v", err)
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Checkpoint runs a passive WAL checkpoint.
func (s *Store) Checkpoint(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// IntegrityCheck runs PRAGMA integrity_check and returns its messages. A
// healthy database yields a single "ok".
func (s *Store) IntegrityCheck(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA integrity_check")
	if err != nil {
		return nil, fmt.Errorf("integrity check: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			return nil, fmt.Errorf("integrity check: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// LoadAll returns every todo ordered by id.
func (s *Store) LoadAll(ctx context.Context) ([]model.Todo, error) {
	defer metrics.Timer(metrics.StoreLoad)()
	return s.query(ctx, "SELECT "+selectColumns+" FROM todos ORDER BY id")
}

// LoadCompleted returns completed todos, most recently completed first.
// A limit of zero or less returns all of them.
func (s *Store) LoadCompleted(ctx context.Context, limit int) ([]model.Todo, error) {
	q := "SELECT " + selectColumns + " FROM todos WHERE completed_at IS NOT NULL ORDER BY completed_at DESC, id DESC"
	if limit > 0 {
		return s.query(ctx, q+" LIMIT ?", limit)
	}
	return s.query(ctx, q)
}

// Get returns the todo with id.
func (s *Store) Get(ctx context.Context, id int64) (model.Todo, error) {
	todos, err := s.query(ctx, "SELECT "+selectColumns+" FROM todos WHERE id = ?", id)
	if err != nil {
		return model.Todo{}, err
	}
	if len(todos) == 0 {
		return model.Todo{}, fmt.Errorf("todo #%d: %w", id, ErrNotFound)
	}
	return todos[0], nil
}

// Create inserts a todo and returns its assigned id.
func (s *Store) Create(ctx context.Context, n model.NewTodo) (int64, error) {
	if err := n.Validate(); err != nil {
		return 0, err
	}
	if n.ParentID != nil {
		if _, err := s.Get(ctx, *n.ParentID); err != nil {
			return 0, fmt.Errorf("parent: %w", err)
		}
	}
	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (title, description, created_at, updated_at, parent_id, due_by, hidden)
		 VALUES (?, ?, ?, ?, ?, ?, 0)`,
		strings.TrimSpace(n.Title), n.Description, formatTime(now), formatTime(now),
		nullInt(n.ParentID), nullTime(n.DueBy),
	)
	if err != nil {
		return 0, fmt.Errorf("create todo: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create todo: %w", err)
	}
	debug.Log("store: created #%d", id)
	return id, nil
}

// Update replaces title and description.
func (s *Store) Update(ctx context.Context, id int64, title, description string) error {
	if strings.TrimSpace(title) == "" {
		return model.ErrEmptyTitle
	}
	return s.exec(ctx, id, "UPDATE todos SET title = ?, description = ?, updated_at = ? WHERE id = ?",
		strings.TrimSpace(title), description, formatTime(s.now().UTC()), id)
}

// UpdateParent moves id under parent, or to the root when parent is nil.
// It walks the persisted parent chain and refuses moves that would loop.
func (s *Store) UpdateParent(ctx context.Context, id int64, parent *int64) error {
	if parent != nil {
		if *parent == id {
			return &tree.CycleError{Source: id, Destination: id}
		}
		loops, err := s.reaches(ctx, *parent, id)
		if err != nil {
			return err
		}
		if loops {
			return &tree.CycleError{Source: id, Destination: *parent}
		}
	}
	return s.exec(ctx, id, "UPDATE todos SET parent_id = ?, updated_at = ? WHERE id = ?",
		nullInt(parent), formatTime(s.now().UTC()), id)
}

// reaches reports whether walking up from start hits target. It also fails
// when start does not exist.
func (s *Store) reaches(ctx context.Context, start, target int64) (bool, error) {
	seen := map[int64]bool{}
	cur := start
	for {
		if cur == target {
			return true, nil
		}
		if seen[cur] {
			// Pre-existing loop that does not include target.
			return false, nil
		}
		seen[cur] = true

		var pid sql.NullInt64
		err := s.db.QueryRowContext(ctx, "SELECT parent_id FROM todos WHERE id = ?", cur).Scan(&pid)
		if errors.Is(err, sql.ErrNoRows) {
			if cur == start {
				return false, fmt.Errorf("parent #%d: %w", start, ErrNotFound)
			}
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("walk parents: %w", err)
		}
		if !pid.Valid {
			return false, nil
		}
		cur = pid.Int64
	}
}

// SetCompleted marks id completed now, or clears completion.
func (s *Store) SetCompleted(ctx context.Context, id int64, done bool) error {
	now := formatTime(s.now().UTC())
	if done {
		return s.exec(ctx, id, "UPDATE todos SET completed_at = ?, updated_at = ? WHERE id = ?", now, now, id)
	}
	return s.exec(ctx, id, "UPDATE todos SET completed_at = NULL, updated_at = ? WHERE id = ?", now, id)
}

// ToggleCompleted flips completion and returns the new state.
func (s *Store) ToggleCompleted(ctx context.Context, id int64) (bool, error) {
	td, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	done := !td.IsCompleted()
	return done, s.SetCompleted(ctx, id, done)
}

// ToggleHidden flips the hidden flag and returns the new state.
func (s *Store) ToggleHidden(ctx context.Context, id int64) (bool, error) {
	td, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	hidden := !td.Hidden
	return hidden, s.exec(ctx, id, "UPDATE todos SET hidden = ?, updated_at = ? WHERE id = ?",
		hidden, formatTime(s.now().UTC()), id)
}

// Delete removes id together with all of its descendants and returns how
// many rows were deleted.
func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM todos WHERE id = ?
			UNION
			SELECT t.id FROM todos t JOIN subtree s ON t.parent_id = s.id
		)
		DELETE FROM todos WHERE id IN (SELECT id FROM subtree)`, id)
	if err != nil {
		return 0, fmt.Errorf("delete todo #%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete todo #%d: %w", id, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("delete todo #%d: %w", id, ErrNotFound)
	}
	debug.Log("store: deleted #%d (%d rows)", id, n)
	return n, nil
}

func (s *Store) exec(ctx context.Context, id int64, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update todo #%d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update todo #%d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("todo #%d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]model.Todo, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query todos: %w", err)
	}
	defer rows.Close()

	var todos []model.Todo
	for rows.Next() {
		var (
			td               model.Todo
			created, updated string
			completed, due   sql.NullString
			parent           sql.NullInt64
			hidden           int
		)
		if err := rows.Scan(&td.ID, &td.Title, &td.Description, &created, &updated,
			&completed, &due, &parent, &hidden); err != nil {
			return nil, fmt.Errorf("scan todo: %w", err)
		}
		td.CreatedAt = parseTime(created)
		td.UpdatedAt = parseTime(updated)
		if td.UpdatedAt.IsZero() {
			td.UpdatedAt = td.CreatedAt
		}
		if completed.Valid && completed.String != "" {
			t := parseTime(completed.String)
			td.CompletedAt = &t
		}
		if due.Valid && due.String != "" {
			t := parseTime(due.String)
			td.DueBy = &t
		}
		if parent.Valid {
			td.ParentID = model.Ptr(parent.Int64)
		}
		td.Hidden = hidden != 0
		todos = append(todos, td)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate todos: %w", err)
	}
	return todos, nil
}

func formatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// parseLayouts covers what we write plus what older databases stored.
var parseLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) time.Time {
	for _, layout := range parseLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if s != "" {
		debug.Log("store: unparseable timestamp %q", s)
	}
	return time.Time{}
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t.UTC()), Valid: true}
}
