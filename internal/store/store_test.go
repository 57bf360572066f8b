package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/vanderheijden86/tododb/pkg/model"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "todos.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreate(t *testing.T, s *Store, title string, parent *int64) int64 {
	t.Helper()
	id, err := s.Create(context.Background(), model.NewTodo{Title: title, ParentID: parent})
	if err != nil {
		t.Fatalf("Create(%q): %v", title, err)
	}
	return id
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	root := mustCreate(t, s, "Project", nil)
	id, err := s.Create(ctx, model.NewTodo{Title: "  Task  ", Description: "notes", ParentID: model.Ptr(root)})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Task" || got.Description != "notes" {
		t.Errorf("got %+v", got)
	}
	if got.ParentID == nil || *got.ParentID != root {
		t.Errorf("ParentID = %v, want %d", got.ParentID, root)
	}
	if !got.CreatedAt.Equal(fixed) || !got.UpdatedAt.Equal(fixed) {
		t.Errorf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	if got.IsCompleted() || got.Hidden {
		t.Error("new todo should be open and visible")
	}
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Create(ctx, model.NewTodo{Title: " "}); !errors.Is(err, model.ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
	if _, err := s.Create(ctx, model.NewTodo{Title: "x", ParentID: model.Ptr(42)}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing parent, got %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	_, err := openTestStore(t).Get(context.Background(), 9)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadAllOrderedByID(t *testing.T) {
	s := openTestStore(t)
	a := mustCreate(t, s, "a", nil)
	b := mustCreate(t, s, "b", model.Ptr(a))
	c := mustCreate(t, s, "c", nil)

	todos, err := s.LoadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var ids []int64
	for _, td := range todos {
		ids = append(ids, td.ID)
	}
	if !slices.Equal(ids, []int64{a, b, c}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	id := mustCreate(t, s, "old", nil)

	if err := s.Update(ctx, id, "new", "desc"); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(ctx, id)
	if got.Title != "new" || got.Description != "desc" {
		t.Errorf("got %+v", got)
	}
	if err := s.Update(ctx, id, "", "x"); !errors.Is(err, model.ErrEmptyTitle) {
		t.Errorf("expected ErrEmptyTitle, got %v", err)
	}
	if err := s.Update(ctx, 999, "t", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestToggles(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	id := mustCreate(t, s, "task", nil)

	done, err := s.ToggleCompleted(ctx, id)
	if err != nil || !done {
		t.Fatalf("ToggleCompleted = %v, %v", done, err)
	}
	got, _ := s.Get(ctx, id)
	if !got.IsCompleted() {
		t.Error("expected completed")
	}
	completed, _ := s.LoadCompleted(ctx, 10)
	if len(completed) != 1 || completed[0].ID != id {
		t.Errorf("LoadCompleted = %+v", completed)
	}
	if done, _ := s.ToggleCompleted(ctx, id); done {
		t.Error("second toggle should reopen")
	}

	hidden, err := s.ToggleHidden(ctx, id)
	if err != nil || !hidden {
		t.Fatalf("ToggleHidden = %v, %v", hidden, err)
	}
	got, _ = s.Get(ctx, id)
	if !got.Hidden || got.IsCompleted() {
		t.Errorf("got %+v", got)
	}
}

func TestUpdateParent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := mustCreate(t, s, "a", nil)
	b := mustCreate(t, s, "b", model.Ptr(a))
	c := mustCreate(t, s, "c", model.Ptr(b))
	d := mustCreate(t, s, "d", nil)

	if err := s.UpdateParent(ctx, c, model.Ptr(d)); err != nil {
		t.Fatalf("UpdateParent: %v", err)
	}
	got, _ := s.Get(ctx, c)
	if got.ParentID == nil || *got.ParentID != d {
		t.Errorf("ParentID = %v", got.ParentID)
	}
	if err := s.UpdateParent(ctx, c, nil); err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(ctx, c)
	if got.ParentID != nil {
		t.Error("expected root")
	}

	var ce *tree.CycleError
	if err := s.UpdateParent(ctx, a, model.Ptr(a)); !errors.As(err, &ce) {
		t.Errorf("self parent: %v", err)
	}
	if err := s.UpdateParent(ctx, a, model.Ptr(b)); !errors.As(err, &ce) {
		t.Errorf("child as parent: %v", err)
	}
	if err := s.UpdateParent(ctx, a, model.Ptr(77)); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing parent: %v", err)
	}
}

func TestStoreMoveThroughEngine(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := mustCreate(t, s, "a", nil)
	b := mustCreate(t, s, "b", model.Ptr(a))

	todos, _ := s.LoadAll(ctx)
	f := tree.Build(todos)
	if _, err := tree.Move(ctx, s, f, a, model.Ptr(b)); err == nil {
		t.Fatal("expected cycle error")
	}
	moved, err := tree.Move(ctx, s, f, b, nil)
	if err != nil || !moved {
		t.Fatalf("Move = %v, %v", moved, err)
	}
	todos, _ = s.LoadAll(ctx)
	if roots := tree.Build(todos).Roots; !slices.Equal(roots, []int64{a, b}) {
		t.Errorf("roots = %v", roots)
	}
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	a := mustCreate(t, s, "a", nil)
	b := mustCreate(t, s, "b", model.Ptr(a))
	mustCreate(t, s, "c", model.Ptr(b))
	keep := mustCreate(t, s, "keep", nil)

	n, err := s.Delete(ctx, a)
	if err != nil || n != 3 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	todos, _ := s.LoadAll(ctx)
	if len(todos) != 1 || todos[0].ID != keep {
		t.Errorf("remaining = %+v", todos)
	}
	if _, err := s.Delete(ctx, a); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMigratesOldSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "old.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`CREATE TABLE todos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		completed_at TEXT,
		parent_id INTEGER
	)`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO todos (title, created_at) VALUES ('legacy', '2023-05-01T10:00:00Z')`); err != nil {
		t.Fatal(err)
	}
	db.Close()

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	if got.Title != "legacy" || got.Hidden || !got.UpdatedAt.Equal(want) {
		t.Errorf("got %+v", got)
	}
}

func TestCheckpointAndIntegrity(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	mustCreate(t, s, "a", nil)

	if err := s.Checkpoint(ctx); err != nil {
		t.Errorf("Checkpoint: %v", err)
	}
	msgs, err := s.IntegrityCheck(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0] != "ok" {
		t.Errorf("integrity = %v", msgs)
	}
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	n, err := s.SeedDemo(ctx)
	if err != nil {
		t.Fatal(err)
	}
	todos, _ := s.LoadAll(ctx)
	if len(todos) != n {
		t.Fatalf("created %d, loaded %d", n, len(todos))
	}

	f := tree.Build(todos)
	if len(f.Roots) != len(demoProjects) {
		t.Errorf("roots = %d, want %d", len(f.Roots), len(demoProjects))
	}
	completed := 0
	for _, td := range todos {
		if td.IsCompleted() {
			completed++
			if td.ParentID == nil {
				t.Errorf("project %q should stay open", td.Title)
			}
		}
	}
	if completed != n/3 {
		t.Errorf("completed = %d, want %d", completed, n/3)
	}
	if !tree.CheckIntegrity(todos).OK() {
		t.Error("demo data should be consistent")
	}
}
