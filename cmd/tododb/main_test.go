package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/tododb/pkg/tree"
)

// env runs tododb commands against a database in a temp dir.
type env struct {
	t   *testing.T
	dir string
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_STATE_HOME", filepath.Join(dir, "state"))
	return &env{t: t, dir: dir}
}

func (e *env) configPath() string { return filepath.Join(e.dir, "config.yaml") }
func (e *env) dbPath() string     { return filepath.Join(e.dir, "todos.db") }

func (e *env) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--config", e.configPath(), "--db", e.dbPath()))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *env) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("tododb %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

// seed builds Work > Mobile App > Login, plus a Groceries root.
func (e *env) seed() {
	e.t.Helper()
	for _, args := range [][]string{
		{"add", "Work"},
		{"add", "Mobile", "App", "--parent", "1"},
		{"add", "Login", "--parent", "#2", "-d", "email and password"},
		{"add", "Groceries"},
	} {
		e.mustRun(args...)
	}
}

func TestAddPrintsID(t *testing.T) {
	e := newEnv(t)
	if got := e.mustRun("add", "Work"); got != "Created #1\n" {
		t.Errorf("add = %q", got)
	}
	if got := e.mustRun("add", "Mobile", "--parent", "1"); got != "Created #2\n" {
		t.Errorf("add child = %q", got)
	}
}

func TestAddUnknownParent(t *testing.T) {
	e := newEnv(t)
	if _, err := e.run("add", "Orphan", "--parent", "9"); err == nil {
		t.Error("expected an error for a missing parent")
	}
}

func TestListTree(t *testing.T) {
	e := newEnv(t)
	if got := e.mustRun("list"); got != "No todos.\n" {
		t.Errorf("empty list = %q", got)
	}

	e.seed()
	want := "[ ] #1 Work\n" +
		"`-- [ ] #2 Mobile App\n" +
		"    `-- [ ] #3 Login\n" +
		"[ ] #4 Groceries\n"
	if got := e.mustRun("list"); got != want {
		t.Errorf("list:\n%s\nwant:\n%s", got, want)
	}
}

func TestListHidesCompletedUnlessAll(t *testing.T) {
	e := newEnv(t)
	e.seed()
	if got := e.mustRun("done", "3"); got != "Completed #3\n" {
		t.Errorf("done = %q", got)
	}

	if got := e.mustRun("list"); strings.Contains(got, "Login") {
		t.Errorf("completed todo listed by default:\n%s", got)
	}
	if got := e.mustRun("list", "--all"); !strings.Contains(got, "    `-- [x] #3 Login\n") {
		t.Errorf("list --all:\n%s", got)
	}
	if got := e.mustRun("list", "--completed"); !strings.HasPrefix(got, "[x] #3 Login  done ") {
		t.Errorf("list --completed = %q", got)
	}

	if got := e.mustRun("undone", "3"); got != "Reopened #3\n" {
		t.Errorf("undone = %q", got)
	}
	if got := e.mustRun("list", "--completed"); got != "Nothing completed yet.\n" {
		t.Errorf("list --completed after undone = %q", got)
	}
}

func TestListJSON(t *testing.T) {
	e := newEnv(t)
	e.seed()
	out := e.mustRun("list", "--json")

	var doc map[string]any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("list --json is not JSON: %v\n%s", err, out)
	}

	out = e.mustRun("list", "--completed", "--json")
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("list --completed --json = %q", out)
	}
}

func TestHideToggles(t *testing.T) {
	e := newEnv(t)
	e.seed()
	if got := e.mustRun("hide", "4"); got != "Hid #4\n" {
		t.Errorf("hide = %q", got)
	}
	if got := e.mustRun("list"); strings.Contains(got, "Groceries") {
		t.Errorf("hidden todo listed:\n%s", got)
	}
	if got := e.mustRun("list", "-a"); !strings.Contains(got, "[ ] #4 Groceries (hidden)\n") {
		t.Errorf("list -a:\n%s", got)
	}
	if got := e.mustRun("hide", "4"); got != "Unhid #4\n" {
		t.Errorf("second hide = %q", got)
	}
}

func TestMove(t *testing.T) {
	e := newEnv(t)
	e.seed()

	if got := e.mustRun("move", "3", "--to", "root"); got != "Moved #3 to root\n" {
		t.Errorf("move to root = %q", got)
	}
	if got := e.mustRun("move", "3", "--to", "root"); got != "#3 is already there\n" {
		t.Errorf("repeat move = %q", got)
	}
	if got := e.mustRun("move", "3", "--to", "4"); got != "Moved #3 under #4\n" {
		t.Errorf("move under = %q", got)
	}

	want := "[ ] #1 Work\n" +
		"`-- [ ] #2 Mobile App\n" +
		"[ ] #4 Groceries\n" +
		"`-- [ ] #3 Login\n"
	if got := e.mustRun("list"); got != want {
		t.Errorf("list after move:\n%s\nwant:\n%s", got, want)
	}
}

func TestMoveRejectsCycles(t *testing.T) {
	e := newEnv(t)
	e.seed()

	_, err := e.run("move", "1", "--to", "3")
	var ce *tree.CycleError
	if !errors.As(err, &ce) {
		t.Fatalf("move under descendant: err = %v, want CycleError", err)
	}
	if _, err := e.run("move", "2", "--to", "2"); !errors.As(err, &ce) {
		t.Errorf("move under itself: err = %v", err)
	}
	if _, err := e.run("move", "2"); err == nil {
		t.Error("move without --to should fail")
	}
}

func TestDelete(t *testing.T) {
	e := newEnv(t)
	e.seed()

	if got := e.mustRun("delete", "1", "--yes"); got != "Deleted #1 and 2 descendants\n" {
		t.Errorf("delete subtree = %q", got)
	}
	if got := e.mustRun("delete", "#4", "-y"); got != "Deleted #4\n" {
		t.Errorf("delete leaf = %q", got)
	}
	if got := e.mustRun("list", "--all"); got != "No todos.\n" {
		t.Errorf("list after delete = %q", got)
	}
	if _, err := e.run("delete", "1", "--yes"); err == nil {
		t.Error("deleting a missing todo should fail")
	}
}

func TestSearch(t *testing.T) {
	e := newEnv(t)
	e.seed()

	if got := e.mustRun("search", "login"); got != "[ ] #3 Login  in Work › Mobile App\n" {
		t.Errorf("search = %q", got)
	}
	// Descriptions are searched too.
	if got := e.mustRun("search", "pass(word)?"); !strings.Contains(got, "#3 Login") {
		t.Errorf("search description = %q", got)
	}
	if got := e.mustRun("search", "login", "--case-sensitive"); got != "No matches for \"login\"\n" {
		t.Errorf("case-sensitive search = %q", got)
	}
	if _, err := e.run("search", "("); err == nil {
		t.Error("invalid pattern should fail")
	}
}

func TestGoto(t *testing.T) {
	e := newEnv(t)
	e.seed()

	if got := e.mustRun("goto", "3"); got != "[ ] #3 Login  in Work › Mobile App\n" {
		t.Errorf("goto = %q", got)
	}
	if got := e.mustRun("goto", "9"); got != "No visible todo matches #9\n" {
		t.Errorf("goto miss = %q", got)
	}

	e.mustRun("done", "3")
	if got := e.mustRun("goto", "3"); got != "No visible todo matches #3\n" {
		t.Errorf("goto completed = %q", got)
	}
	if got := e.mustRun("goto", "3", "--all"); !strings.Contains(got, "#3 Login") {
		t.Errorf("goto --all = %q", got)
	}

	for _, bad := range []string{"123", "x1"} {
		if _, err := e.run("goto", bad); err == nil {
			t.Errorf("goto %q should fail", bad)
		}
	}
}

func TestExport(t *testing.T) {
	e := newEnv(t)
	e.seed()

	out := e.mustRun("export", "--format", "md", "--title", "Plan")
	for _, want := range []string{"# Plan\n", "- [ ] Work `#1`\n", "    - [ ] Login `#3`\n", "      email and password\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown export missing %q:\n%s", want, out)
		}
	}

	path := filepath.Join(e.dir, "out", "todos.json")
	if got := e.mustRun("export", "--out", path); got != "Exported to "+path+"\n" {
		t.Errorf("export to file = %q", got)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Errorf("exported JSON is invalid:\n%s", data)
	}

	if _, err := e.run("export", "--format", "pdf"); err == nil {
		t.Error("unknown format should fail")
	}
	if _, err := e.run("export", "--out", filepath.Join(e.dir, "todos")); err == nil {
		t.Error("output without extension should fail")
	}
}

func TestExportHooks(t *testing.T) {
	e := newEnv(t)
	e.seed()
	hooksFile := filepath.Join(e.dir, "hooks.yaml")
	path := filepath.Join(e.dir, "todos.md")

	writeHooks := func(content string) {
		t.Helper()
		if err := os.WriteFile(hooksFile, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	writeHooks("hooks:\n  pre-export:\n    - name: gate\n      command: exit 1\n")
	if _, err := e.run("export", "--out", path); err == nil {
		t.Fatal("failing pre-export hook should cancel the export")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("export written despite failing hook: %v", err)
	}

	out := e.mustRun("export", "--out", path, "--no-hooks")
	if strings.Contains(out, "hooks:") {
		t.Errorf("--no-hooks still ran hooks:\n%s", out)
	}

	marker := filepath.Join(e.dir, "count")
	writeHooks("hooks:\n  post-export:\n    - command: echo $TODODB_TODO_COUNT > \"" + marker + "\"\n")
	out = e.mustRun("export", "--out", path)
	if !strings.Contains(out, "hooks: 1 run") {
		t.Errorf("export output:\n%s", out)
	}
	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(string(data)) != "4" {
		t.Errorf("hook saw count %q", data)
	}
}

func TestDoctor(t *testing.T) {
	e := newEnv(t)
	e.seed()

	out := e.mustRun("doctor")
	for _, want := range []string{"Todos:     4 (2 top-level)\n", "sqlite:    ok\n", "parents:   ok\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor missing %q:\n%s", want, out)
		}
	}
}

func TestConfigCommands(t *testing.T) {
	e := newEnv(t)

	if got := e.mustRun("config", "show"); !strings.Contains(got, "hide_completed: true") {
		t.Errorf("config show:\n%s", got)
	}
	out := e.mustRun("config", "path")
	if !strings.Contains(out, "config:    "+e.configPath()+"\n") || !strings.Contains(out, "database:  "+e.dbPath()+"\n") {
		t.Errorf("config path:\n%s", out)
	}

	if got := e.mustRun("config", "init"); got != "Wrote "+e.configPath()+"\n" {
		t.Errorf("config init = %q", got)
	}
	if _, err := e.run("config", "init"); err == nil {
		t.Error("second config init should refuse to overwrite")
	}
	e.mustRun("config", "init", "--force")
}

func TestVersion(t *testing.T) {
	e := newEnv(t)
	if got := e.mustRun("version"); !strings.HasPrefix(got, "tododb v") {
		t.Errorf("version = %q", got)
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"7", 7, true},
		{"#12", 12, true},
		{" 3 ", 3, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, err := parseID(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("parseID(%q) = %d, %v", tt.in, got, err)
		}
	}
}

func TestParseParent(t *testing.T) {
	for _, in := range []string{"", "root", "ROOT"} {
		p, err := parseParent(in)
		if err != nil || p != nil {
			t.Errorf("parseParent(%q) = %v, %v", in, p, err)
		}
	}
	p, err := parseParent("#5")
	if err != nil || p == nil || *p != 5 {
		t.Errorf("parseParent(#5) = %v, %v", p, err)
	}
	if _, err := parseParent("x"); err == nil {
		t.Error("parseParent(x) should fail")
	}
}
