package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFile(t *testing.T) {
	cfg, warnings, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Empty() || len(warnings) != 0 {
		t.Errorf("expected empty config, got %+v %v", cfg, warnings)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
hooks:
  pre-export:
    - name: check
      command: echo checking
      timeout: 5s
    - command: "  "
  post-export:
    - command: echo done
      timeout: 2
      env:
        NOTE: hello
`
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, warnings, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "pre-export hook 2") {
		t.Errorf("warnings = %v", warnings)
	}

	pre := cfg.Get(PreExport)
	if len(pre) != 1 {
		t.Fatalf("pre-export hooks = %d, want 1", len(pre))
	}
	if pre[0].Timeout != 5*time.Second || pre[0].OnError != Fail {
		t.Errorf("pre hook = %+v", pre[0])
	}

	post := cfg.Get(PostExport)
	if len(post) != 1 {
		t.Fatalf("post-export hooks = %d, want 1", len(post))
	}
	if post[0].Name != "post-export-1" || post[0].OnError != Continue || post[0].Timeout != 2*time.Second {
		t.Errorf("post hook = %+v", post[0])
	}
	if post[0].Env["NOTE"] != "hello" {
		t.Errorf("post hook env = %v", post[0].Env)
	}
}

func TestParseRejectsBadTimeout(t *testing.T) {
	_, _, err := Parse([]byte("hooks:\n  pre-export:\n    - command: x\n      timeout: soon\n"), "hooks.yaml")
	if err == nil {
		t.Error("expected an error for an unparseable timeout")
	}
}

func hook(name, command string, onError string) Hook {
	return Hook{Name: name, Command: command, Timeout: 5 * time.Second, OnError: onError}
}

func TestExecutorCapturesOutputAndEnv(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PreExport: []Hook{
		hook("env", "echo $TODODB_EXPORT_PATH $TODODB_EXPORT_FORMAT $TODODB_TODO_COUNT", Fail),
	}}}
	ec := ExportContext{Path: "/tmp/todos.md", Format: "md", Count: 7, Timestamp: time.Now()}

	ex := NewExecutor(cfg, ec)
	if err := ex.Run(context.Background(), PreExport); err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := ex.Results()
	if len(res) != 1 || !res[0].Success {
		t.Fatalf("results = %+v", res)
	}
	if res[0].Stdout != "/tmp/todos.md md 7" {
		t.Errorf("stdout = %q", res[0].Stdout)
	}
}

func TestExecutorExpandsHookEnv(t *testing.T) {
	t.Setenv("TODODB_HOOK_TEST", "expanded")
	h := hook("expand", "echo $NOTE", Fail)
	h.Env = map[string]string{"NOTE": "${TODODB_HOOK_TEST}"}

	ex := NewExecutor(&Config{Hooks: ByPhase{PreExport: []Hook{h}}}, ExportContext{})
	if err := ex.Run(context.Background(), PreExport); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := ex.Results()[0].Stdout; got != "expanded" {
		t.Errorf("stdout = %q", got)
	}
}

func TestExecutorFailStops(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PreExport: []Hook{
		hook("broken", "echo nope >&2; exit 3", Fail),
		hook("never", "echo unreachable", Fail),
	}}}
	ex := NewExecutor(cfg, ExportContext{})
	err := ex.Run(context.Background(), PreExport)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), `"broken"`) || !strings.Contains(err.Error(), "nope") {
		t.Errorf("error = %v", err)
	}
	if n := len(ex.Results()); n != 1 {
		t.Errorf("ran %d hooks, want 1", n)
	}
}

func TestExecutorContinue(t *testing.T) {
	cfg := &Config{Hooks: ByPhase{PostExport: []Hook{
		hook("flaky", "exit 1", Continue),
		hook("after", "echo still-running", Continue),
	}}}
	ex := NewExecutor(cfg, ExportContext{})
	if err := ex.Run(context.Background(), PostExport); err != nil {
		t.Fatalf("Run: %v", err)
	}
	res := ex.Results()
	if len(res) != 2 || res[0].Success || !res[1].Success {
		t.Fatalf("results = %+v", res)
	}
	if res[1].Stdout != "still-running" {
		t.Errorf("stdout = %q", res[1].Stdout)
	}
	if s := ex.Summary(); !strings.Contains(s, "2 run, 1 failed: flaky") {
		t.Errorf("Summary = %q", s)
	}
}

func TestExecutorTimeout(t *testing.T) {
	h := hook("slow", "sleep 10", Fail)
	h.Timeout = 100 * time.Millisecond

	ex := NewExecutor(&Config{Hooks: ByPhase{PreExport: []Hook{h}}}, ExportContext{})
	start := time.Now()
	if err := ex.Run(context.Background(), PreExport); err == nil {
		t.Fatal("expected a timeout")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("timeout took %s", elapsed)
	}
	r := ex.Results()[0]
	if r.Success || !strings.Contains(r.Err.Error(), "timed out") {
		t.Errorf("result = %+v", r)
	}
}

func TestSummaryEmpty(t *testing.T) {
	if s := NewExecutor(&Config{}, ExportContext{}).Summary(); s != "" {
		t.Errorf("Summary = %q", s)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abcdefghijklmnopqrstuvwxyz", 8); got != "abcde..." {
		t.Errorf("truncate = %q", got)
	}
}
