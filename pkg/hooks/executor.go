package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/tododb/pkg/debug"
)

// ExportContext describes the export a hook runs around. Hooks see it as
// TODODB_* environment variables.
type ExportContext struct {
	Path      string
	Format    string
	Count     int
	Timestamp time.Time
}

// Env renders the context as environment assignments.
func (c ExportContext) Env() []string {
	return []string{
		"TODODB_EXPORT_PATH=" + c.Path,
		"TODODB_EXPORT_FORMAT=" + c.Format,
		fmt.Sprintf("TODODB_TODO_COUNT=%d", c.Count),
		"TODODB_TIMESTAMP=" + c.Timestamp.Format(time.RFC3339),
	}
}

// Result records one hook run.
type Result struct {
	Hook     Hook
	Phase    Phase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Err      error
}

// Executor runs the hooks of a Config for one export.
type Executor struct {
	cfg     *Config
	ctx     ExportContext
	results []Result
}

func NewExecutor(cfg *Config, ctx ExportContext) *Executor {
	return &Executor{cfg: cfg, ctx: ctx}
}

// Run executes the hooks of phase in order. It stops at the first failing
// hook whose on_error is "fail" and returns that failure.
func (e *Executor) Run(ctx context.Context, phase Phase) error {
	for _, h := range e.cfg.Get(phase) {
		r := e.runOne(ctx, phase, h)
		e.results = append(e.results, r)
		if !r.Success && h.OnError == Fail {
			return fmt.Errorf("%s hook %q: %w", phase, h.Name, r.Err)
		}
	}
	return nil
}

func (e *Executor) runOne(ctx context.Context, phase Phase, h Hook) Result {
	ctx, cancel := context.WithTimeout(ctx, h.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", h.Command)
	cmd.WaitDelay = 500 * time.Millisecond
	cmd.Env = append(os.Environ(), e.ctx.Env()...)
	for k, v := range h.Env {
		cmd.Env = append(cmd.Env, k+"="+os.ExpandEnv(v))
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	r := Result{
		Hook:     h,
		Phase:    phase,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.Err = fmt.Errorf("timed out after %s", h.Timeout)
	case err != nil && r.Stderr != "":
		r.Err = fmt.Errorf("%w: %s", err, truncate(r.Stderr, 200))
	default:
		r.Err = err
	}
	r.Success = r.Err == nil
	debug.Log("hooks: %s %q ok=%v in %s", phase, h.Name, r.Success, r.Duration)
	debug.LogIf(r.Stderr != "", "hooks: %q stderr: %s", h.Name, r.Stderr)
	return r
}

// Results returns every hook run so far.
func (e *Executor) Results() []Result {
	return e.results
}

// Summary is a one-line account of the runs, or "" when none ran.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	var failed []string
	for _, r := range e.results {
		if !r.Success {
			failed = append(failed, fmt.Sprintf("%s (%v)", r.Hook.Name, r.Err))
		}
	}
	s := fmt.Sprintf("hooks: %d run", len(e.results))
	if len(failed) > 0 {
		s += fmt.Sprintf(", %d failed: %s", len(failed), strings.Join(failed, "; "))
	}
	return s
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
