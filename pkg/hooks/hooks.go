// Package hooks runs user commands around an export. Hooks live in
// hooks.yaml next to config.yaml:
//
//	hooks:
//	  pre-export:
//	    - name: lint
//	      command: test -w "$(dirname "$TODODB_EXPORT_PATH")"
//	  post-export:
//	    - command: git -C ~/notes commit -am "todos" --quiet
//	      timeout: 10s
//
// A failing pre-export hook cancels the export. Post-export failures are
// reported but the export stands, unless on_error says otherwise.
package hooks

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Phase is when a hook runs.
type Phase string

const (
	PreExport  Phase = "pre-export"
	PostExport Phase = "post-export"
)

// OnError values.
const (
	Fail     = "fail"
	Continue = "continue"
)

// DefaultTimeout applies to hooks that set none.
const DefaultTimeout = 30 * time.Second

// FileName is the hooks file inside the config directory.
const FileName = "hooks.yaml"

// Hook is one configured command.
type Hook struct {
	Name    string            `yaml:"name"`
	Command string            `yaml:"command"`
	Timeout time.Duration     `yaml:"timeout,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
	OnError string            `yaml:"on_error,omitempty"`
}

// Config is the parsed hooks file.
type Config struct {
	Hooks ByPhase `yaml:"hooks"`
}

type ByPhase struct {
	PreExport  []Hook `yaml:"pre-export,omitempty"`
	PostExport []Hook `yaml:"post-export,omitempty"`
}

// Get returns the hooks for phase.
func (c *Config) Get(phase Phase) []Hook {
	if c == nil {
		return nil
	}
	switch phase {
	case PreExport:
		return c.Hooks.PreExport
	case PostExport:
		return c.Hooks.PostExport
	}
	return nil
}

// Empty reports whether no hook is configured.
func (c *Config) Empty() bool {
	return c == nil || len(c.Hooks.PreExport)+len(c.Hooks.PostExport) == 0
}

// Load reads dir/hooks.yaml. A missing file yields an empty Config. The
// returned warnings name hooks that were skipped.
func Load(dir string) (*Config, []string, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading hooks: %w", err)
	}
	return Parse(data, path)
}

// Parse decodes a hooks file and fills in defaults. name labels errors.
func Parse(data []byte, name string) (*Config, []string, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	var warnings []string
	cfg.Hooks.PreExport, warnings = normalize(cfg.Hooks.PreExport, PreExport, warnings)
	cfg.Hooks.PostExport, warnings = normalize(cfg.Hooks.PostExport, PostExport, warnings)
	return &cfg, warnings, nil
}

func normalize(hooks []Hook, phase Phase, warnings []string) ([]Hook, []string) {
	var out []Hook
	for i, h := range hooks {
		if strings.TrimSpace(h.Command) == "" {
			warnings = append(warnings, fmt.Sprintf("%s hook %d has no command; skipping", phase, i+1))
			continue
		}
		if h.Timeout <= 0 {
			h.Timeout = DefaultTimeout
		}
		switch h.OnError {
		case Fail, Continue:
		case "":
			h.OnError = Continue
			if phase == PreExport {
				h.OnError = Fail
			}
		default:
			warnings = append(warnings, fmt.Sprintf("%s hook %d: unknown on_error %q, using %q", phase, i+1, h.OnError, Fail))
			h.OnError = Fail
		}
		if h.Name == "" {
			h.Name = fmt.Sprintf("%s-%d", phase, i+1)
		}
		out = append(out, h)
	}
	return out, warnings
}

// UnmarshalYAML accepts timeouts as durations ("5s") or bare seconds.
func (h *Hook) UnmarshalYAML(node *yaml.Node) error {
	type raw struct {
		Name    string            `yaml:"name"`
		Command string            `yaml:"command"`
		Timeout string            `yaml:"timeout,omitempty"`
		Env     map[string]string `yaml:"env,omitempty"`
		OnError string            `yaml:"on_error,omitempty"`
	}
	var r raw
	if err := node.Decode(&r); err != nil {
		return err
	}
	*h = Hook{Name: r.Name, Command: r.Command, Env: r.Env, OnError: r.OnError}

	if r.Timeout == "" {
		return nil
	}
	if d, err := time.ParseDuration(r.Timeout); err == nil {
		h.Timeout = d
		return nil
	}
	secs, err := strconv.ParseFloat(r.Timeout, 64)
	if err != nil {
		return fmt.Errorf("invalid timeout %q", r.Timeout)
	}
	h.Timeout = time.Duration(secs * float64(time.Second))
	return nil
}
