// Package config handles loading and saving tododb configuration.
//
// Files live in the XDG base directories:
//   - Config:  ~/.config/tododb/ (config.yaml, hooks.yaml)
//   - Data:    ~/.local/share/tododb/ (todos.db, demo_todos.db)
//   - State:   ~/.local/state/tododb/ (tree-state.json)
//
// Every key can also be set from the environment with a TODODB_ prefix,
// e.g. TODODB_DB_PATH or TODODB_SEARCH_CASE_SENSITIVE.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const appName = "tododb"

// SearchConfig controls the search engine.
type SearchConfig struct {
	CaseSensitive bool `yaml:"case_sensitive" mapstructure:"case_sensitive"`
}

// Config is the top-level configuration.
type Config struct {
	DBPath           string       `yaml:"db_path,omitempty" mapstructure:"db_path"`
	Editor           string       `yaml:"editor,omitempty" mapstructure:"editor"`
	DefaultView      string       `yaml:"default_view" mapstructure:"default_view"` // tree, list
	HideCompleted    bool         `yaml:"hide_completed" mapstructure:"hide_completed"`
	ShowHidden       bool         `yaml:"show_hidden" mapstructure:"show_hidden"`
	PersistExpansion bool         `yaml:"persist_expansion" mapstructure:"persist_expansion"`
	DateFormat       string       `yaml:"date_format" mapstructure:"date_format"` // strftime
	Watch            bool         `yaml:"watch" mapstructure:"watch"`
	Search           SearchConfig `yaml:"search" mapstructure:"search"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DBPath:           DefaultDBPath(),
		DefaultView:      "tree",
		HideCompleted:    true,
		PersistExpansion: true,
		DateFormat:       "%Y-%m-%d %H:%M",
		Watch:            true,
	}
}

// Validate rejects values the UI cannot act on.
func (c Config) Validate() error {
	switch c.DefaultView {
	case "tree", "list":
	default:
		return fmt.Errorf("default_view must be tree or list, got %q", c.DefaultView)
	}
	if c.DBPath == "" {
		return errors.New("db_path is empty")
	}
	return nil
}

// ConfigDir returns the XDG config directory for tododb.
func ConfigDir() string {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the XDG data directory for tododb.
func DataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// StateDir returns the XDG state directory for tododb.
func StateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, fallback, appName)
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// DefaultDBPath is todos.db in the data directory.
func DefaultDBPath() string {
	dir := DataDir()
	if dir == "" {
		return "todos.db"
	}
	return filepath.Join(dir, "todos.db")
}

// DemoDBPath returns the demo database that lives next to dbPath.
func DemoDBPath(dbPath string) string {
	return filepath.Join(filepath.Dir(dbPath), "demo_todos.db")
}

// ExpansionStatePath returns where the tree expansion checkpoint is kept.
func ExpansionStatePath() string {
	dir := StateDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "tree-state.json")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig (plus environment overrides) if the file doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from a specific path. A missing file is not an
// error. Environment variables override file values.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)
	v.SetEnvPrefix("TODODB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return cfg, fmt.Errorf("parsing config: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DBPath = expandHome(cfg.DBPath)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("db_path", cfg.DBPath)
	v.SetDefault("editor", cfg.Editor)
	v.SetDefault("default_view", cfg.DefaultView)
	v.SetDefault("hide_completed", cfg.HideCompleted)
	v.SetDefault("show_hidden", cfg.ShowHidden)
	v.SetDefault("persist_expansion", cfg.PersistExpansion)
	v.SetDefault("date_format", cfg.DateFormat)
	v.SetDefault("watch", cfg.Watch)
	v.SetDefault("search.case_sensitive", cfg.Search.CaseSensitive)
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
