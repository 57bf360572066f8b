// Command tododb is a hierarchical todo manager for the terminal.
//
// Run without arguments it opens the full-screen tree view. The
// subcommands cover scripting: adding, moving, completing and searching
// todos, exporting the tree and checking database integrity.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tododb/internal/store"
	"github.com/vanderheijden86/tododb/pkg/config"
	"github.com/vanderheijden86/tododb/pkg/debug"
	"github.com/vanderheijden86/tododb/pkg/metrics"
	"github.com/vanderheijden86/tododb/pkg/ui"
	"github.com/vanderheijden86/tododb/pkg/version"
	"github.com/vanderheijden86/tododb/pkg/watcher"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newRootCmd().ExecuteContext(ctx)
	if os.Getenv("TODODB_TIMINGS") != "" {
		printTimings(os.Stderr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app carries the persistent flags and the resolved configuration.
type app struct {
	configPath string
	dbPath     string
	demo       bool

	cfg config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tododb",
		Short:         "A hierarchical todo manager for the terminal",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTUI(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default "+config.ConfigPath()+")")
	pf.StringVar(&a.dbPath, "db", "", "database file (overrides db_path)")
	pf.BoolVar(&a.demo, "demo", false, "use a freshly seeded demo database")

	root.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.moveCmd(),
		a.doneCmd(),
		a.undoneCmd(),
		a.hideCmd(),
		a.deleteCmd(),
		a.searchCmd(),
		a.gotoCmd(),
		a.exportCmd(),
		a.doctorCmd(),
		a.configCmd(),
		versionCmd(),
	)
	return root
}

func (a *app) loadConfig() error {
	load := config.Load
	if a.configPath != "" {
		load = func() (config.Config, error) { return config.LoadFrom(a.configPath) }
	}
	cfg, err := load()
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.DBPath = a.dbPath
	}
	a.cfg = cfg
	return nil
}

// databasePath is the file commands operate on.
func (a *app) databasePath() string {
	if a.demo {
		return config.DemoDBPath(a.cfg.DBPath)
	}
	return a.cfg.DBPath
}

// openStore opens the configured database. With --demo the demo file is
// recreated and seeded on every call.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	path := a.databasePath()
	if !a.demo {
		return store.Open(ctx, path)
	}

	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reset demo database: %w", err)
		}
	}
	s, err := store.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	debug.Section("demo")
	n, err := s.SeedDemo(ctx)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("seed demo database: %w", err)
	}
	debug.Log("demo: seeded %d todos into %s", n, path)
	return s, nil
}

// withStore opens the store for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(*store.Store) error) error {
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func (a *app) runTUI(ctx context.Context) error {
	s, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	// Anything written to the standard logger would tear the screen.
	if path := os.Getenv("TODODB_LOG"); path != "" {
		f, err := tea.LogToFile(path, "tododb")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
	} else {
		log.SetOutput(io.Discard)
	}
	debug.SetOutput(log.Writer())
	defer debug.LogEnterExit("tui")()

	opts := ui.Options{Config: a.cfg}
	if a.cfg.PersistExpansion && !a.demo {
		opts.ExpansionPath = config.ExpansionStatePath()
	}
	if a.cfg.Watch {
		w, err := watcher.NewWatcher(s.Path(),
			watcher.WithOnError(func(err error) {
				log.Printf("warning: watcher: %v", err)
			}),
		)
		if err != nil {
			log.Printf("warning: live reload disabled: %v", err)
		} else {
			opts.Watcher = w
		}
	}

	return ui.Run(ctx, s, opts)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "tododb %s\n", version.Version)
			return nil
		},
	}
}

func printTimings(w io.Writer) {
	stats := metrics.AllTimingStats()
	if len(stats) == 0 {
		return
	}
	fmt.Fprintln(w, "timings:")
	for _, s := range stats {
		fmt.Fprintf(w, "  %-13s n=%-6d total=%8.2fms avg=%6.3fms max=%6.3fms\n",
			s.Name, s.Count, s.TotalMs, s.AvgMs, s.MaxMs)
	}
}
