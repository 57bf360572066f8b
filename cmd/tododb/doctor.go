package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vanderheijden86/tododb/internal/store"
	"github.com/vanderheijden86/tododb/pkg/debug"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

func (a *app) doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the database and the parent links for problems",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(s *store.Store) error {
				todos, err := s.LoadAll(ctx)
				if err != nil {
					return err
				}

				var (
					sqliteMsgs []string
					report     tree.IntegrityReport
					forest     *tree.Forest
				)
				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					msgs, err := s.IntegrityCheck(gctx)
					sqliteMsgs = msgs
					return err
				})
				g.Go(func() error {
					report = tree.CheckIntegrity(todos)
					return nil
				})
				g.Go(func() error {
					forest = tree.Build(todos)
					return nil
				})
				if err := g.Wait(); err != nil {
					return err
				}
				debug.Dump("doctor: parents", report)
				if err := s.Checkpoint(ctx); err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Database:  %s\n", s.Path())
				fmt.Fprintf(out, "Todos:     %d (%d top-level)\n", len(todos), len(forest.Roots))

				problems := 0
				if len(sqliteMsgs) == 1 && sqliteMsgs[0] == "ok" {
					fmt.Fprintln(out, "sqlite:    ok")
				} else {
					problems += len(sqliteMsgs)
					fmt.Fprintln(out, "sqlite:")
					for _, msg := range sqliteMsgs {
						fmt.Fprintf(out, "  %s\n", msg)
					}
				}

				if report.OK() {
					fmt.Fprintln(out, "parents:   ok")
				} else {
					fmt.Fprintln(out, "parents:")
					if len(report.Orphans) > 0 {
						fmt.Fprintf(out, "  missing parent: %s\n", idList(report.Orphans))
					}
					if len(report.SelfParents) > 0 {
						fmt.Fprintf(out, "  own parent:     %s\n", idList(report.SelfParents))
					}
					for _, c := range report.Cycles {
						fmt.Fprintf(out, "  cycle:          %s\n", idList(c))
					}
					problems += len(report.Orphans) + len(report.SelfParents) + len(report.Cycles)
				}
				if len(forest.Orphans) > 0 {
					fmt.Fprintf(out, "Shown at top level: %s\n", idList(forest.Orphans))
				}

				if problems > 0 {
					return fmt.Errorf("found %d problems", problems)
				}
				return nil
			})
		},
	}
}

func idList(ids []int64) string {
	sorted := slices.Sorted(slices.Values(ids))
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = fmt.Sprintf("#%d", id)
	}
	return strings.Join(parts, ", ")
}
