package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tododb/internal/store"
	"github.com/vanderheijden86/tododb/pkg/export"
	"github.com/vanderheijden86/tododb/pkg/model"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

// parseID parses a todo id argument, accepting an optional leading '#'.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", s)
	}
	return id, nil
}

// parseParent parses a destination: "root" (or empty) is nil.
func parseParent(s string) (*int64, error) {
	if s == "" || strings.EqualFold(s, "root") {
		return nil, nil
	}
	id, err := parseID(s)
	if err != nil {
		return nil, err
	}
	return model.Ptr(id), nil
}

func loadForest(ctx context.Context, s *store.Store) (*tree.Forest, error) {
	todos, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Build(todos), nil
}

// filter is the configured visibility filter; all disables it.
func (a *app) filter(all bool) tree.Filter {
	if all {
		return nil
	}
	var fs []tree.Filter
	if a.cfg.HideCompleted {
		fs = append(fs, tree.HideCompleted)
	}
	if !a.cfg.ShowHidden {
		fs = append(fs, tree.HideHidden)
	}
	return tree.AllOf(fs...)
}

func (a *app) addCmd() *cobra.Command {
	var parent, description string
	cmd := &cobra.Command{
		Use:   "add [title...]",
		Short: "Create a todo (opens a form when no title is given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withStore(ctx, func(s *store.Store) error {
				n := model.NewTodo{
					Title:       strings.Join(args, " "),
					Description: description,
				}
				p, err := parseParent(parent)
				if err != nil {
					return err
				}
				n.ParentID = p

				if strings.TrimSpace(n.Title) == "" {
					if !isTerminal() {
						return errors.New("a title is required when not running interactively")
					}
					f, err := loadForest(ctx, s)
					if err != nil {
						return err
					}
					if err := runAddForm(&n, f); err != nil {
						return err
					}
				}

				id, err := s.Create(ctx, n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created #%d\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&parent, "parent", "p", "", `parent todo id, or "root"`)
	cmd.Flags().StringVarP(&description, "description", "d", "", "description text")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var all, asJSON, completed bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the todo tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			return a.withStore(ctx, func(s *store.Store) error {
				if completed {
					return a.listCompleted(ctx, cmd, s, all, asJSON)
				}

				f, err := loadForest(ctx, s)
				if err != nil {
					return err
				}
				keep := a.filter(all)
				if asJSON {
					return export.JSON(out, f, export.Options{Keep: keep, DateFormat: a.cfg.DateFormat})
				}

				lw := newLineWriter(out)
				n := 0
				for l := range tree.Flatten(f, tree.AllExpanded, keep) {
					td, _ := f.Todo(l.ID)
					lw.todo(l.Prefix(lw.glyphs), td, "")
					n++
				}
				if n == 0 {
					fmt.Fprintln(out, "No todos.")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed and hidden todos")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVarP(&completed, "completed", "c", false, "list completed todos, newest first")
	return cmd
}

func (a *app) listCompleted(ctx context.Context, cmd *cobra.Command, s *store.Store, all, asJSON bool) error {
	todos, err := s.LoadCompleted(ctx, 0)
	if err != nil {
		return err
	}
	if !all && !a.cfg.ShowHidden {
		todos = filterTodos(todos, tree.HideHidden)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if todos == nil {
			todos = []model.Todo{}
		}
		return enc.Encode(todos)
	}
	if len(todos) == 0 {
		fmt.Fprintln(out, "Nothing completed yet.")
		return nil
	}
	lw := newLineWriter(out)
	for _, td := range todos {
		lw.todo("", td, "done "+export.FormatDate(a.cfg.DateFormat, td.CompletedAt.Local()))
	}
	return nil
}

func filterTodos(todos []model.Todo, keep tree.Filter) []model.Todo {
	out := todos[:0]
	for _, td := range todos {
		if keep(td) {
			out = append(out, td)
		}
	}
	return out
}

func (a *app) moveCmd() *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "move ID --to ID|root",
		Short: "Move a todo under another todo, or to the top level",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			dest, err := parseParent(to)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(s *store.Store) error {
				f, err := loadForest(ctx, s)
				if err != nil {
					return err
				}
				moved, err := tree.Move(ctx, s, f, id, dest)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				switch {
				case !moved:
					fmt.Fprintf(out, "#%d is already there\n", id)
				case dest == nil:
					fmt.Fprintf(out, "Moved #%d to root\n", id)
				default:
					fmt.Fprintf(out, "Moved #%d under #%d\n", id, *dest)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", "", `new parent id, or "root"`)
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func (a *app) doneCmd() *cobra.Command {
	return a.completionCmd("done", "Mark todos completed", true)
}

func (a *app) undoneCmd() *cobra.Command {
	return a.completionCmd("undone", "Reopen completed todos", false)
}

func (a *app) completionCmd(use, short string, done bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(s *store.Store) error {
				for _, id := range ids {
					if err := s.SetCompleted(ctx, id, done); err != nil {
						return err
					}
					if done {
						fmt.Fprintf(cmd.OutOrStdout(), "Completed #%d\n", id)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "Reopened #%d\n", id)
					}
				}
				return nil
			})
		},
	}
}

func (a *app) hideCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hide ID...",
		Short: "Toggle whether todos are hidden",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(s *store.Store) error {
				for _, id := range ids {
					hidden, err := s.ToggleHidden(ctx, id)
					if err != nil {
						return err
					}
					if hidden {
						fmt.Fprintf(cmd.OutOrStdout(), "Hid #%d\n", id)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "Unhid #%d\n", id)
					}
				}
				return nil
			})
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *app) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a todo and everything under it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(s *store.Store) error {
				f, err := loadForest(ctx, s)
				if err != nil {
					return err
				}
				td, ok := f.Todo(id)
				if !ok {
					return fmt.Errorf("todo #%d: %w", id, store.ErrNotFound)
				}

				if !yes {
					if !isTerminal() {
						return errors.New("refusing to delete without --yes when not running interactively")
					}
					desc := "This cannot be undone."
					if n := len(f.Descendants(id)); n > 0 {
						desc = fmt.Sprintf("Its %d descendants go with it. This cannot be undone.", n)
					}
					ok, err := confirm(fmt.Sprintf("Delete #%d %q?", id, td.Title), desc)
					if err != nil {
						return err
					}
					if !ok {
						fmt.Fprintln(cmd.OutOrStdout(), "Delete cancelled")
						return nil
					}
				}

				n, err := s.Delete(ctx, id)
				if err != nil {
					return err
				}
				if n == 1 {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d and %d descendants\n", id, n-1)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	return cmd
}

func (a *app) searchCmd() *cobra.Command {
	var caseSensitive bool
	cmd := &cobra.Command{
		Use:   "search PATTERN",
		Short: "Search titles and descriptions of every todo (regular expression)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("case-sensitive") {
				caseSensitive = a.cfg.Search.CaseSensitive
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(s *store.Store) error {
				f, err := loadForest(ctx, s)
				if err != nil {
					return err
				}
				st, err := tree.Search(args[0], f.Entries(tree.SearchAll, nil), caseSensitive)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if st.Len() == 0 {
					fmt.Fprintf(out, "No matches for %q\n", args[0])
					return nil
				}
				lw := newLineWriter(out)
				for _, id := range st.Matches() {
					td, _ := f.Todo(id)
					lw.todo("", td, breadcrumb(f, id))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&caseSensitive, "case-sensitive", "s", false, "match case exactly")
	return cmd
}

// breadcrumb names the ancestors of id, root first.
func breadcrumb(f *tree.Forest, id int64) string {
	path := f.Ancestors(id)
	if len(path) == 0 {
		return ""
	}
	names := make([]string, 0, len(path))
	for i := len(path) - 1; i >= 0; i-- {
		td, _ := f.Todo(path[i])
		names = append(names, td.Title)
	}
	return "in " + strings.Join(names, " › ")
}

func (a *app) gotoCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "goto DIGITS",
		Short: "List visible todos whose id ends in DIGITS (one or two digits)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			digits := args[0]
			if len(digits) == 0 || len(digits) > tree.MaxGotoDigits || strings.Trim(digits, "0123456789") != "" {
				return fmt.Errorf("goto takes one or two digits, got %q", digits)
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(s *store.Store) error {
				f, err := loadForest(ctx, s)
				if err != nil {
					return err
				}
				g := tree.Goto(digits, tree.VisibleIDs(f, tree.AllExpanded, a.filter(all)))

				out := cmd.OutOrStdout()
				if g.Len() == 0 {
					fmt.Fprintf(out, "No visible todo matches #%s\n", digits)
					return nil
				}
				lw := newLineWriter(out)
				for _, id := range g.Matches() {
					td, _ := f.Todo(id)
					lw.todo("", td, breadcrumb(f, id))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed and hidden todos")
	return cmd
}
