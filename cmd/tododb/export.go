package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vanderheijden86/tododb/internal/store"
	"github.com/vanderheijden86/tododb/pkg/export"
	"github.com/vanderheijden86/tododb/pkg/hooks"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		formatName string
		out        string
		title      string
		all        bool
		noHooks    bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the tree as markdown, JSON, SVG or PNG",
		Long: `Export the todo tree.

Without --format or --out an interactive wizard asks for both. With only
--out the format is taken from the file extension. Without --out the
export is written to stdout.

File exports run the pre-export and post-export hooks from hooks.yaml in
the config directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if formatName == "" && out == "" && isTerminal() {
				if err := runExportWizard(&formatName, &out); err != nil {
					return err
				}
			}

			var format export.Format
			if formatName != "" {
				f, err := export.ParseFormat(formatName)
				if err != nil {
					return err
				}
				format = f
			} else if out == "" {
				format = export.FormatMarkdown
			}

			opts := export.Options{
				Title:      title,
				Keep:       a.filter(all),
				DateFormat: a.cfg.DateFormat,
			}
			ctx := cmd.Context()
			return a.withStore(ctx, func(s *store.Store) error {
				f, err := loadForest(ctx, s)
				if err != nil {
					return err
				}
				if out == "" {
					return export.Write(cmd.OutOrStdout(), format, f, opts)
				}
				if noHooks {
					if err := export.Save(out, format, f, opts); err != nil {
						return err
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", out)
					return nil
				}
				return a.exportWithHooks(cmd, f, format, out, opts)
			})
		},
	}
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "md, json, svg or png")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&title, "title", "t", "", "document title")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include completed and hidden todos")
	cmd.Flags().BoolVar(&noHooks, "no-hooks", false, "skip hooks.yaml")
	return cmd
}

// exportWithHooks saves to out between the pre-export and post-export hooks.
func (a *app) exportWithHooks(cmd *cobra.Command, f *tree.Forest, format export.Format, out string, opts export.Options) error {
	ctx := cmd.Context()
	errOut := cmd.ErrOrStderr()

	cfg, warnings, err := hooks.Load(a.configDir())
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintln(errOut, "warning:", w)
	}

	if format == "" {
		if format, err = export.FormatFromPath(out); err != nil {
			return err
		}
	}
	count := 0
	for range tree.Flatten(f, tree.AllExpanded, opts.Keep) {
		count++
	}
	ex := hooks.NewExecutor(cfg, hooks.ExportContext{
		Path:      out,
		Format:    string(format),
		Count:     count,
		Timestamp: time.Now(),
	})

	if err := ex.Run(ctx, hooks.PreExport); err != nil {
		return fmt.Errorf("export cancelled: %w", err)
	}
	if err := export.Save(out, format, f, opts); err != nil {
		return err
	}
	fmt.Fprintf(errOut, "Exported to %s\n", out)

	err = ex.Run(ctx, hooks.PostExport)
	if !cfg.Empty() {
		fmt.Fprintln(errOut, ex.Summary())
	}
	return err
}
