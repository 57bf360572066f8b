package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/tododb/pkg/export"
	"github.com/vanderheijden86/tododb/pkg/model"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm creates a form with appropriate settings based on TTY detection
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(what + " is required")
		}
		return nil
	}
}

// runAddForm asks for title, parent and description. Parent 0 is root.
func runAddForm(n *model.NewTodo, f *tree.Forest) error {
	var parentID int64
	if n.ParentID != nil {
		parentID = *n.ParentID
	}

	options := []huh.Option[int64]{huh.NewOption("(root)", int64(0))}
	for l := range tree.Flatten(f, tree.AllExpanded, tree.HideCompleted) {
		td, _ := f.Todo(l.ID)
		label := fmt.Sprintf("%s#%d %s", strings.Repeat("  ", l.Depth), td.ID, td.Title)
		options = append(options, huh.NewOption(label, td.ID))
	}

	form := newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs doing?").
				Value(&n.Title).
				Validate(required("title")),
			huh.NewSelect[int64]().
				Title("Parent").
				Options(options...).
				Height(10).
				Value(&parentID),
			huh.NewText().
				Title("Description").
				Value(&n.Description),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	n.ParentID = nil
	if parentID != 0 {
		n.ParentID = model.Ptr(parentID)
	}
	return nil
}

func confirm(title, description string) (bool, error) {
	ok := false
	form := newForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Delete").
				Negative("Keep").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}

var formatLabels = map[export.Format]string{
	export.FormatMarkdown: "Markdown outline",
	export.FormatJSON:     "JSON tree",
	export.FormatSVG:      "SVG snapshot",
	export.FormatPNG:      "PNG snapshot",
}

// runExportWizard fills in format and output path.
func runExportWizard(format, out *string) error {
	options := make([]huh.Option[string], 0, len(export.Formats))
	for _, f := range export.Formats {
		options = append(options, huh.NewOption(formatLabels[f], string(f)))
	}
	if *format == "" {
		*format = string(export.FormatMarkdown)
	}

	if err := newForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Export format").
				Options(options...).
				Value(format),
		),
	).Run(); err != nil {
		return err
	}

	if *out == "" {
		*out = "todos." + *format
	}
	return newForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Output file").
				Value(out).
				Validate(required("output file")),
		),
	).Run()
}
