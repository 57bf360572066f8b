package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/vanderheijden86/tododb/pkg/model"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

// lineWriter prints todos one per line. On a terminal it uses box-drawing
// guides and fits lines to the width; piped output is plain ASCII.
type lineWriter struct {
	w      io.Writer
	glyphs tree.Glyphs
	done   string
	width  int // 0 disables truncation
}

func newLineWriter(w io.Writer) lineWriter {
	lw := lineWriter{w: w, glyphs: tree.ASCIIGlyphs, done: "[x]"}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		lw.glyphs = tree.BoxGlyphs
		lw.done = "[✓]"
		if width, _, err := term.GetSize(int(f.Fd())); err == nil {
			lw.width = width
		}
	}
	return lw
}

func (lw lineWriter) todo(prefix string, td model.Todo, note string) {
	box := "[ ]"
	if td.IsCompleted() {
		box = lw.done
	}
	line := fmt.Sprintf("%s%s #%d %s", prefix, box, td.ID, td.Title)
	if td.Hidden {
		line += " (hidden)"
	}
	if note != "" {
		line += "  " + note
	}
	if lw.width > 0 {
		line = runewidth.Truncate(line, lw.width, "…")
	}
	fmt.Fprintln(lw.w, line)
}
