// Package export writes the todo tree to files: a markdown outline, a nested
// JSON document, or a static SVG/PNG snapshot.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"

	"github.com/vanderheijden86/tododb/pkg/tree"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatJSON     Format = "json"
	FormatSVG      Format = "svg"
	FormatPNG      Format = "png"
)

// Formats lists the supported formats in menu order.
var Formats = []Format{FormatMarkdown, FormatJSON, FormatSVG, FormatPNG}

// DefaultDateFormat is used when Options.DateFormat is empty.
const DefaultDateFormat = "%Y-%m-%d %H:%M"

// ParseFormat accepts a format name with or without a leading dot.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "md", "markdown":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want md, json, svg or png)", s)
	}
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("cannot infer format from %q: no extension", path)
	}
	return ParseFormat(ext)
}

// Options controls what gets exported and how it is labelled.
type Options struct {
	Title      string
	Keep       tree.Filter // nil exports every todo
	DateFormat string      // strftime
	Now        time.Time   // zero means time.Now()
}

func (o Options) title() string {
	if strings.TrimSpace(o.Title) == "" {
		return "Todos"
	}
	return o.Title
}

func (o Options) now() time.Time {
	if o.Now.IsZero() {
		return time.Now()
	}
	return o.Now
}

// FormatDate renders t with a strftime pattern, falling back to
// DefaultDateFormat when pattern is empty.
func FormatDate(pattern string, t time.Time) string {
	if pattern == "" {
		pattern = DefaultDateFormat
	}
	return strftime.Format(pattern, t)
}

func (o Options) date(t time.Time) string {
	return FormatDate(o.DateFormat, t)
}

// Write renders f in the given format to w.
func Write(w io.Writer, format Format, f *tree.Forest, opts Options) error {
	switch format {
	case FormatMarkdown:
		return Markdown(w, f, opts)
	case FormatJSON:
		return JSON(w, f, opts)
	case FormatSVG:
		return SVG(w, f, opts)
	case FormatPNG:
		return PNG(w, f, opts)
	default:
		return fmt.Errorf("unhandled format %q", format)
	}
}

// Save renders f to path, creating parent directories. An empty format is
// inferred from the extension.
func Save(path string, format Format, f *tree.Forest, opts Options) error {
	if path == "" {
		return fmt.Errorf("output path is required")
	}
	if format == "" {
		var err error
		if format, err = FormatFromPath(path); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := Write(&buf, format, f, opts); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
