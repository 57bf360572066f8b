package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/vanderheijden86/tododb/pkg/tree"
)

// Markdown writes the forest as a nested checklist. Descriptions follow their
// item as indented paragraphs.
func Markdown(w io.Writer, f *tree.Forest, opts Options) error {
	bw := bufio.NewWriter(w)

	total, done := 0, 0
	var body strings.Builder
	for line := range tree.Flatten(f, tree.AllExpanded, opts.Keep) {
		td, _ := f.Todo(line.ID)
		total++
		box := " "
		if td.IsCompleted() {
			box = "x"
			done++
		}
		indent := strings.Repeat("  ", line.Depth)
		title := td.Title
		if td.Hidden {
			title += " _(hidden)_"
		}
		fmt.Fprintf(&body, "%s- [%s] %s `#%d`\n", indent, box, title, td.ID)
		if desc := strings.TrimSpace(td.Description); desc != "" {
			for _, l := range strings.Split(desc, "\n") {
				fmt.Fprintf(&body, "%s  %s\n", indent, strings.TrimRight(l, " \t"))
			}
		}
	}

	fmt.Fprintf(bw, "# %s\n\n", opts.title())
	fmt.Fprintf(bw, "*Exported: %s*  \n", opts.date(opts.now()))
	fmt.Fprintf(bw, "*%d todos, %d completed*\n\n", total, done)
	if total == 0 {
		bw.WriteString("_Nothing to show._\n")
	} else {
		bw.WriteString(body.String())
	}
	return bw.Flush()
}
