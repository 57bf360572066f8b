package export

import (
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/vanderheijden86/tododb/pkg/model"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

// Node is one todo with its exported children.
type Node struct {
	model.Todo
	Children []Node `json:"children,omitempty"`
}

// Document is the top-level JSON export.
type Document struct {
	Title      string    `json:"title"`
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	Roots      []Node    `json:"roots"`
}

// BuildDocument nests the filtered forest. A filtered-out todo takes its
// subtree with it.
func BuildDocument(f *tree.Forest, opts Options) Document {
	doc := Document{Title: opts.title(), ExportedAt: opts.now().UTC(), Roots: []Node{}}
	var build func(ids []int64) []Node
	build = func(ids []int64) []Node {
		var out []Node
		for _, id := range ids {
			n, ok := f.Node(id)
			if !ok || (opts.Keep != nil && !opts.Keep(n.Todo)) {
				continue
			}
			doc.Count++
			out = append(out, Node{Todo: n.Todo, Children: build(n.Children)})
		}
		return out
	}
	if roots := build(f.Roots); roots != nil {
		doc.Roots = roots
	}
	return doc
}

// JSON writes BuildDocument as indented JSON.
func JSON(w io.Writer, f *tree.Forest, opts Options) error {
	data, err := json.MarshalIndent(BuildDocument(f, opts), "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
