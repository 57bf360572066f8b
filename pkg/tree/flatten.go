package tree

import (
	"iter"
	"slices"

	"github.com/vanderheijden86/tododb/pkg/metrics"
	"github.com/vanderheijden86/tododb/pkg/model"
)

// Filter decides whether a todo is shown. A node that fails the filter is
// skipped together with its whole subtree. A nil Filter keeps everything.
type Filter func(model.Todo) bool

// HideCompleted drops completed todos.
func HideCompleted(t model.Todo) bool { return !t.IsCompleted() }

// HideHidden drops todos flagged hidden.
func HideHidden(t model.Todo) bool { return !t.Hidden }


// AllOf combines filters; nil entries are ignored.
func AllOf(filters ...Filter) Filter {
	active := slices.DeleteFunc(slices.Clone(filters), func(f Filter) bool { return f == nil })
	if len(active) == 0 {
		return nil
	}
	return func(t model.Todo) bool {
		for _, f := range active {
			if !f(t) {
				return false
			}
		}
		return true
	}
}

// Line is one row of the flattened tree.
type Line struct {
	ID    int64
	Depth int

	// HasChildren counts only children that pass the filter.
	HasChildren bool
	Expanded    bool

	// Last is true when no visible sibling follows this line.
	Last bool

	// AncestorLast[i] is Last for the ancestor at depth i. Renderers use it
	// to decide between a guide and blank space.
	AncestorLast []bool
}

// Flatten walks f in pre-order from its roots. Children of a node are
// visited only if exp reports it expanded; keep is applied before a node is
// yielded or descended into. Each call produces a fresh sequence.
func Flatten(f *Forest, exp Expander, keep Filter) iter.Seq[Line] {
	if exp == nil {
		exp = AllExpanded
	}
	return func(yield func(Line) bool) {
		if f == nil {
			return
		}
		defer metrics.Timer(metrics.TreeFlatten)()
		walkLevel(f, f.Roots, 0, nil, exp, keep, yield)
	}
}

func walkLevel(f *Forest, ids []int64, depth int, ancestorLast []bool, exp Expander, keep Filter, yield func(Line) bool) bool {
	level := visibleChildren(f, ids, keep)
	for i, id := range level {
		n := f.Nodes[id]
		kids := visibleChildren(f, n.Children, keep)
		line := Line{
			ID:           id,
			Depth:        depth,
			HasChildren:  len(kids) > 0,
			Expanded:     exp.IsExpanded(id),
			Last:         i == len(level)-1,
			AncestorLast: ancestorLast,
		}
		if !yield(line) {
			return false
		}
		if line.HasChildren && line.Expanded {
			next := append(slices.Clone(ancestorLast), line.Last)
			if !walkLevel(f, kids, depth+1, next, exp, keep, yield) {
				return false
			}
		}
	}
	return true
}

func visibleChildren(f *Forest, ids []int64, keep Filter) []int64 {
	if keep == nil {
		return ids
	}
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if keep(f.Nodes[id].Todo) {
			out = append(out, id)
		}
	}
	return out
}

// Lines collects Flatten into a slice.
func Lines(f *Forest, exp Expander, keep Filter) []Line {
	return slices.Collect(Flatten(f, exp, keep))
}

// IDs returns just the ids of a flattened sequence, in order.
func IDs(seq iter.Seq[Line]) []int64 {
	var out []int64
	for l := range seq {
		out = append(out, l.ID)
	}
	return out
}

// VisibleIDs is IDs(Flatten(f, exp, keep)).
func VisibleIDs(f *Forest, exp Expander, keep Filter) []int64 {
	return IDs(Flatten(f, exp, keep))
}
