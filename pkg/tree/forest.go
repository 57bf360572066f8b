package tree

import (
	"slices"

	"github.com/vanderheijden86/tododb/pkg/debug"
	"github.com/vanderheijden86/tododb/pkg/metrics"
	"github.com/vanderheijden86/tododb/pkg/model"
)

// Node is one todo in a Forest. Children holds ids in ascending order.
type Node struct {
	Todo     model.Todo
	Children []int64
}

// ID returns the todo id.
func (n *Node) ID() int64 { return n.Todo.ID }

// HasChildren reports whether the node has any children.
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// Forest is the tree view of a todo list. Nodes owns every node; Roots and
// each Node.Children refer to nodes by id.
type Forest struct {
	Roots []int64
	Nodes map[int64]*Node

	// Orphans lists todos that declared a parent which could not be
	// resolved, or that sat on a parent cycle. They are placed as roots.
	Orphans []int64

	// parentOf maps a child id to its resolved parent id.
	parentOf map[int64]int64
}

// Build creates a Forest from todos. It never fails: unresolvable parents
// and parent cycles degrade to root placement and are logged.
func Build(todos []model.Todo) *Forest {
	defer metrics.Timer(metrics.TreeBuild)()

	f := &Forest{
		Nodes:    make(map[int64]*Node, len(todos)),
		parentOf: make(map[int64]int64, len(todos)),
	}
	if len(todos) == 0 {
		return f
	}

	// Step 1: index by id. Duplicate ids keep the first record.
	order := make([]int64, 0, len(todos))
	for _, td := range todos {
		if _, dup := f.Nodes[td.ID]; dup {
			debug.Log("tree: duplicate todo id %d ignored", td.ID)
			continue
		}
		f.Nodes[td.ID] = &Node{Todo: td}
		order = append(order, td.ID)
	}

	// Step 2: attach each node to its parent, or make it a root.
	for _, id := range order {
		td := f.Nodes[id].Todo
		pid := td.ParentID
		if pid == nil {
			f.Roots = append(f.Roots, td.ID)
			continue
		}
		parent, ok := f.Nodes[*pid]
		if !ok || *pid == td.ID {
			debug.Log("tree: todo %d has unresolvable parent %d, placing at root", td.ID, *pid)
			f.Orphans = append(f.Orphans, td.ID)
			f.Roots = append(f.Roots, td.ID)
			continue
		}
		parent.Children = append(parent.Children, td.ID)
		f.parentOf[td.ID] = *pid
	}

	// Step 3: nodes on or below a parent cycle are unreachable from any root.
	// Promote the lowest id on each loop until everything is reachable.
	f.breakCycles()

	// Step 4: deterministic ordering.
	slices.Sort(f.Roots)
	slices.Sort(f.Orphans)
	for _, n := range f.Nodes {
		slices.Sort(n.Children)
	}
	return f
}

func (f *Forest) breakCycles() {
	reached := make(map[int64]bool, len(f.Nodes))
	var mark func(id int64)
	mark = func(id int64) {
		if reached[id] {
			return
		}
		reached[id] = true
		for _, c := range f.Nodes[id].Children {
			mark(c)
		}
	}
	for _, r := range f.Roots {
		mark(r)
	}
	if len(reached) == len(f.Nodes) {
		return
	}

	stranded := make([]int64, 0, len(f.Nodes)-len(reached))
	for id := range f.Nodes {
		if !reached[id] {
			stranded = append(stranded, id)
		}
	}
	slices.Sort(stranded)
	for _, id := range stranded {
		if reached[id] {
			continue
		}
		loop := f.loopFrom(id)
		if len(loop) == 0 {
			continue
		}
		cut := slices.Min(loop)
		pid := f.parentOf[cut]
		debug.Log("tree: todo %d is on a parent cycle, detaching from %d", cut, pid)
		parent := f.Nodes[pid]
		parent.Children = slices.DeleteFunc(parent.Children, func(c int64) bool { return c == cut })
		delete(f.parentOf, cut)
		f.Orphans = append(f.Orphans, cut)
		f.Roots = append(f.Roots, cut)
		mark(cut)
	}
}

// loopFrom follows parents from id until one repeats and returns the ids
// on that loop. A chain that ends at a root yields nil.
func (f *Forest) loopFrom(id int64) []int64 {
	seen := make(map[int64]int)
	var path []int64
	for {
		if i, ok := seen[id]; ok {
			return path[i:]
		}
		seen[id] = len(path)
		path = append(path, id)
		pid, ok := f.parentOf[id]
		if !ok {
			return nil
		}
		id = pid
	}
}

// Len returns the number of nodes.
func (f *Forest) Len() int { return len(f.Nodes) }

// Node returns the node for id.
func (f *Forest) Node(id int64) (*Node, bool) {
	n, ok := f.Nodes[id]
	return n, ok
}

// Todo returns the todo for id.
func (f *Forest) Todo(id int64) (model.Todo, bool) {
	n, ok := f.Nodes[id]
	if !ok {
		return model.Todo{}, false
	}
	return n.Todo, true
}

// Parent returns the resolved parent of id. Roots, including orphans, have none.
func (f *Forest) Parent(id int64) (int64, bool) {
	pid, ok := f.parentOf[id]
	return pid, ok
}

// Ancestors returns the parent chain of id, nearest first.
func (f *Forest) Ancestors(id int64) []int64 {
	var out []int64
	for {
		pid, ok := f.parentOf[id]
		if !ok {
			return out
		}
		out = append(out, pid)
		id = pid
	}
}

// Depth returns the number of ancestors of id.
func (f *Forest) Depth(id int64) int {
	return len(f.Ancestors(id))
}

// IsOrphan reports whether id was placed at root because its parent did not resolve.
func (f *Forest) IsOrphan(id int64) bool {
	_, found := slices.BinarySearch(f.Orphans, id)
	return found
}
