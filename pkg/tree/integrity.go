package tree

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/vanderheijden86/tododb/pkg/model"
)

// IntegrityReport describes problems in persisted parent links. Build
// tolerates all of them; doctor reports them.
type IntegrityReport struct {
	// Orphans declare a parent id that does not exist.
	Orphans []int64 `json:"orphans,omitempty"`
	// SelfParents name themselves as parent.
	SelfParents []int64 `json:"self_parents,omitempty"`
	// Cycles are groups of ids whose parent links loop, each sorted.
	Cycles [][]int64 `json:"cycles,omitempty"`
}

// OK reports whether no problems were found.
func (r IntegrityReport) OK() bool {
	return len(r.Orphans) == 0 && len(r.SelfParents) == 0 && len(r.Cycles) == 0
}

// CheckIntegrity inspects parent links independently of Build, using
// strongly connected components of the child→parent graph.
func CheckIntegrity(todos []model.Todo) IntegrityReport {
	var r IntegrityReport

	exists := make(map[int64]bool, len(todos))
	for _, td := range todos {
		exists[td.ID] = true
	}

	g := simple.NewDirectedGraph()
	for _, td := range todos {
		if g.Node(td.ID) == nil {
			g.AddNode(simple.Node(td.ID))
		}
	}
	for _, td := range todos {
		if td.IsRoot() {
			continue
		}
		pid := *td.ParentID
		switch {
		case pid == td.ID:
			r.SelfParents = append(r.SelfParents, td.ID)
		case !exists[pid]:
			r.Orphans = append(r.Orphans, td.ID)
		default:
			g.SetEdge(g.NewEdge(simple.Node(td.ID), simple.Node(pid)))
		}
	}

	for _, scc := range topo.TarjanSCC(g) {
		if len(scc) < 2 {
			continue
		}
		ids := make([]int64, len(scc))
		for i, n := range scc {
			ids[i] = n.ID()
		}
		slices.Sort(ids)
		r.Cycles = append(r.Cycles, ids)
	}
	slices.SortFunc(r.Cycles, func(a, b []int64) int { return cmp.Compare(a[0], b[0]) })
	slices.Sort(r.Orphans)
	slices.Sort(r.SelfParents)
	return r
}
