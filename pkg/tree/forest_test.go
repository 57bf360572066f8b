package tree

import (
	"slices"
	"testing"

	"github.com/vanderheijden86/tododb/pkg/model"
)

func TestBuildEmpty(t *testing.T) {
	f := Build(nil)
	if f.Len() != 0 || len(f.Roots) != 0 {
		t.Errorf("expected empty forest, got %d nodes %d roots", f.Len(), len(f.Roots))
	}
	if got := VisibleIDs(f, nil, nil); len(got) != 0 {
		t.Errorf("expected no lines, got %v", got)
	}
}

func TestBuildStructure(t *testing.T) {
	f := Build(sample())

	if !slices.Equal(f.Roots, []int64{1, 7}) {
		t.Errorf("Roots = %v, want [1 7]", f.Roots)
	}
	if got := f.Nodes[3].Children; !slices.Equal(got, []int64{5, 6}) {
		t.Errorf("children of 3 = %v, want [5 6]", got)
	}
	if p, ok := f.Parent(4); !ok || p != 2 {
		t.Errorf("Parent(4) = %d,%v, want 2,true", p, ok)
	}
	if _, ok := f.Parent(1); ok {
		t.Error("root should have no parent")
	}
	if got := f.Ancestors(4); !slices.Equal(got, []int64{2, 1}) {
		t.Errorf("Ancestors(4) = %v", got)
	}
	if f.Depth(6) != 2 {
		t.Errorf("Depth(6) = %d, want 2", f.Depth(6))
	}
	if len(f.Orphans) != 0 {
		t.Errorf("unexpected orphans %v", f.Orphans)
	}
}

func TestBuildChildrenSortedByID(t *testing.T) {
	todos := []model.Todo{
		td(10, 0, "root"),
		td(30, 10, "c"),
		td(12, 10, "a"),
		td(20, 10, "b"),
		td(5, 0, "other root"),
	}
	f := Build(todos)
	if !slices.Equal(f.Nodes[10].Children, []int64{12, 20, 30}) {
		t.Errorf("children = %v", f.Nodes[10].Children)
	}
	if !slices.Equal(f.Roots, []int64{5, 10}) {
		t.Errorf("roots = %v", f.Roots)
	}
}

func TestBuildOrphanBecomesRoot(t *testing.T) {
	todos := []model.Todo{
		td(1, 0, "root"),
		td(2, 99, "orphan"),
		td(3, 2, "child of orphan"),
	}
	f := Build(todos)
	if !slices.Equal(f.Roots, []int64{1, 2}) {
		t.Errorf("Roots = %v, want [1 2]", f.Roots)
	}
	if !f.IsOrphan(2) || f.IsOrphan(3) {
		t.Errorf("Orphans = %v", f.Orphans)
	}
	if got := VisibleIDs(f, nil, nil); !slices.Equal(got, []int64{1, 2, 3}) {
		t.Errorf("flatten = %v", got)
	}
}

func TestBuildSelfParent(t *testing.T) {
	f := Build([]model.Todo{td(4, 4, "loop")})
	if !slices.Equal(f.Roots, []int64{4}) || !f.IsOrphan(4) {
		t.Errorf("roots=%v orphans=%v", f.Roots, f.Orphans)
	}
}

func TestBuildBreaksParentCycle(t *testing.T) {
	todos := []model.Todo{
		td(1, 3, "a"),
		td(2, 1, "b"),
		td(3, 2, "c"),
		td(4, 2, "hangs off the loop"),
		td(5, 0, "root"),
	}
	f := Build(todos)
	got := VisibleIDs(f, nil, nil)
	if len(got) != 5 {
		t.Fatalf("expected every node once, got %v", got)
	}
	if !slices.Equal(f.Roots, []int64{1, 5}) {
		t.Errorf("Roots = %v, want [1 5]", f.Roots)
	}
	if !f.IsOrphan(1) {
		t.Errorf("expected 1 to be detached, orphans=%v", f.Orphans)
	}
}

func TestBuildDetachesLowestIDOnLoop(t *testing.T) {
	// 3 hangs off the 5 <-> 6 loop; only the loop is broken.
	f := Build([]model.Todo{td(3, 5, "tail"), td(5, 6, "a"), td(6, 5, "b")})
	if !slices.Equal(f.Roots, []int64{5}) || !slices.Equal(f.Orphans, []int64{5}) {
		t.Fatalf("roots=%v orphans=%v, want [5] [5]", f.Roots, f.Orphans)
	}
	if pid, ok := f.Parent(3); !ok || pid != 5 {
		t.Errorf("Parent(3) = %d, %v, want 5", pid, ok)
	}
	if pid, ok := f.Parent(6); !ok || pid != 5 {
		t.Errorf("Parent(6) = %d, %v, want 5", pid, ok)
	}
	if got := f.Nodes[5].Children; !slices.Equal(got, []int64{3, 6}) {
		t.Errorf("Children(5) = %v, want [3 6]", got)
	}
}

func TestBuildDuplicateIDKeepsFirst(t *testing.T) {
	f := Build([]model.Todo{td(1, 0, "first"), td(1, 0, "second")})
	if f.Len() != 1 || f.Nodes[1].Todo.Title != "first" {
		t.Errorf("unexpected forest %+v", f.Nodes[1])
	}
	if len(f.Roots) != 1 {
		t.Errorf("Roots = %v", f.Roots)
	}
}
