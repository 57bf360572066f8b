package tree

import (
	"context"
	"errors"
	"maps"
	"slices"
	"testing"

	"pgregory.net/rapid"

	"github.com/vanderheijden86/tododb/pkg/model"
)

// genAcyclic draws a forest where every parent has a smaller id, plus the
// occasional dangling parent.
func genAcyclic(t *rapid.T) []model.Todo {
	n := rapid.IntRange(0, 40).Draw(t, "n")
	todos := make([]model.Todo, 0, n)
	for i := 1; i <= n; i++ {
		id := int64(i)
		var parent int64
		switch rapid.IntRange(0, 9).Draw(t, "kind") {
		case 0, 1:
			// root
		case 2:
			parent = int64(n + 100)
		default:
			if i > 1 {
				parent = int64(rapid.IntRange(1, i-1).Draw(t, "parent"))
			}
		}
		todos = append(todos, td(id, parent, "t"))
	}
	return todos
}

// genArbitrary draws parents with no constraints at all, cycles included.
func genArbitrary(t *rapid.T) []model.Todo {
	n := rapid.IntRange(0, 30).Draw(t, "n")
	todos := make([]model.Todo, 0, n)
	for i := 1; i <= n; i++ {
		parent := int64(rapid.IntRange(0, n+3).Draw(t, "parent"))
		todos = append(todos, td(int64(i), parent, "t"))
	}
	return todos
}

func TestPropertyFlattenVisitsEveryIDOnce(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var todos []model.Todo
		if rapid.Bool().Draw(t, "arbitrary") {
			todos = genArbitrary(t)
		} else {
			todos = genAcyclic(t)
		}
		got := VisibleIDs(Build(todos), NewExpansionState(), nil)
		if len(got) != len(todos) {
			t.Fatalf("visited %d ids, want %d", len(got), len(todos))
		}
		seen := make(map[int64]bool, len(got))
		for _, id := range got {
			if seen[id] {
				t.Fatalf("id %d visited twice", id)
			}
			seen[id] = true
		}
	})
}

func TestPropertyMoveToCandidateKeepsAcyclic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		todos := genAcyclic(t)
		if len(todos) == 0 {
			return
		}
		store := &memStore{todos: todos}
		f := Build(store.todos)
		src := int64(rapid.IntRange(1, len(todos)).Draw(t, "src"))

		cands, err := CandidateDestinations(f, src)
		if err != nil {
			t.Fatal(err)
		}
		var dest *int64
		if len(cands) > 0 && rapid.IntRange(0, 4).Draw(t, "toRoot") > 0 {
			c := rapid.SampledFrom(cands).Draw(t, "dest")
			dest = model.Ptr(c.ID)
		}
		if _, err := Move(context.Background(), store, f, src, dest); err != nil {
			t.Fatalf("move to candidate failed: %v", err)
		}
		if hasParentCycle(store.todos) {
			t.Fatalf("cycle after moving %d", src)
		}
		if r := CheckIntegrity(store.todos); len(r.Cycles) != 0 || len(r.SelfParents) != 0 {
			t.Fatalf("integrity check failed after move: %+v", r)
		}
	})
}

func TestPropertyMoveIntoSubtreeRejected(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		todos := genAcyclic(t)
		if len(todos) == 0 {
			return
		}
		store := &memStore{todos: todos}
		f := Build(store.todos)
		src := int64(rapid.IntRange(1, len(todos)).Draw(t, "src"))
		inside := append([]int64{src}, f.Descendants(src)...)
		dest := rapid.SampledFrom(inside).Draw(t, "dest")

		before := maps.Clone(store.parents())
		_, err := Move(context.Background(), store, f, src, model.Ptr(dest))
		var ce *CycleError
		if !errors.As(err, &ce) {
			t.Fatalf("expected CycleError moving %d under %d, got %v", src, dest, err)
		}
		if !maps.Equal(before, store.parents()) {
			t.Fatal("parent pointers changed")
		}
	})
}

func TestPropertyCollapseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		todos := genAcyclic(t)
		if len(todos) == 0 {
			return
		}
		f := Build(todos)
		exp := NewExpansionState()
		for _, td := range todos {
			if rapid.IntRange(0, 4).Draw(t, "collapse") == 0 {
				exp.Set(td.ID, false)
			}
		}

		visible := Lines(f, exp, nil)
		pick := rapid.IntRange(0, len(visible)-1).Draw(t, "pick")
		x := visible[pick].ID
		exp.Set(x, true)

		full := Lines(f, exp, nil)
		i := slices.IndexFunc(full, func(l Line) bool { return l.ID == x })
		j := i + 1
		for j < len(full) && full[j].Depth > full[i].Depth {
			j++
		}
		want := append(IDs(slices.Values(full[:i+1])), IDs(slices.Values(full[j:]))...)

		exp.Set(x, false)
		if got := VisibleIDs(f, exp, nil); !slices.Equal(got, want) {
			t.Fatalf("collapse %d: got %v, want %v", x, got, want)
		}
		exp.Set(x, true)
		if got := IDs(slices.Values(full)); !slices.Equal(VisibleIDs(f, exp, nil), got) {
			t.Fatalf("re-expand %d did not restore %v", x, got)
		}
	})
}

func TestPropertyGotoExactModulo(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOfNDistinct(rapid.Int64Range(1, 1000), 0, 60, rapid.ID[int64]).Draw(t, "ids")
		digits := rapid.StringMatching(`[0-9]{1,2}`).Draw(t, "digits")
		want := int64(0)
		for _, r := range digits {
			want = want*10 + int64(r-'0')
		}

		g := Goto(digits, ids)
		var expect []int64
		for _, id := range ids {
			if id%100 == want {
				expect = append(expect, id)
			}
		}
		if !slices.Equal(g.Matches(), expect) {
			t.Fatalf("Goto(%q) = %v, want %v", digits, g.Matches(), expect)
		}
	})
}
