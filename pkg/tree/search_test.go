package tree

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/vanderheijden86/tododb/pkg/model"
)

func fitnessTodos() []model.Todo {
	return []model.Todo{
		td(11, 0, "📱 React Native Fitness Tracker"),
		td(12, 11, "Setup React Native development environment"),
		td(13, 11, "Implement workout logging screen"),
	}
}

func TestSearchReactSingleMatchWraps(t *testing.T) {
	todos := fitnessTodos()[1:]
	f := Build(todos)

	st, err := Search("React", f.Entries(SearchAll, nil), false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !slices.Equal(st.Matches(), []int64{12}) {
		t.Fatalf("matches = %v, want [12]", st.Matches())
	}
	if id, ok := st.Current(); !ok || id != 12 {
		t.Errorf("Current = %d,%v", id, ok)
	}
	if id, ok := st.Next(); !ok || id != 12 {
		t.Errorf("Next = %d,%v, want 12", id, ok)
	}
	if id, ok := st.Previous(); !ok || id != 12 {
		t.Errorf("Previous = %d,%v, want 12", id, ok)
	}
}

func TestSearchCaseInsensitiveByDefault(t *testing.T) {
	f := Build(fitnessTodos())
	st, _ := Search("react", f.Entries(SearchAll, nil), false)
	if !slices.Equal(st.Matches(), []int64{11, 12}) {
		t.Errorf("insensitive matches = %v", st.Matches())
	}
	st, _ = Search("react", f.Entries(SearchAll, nil), true)
	if st.Len() != 0 {
		t.Errorf("sensitive matches = %v", st.Matches())
	}
}

func TestSearchDescription(t *testing.T) {
	todos := fitnessTodos()
	todos[2].Description = "Use a FlatList for the history"
	f := Build(todos)
	st, _ := Search("flatlist", f.Entries(SearchAll, nil), false)
	if !slices.Equal(st.Matches(), []int64{13}) {
		t.Errorf("matches = %v", st.Matches())
	}
}

func TestSearchRegex(t *testing.T) {
	f := Build(sample())
	st, err := Search("^(Back|Front)end$", f.Entries(SearchAll, nil), false)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(st.Matches(), []int64{5, 6}) {
		t.Errorf("matches = %v", st.Matches())
	}
}

func TestSearchCyclicNavigation(t *testing.T) {
	f := Build(sample())
	st, _ := Search("e", f.Entries(SearchAll, nil), false)
	// Project, Design, Wireframes, Backend, Frontend, Chores; not Build.
	want := []int64{1, 2, 4, 5, 6, 7}
	if !slices.Equal(st.Matches(), want) {
		t.Fatalf("matches = %v, want %v", st.Matches(), want)
	}
	if id, _ := st.Previous(); id != 7 {
		t.Errorf("Previous from first = %d, want 7", id)
	}
	if id, _ := st.Next(); id != 1 {
		t.Errorf("Next from last = %d, want 1", id)
	}
	if st.Index() != 0 || !st.Contains(4) || st.Contains(3) {
		t.Errorf("Index=%d Contains(4)=%v Contains(3)=%v", st.Index(), st.Contains(4), st.Contains(3))
	}
}

func TestSearchEmpty(t *testing.T) {
	f := Build(sample())
	st, err := Search("", f.Entries(SearchAll, nil), false)
	if err != nil || st.Len() != 0 {
		t.Errorf("empty pattern = %v, %v", st.Matches(), err)
	}
	st, _ = Search("zzz", f.Entries(SearchAll, nil), false)
	if _, ok := st.Next(); ok {
		t.Error("Next on empty match set should be a no-op")
	}
	if _, ok := st.Current(); ok || st.Index() != -1 {
		t.Error("Current on empty match set should be undefined")
	}
}

func TestSearchModes(t *testing.T) {
	now := time.Now()
	todos := sample()
	todos[2].CompletedAt = &now // 3 Build, hides 5 and 6 in the tree
	f := Build(todos)

	st, _ := Search("end", f.Entries(SearchVisible, HideCompleted), false)
	if st.Len() != 0 {
		t.Errorf("visible mode matched filtered nodes: %v", st.Matches())
	}
	st, _ = Search("end", f.Entries(SearchAll, HideCompleted), false)
	if !slices.Equal(st.Matches(), []int64{5, 6}) {
		t.Errorf("all mode = %v", st.Matches())
	}
}

func TestSearchVisibleIncludesCollapsed(t *testing.T) {
	s := NewSearcher(SearchVisible, false)
	f := Build(sample())
	if err := s.Search("wire", f, nil); err != nil {
		t.Fatal(err)
	}
	if id, ok := s.Current(); !ok || id != 4 {
		t.Errorf("Current = %d,%v, want 4", id, ok)
	}
}

func TestSearcherKeepsStateOnPatternError(t *testing.T) {
	f := Build(sample())
	s := NewSearcher(SearchAll, false)
	if err := s.Search("end", f, nil); err != nil {
		t.Fatal(err)
	}
	s.Next()

	err := s.Search("end(", f, nil)
	var pe *PatternError
	if !errors.As(err, &pe) || pe.Pattern != "end(" {
		t.Fatalf("expected PatternError, got %v", err)
	}
	if s.Err() == nil {
		t.Error("Err should remember the pattern error")
	}
	if s.State().Pattern != "end" || !slices.Equal(s.State().Matches(), []int64{5, 6}) {
		t.Errorf("state changed: %q %v", s.State().Pattern, s.State().Matches())
	}
	if id, _ := s.Current(); id != 6 {
		t.Errorf("cursor moved to %d", id)
	}

	if err := s.Search("end$", f, nil); err != nil {
		t.Fatal(err)
	}
	if s.Err() != nil {
		t.Error("Err should clear after a valid pattern")
	}
	if id, _ := s.Current(); id != 5 {
		t.Errorf("re-search should reset to first match, got %d", id)
	}
}

func TestSearcherRefreshKeepsCursor(t *testing.T) {
	todos := sample()
	f := Build(todos)
	s := NewSearcher(SearchAll, false)
	_ = s.Search("end", f, nil)
	s.Next() // 6

	todos = append(todos, td(8, 0, "Legend"))
	s.Refresh(Build(todos), nil)
	if s.State().Len() != 3 {
		t.Fatalf("matches after refresh = %v", s.State().Matches())
	}
	if id, _ := s.Current(); id != 6 {
		t.Errorf("cursor = %d, want 6", id)
	}

	s.Reset()
	if s.Active() || s.State().Len() != 0 {
		t.Error("Reset should clear the search")
	}
}
