package tree

import (
	"fmt"
	"iter"
	"regexp"

	"github.com/vanderheijden86/tododb/pkg/metrics"
)

// SearchMode selects which nodes a search considers.
type SearchMode int

const (
	// SearchVisible considers every node that passes the view filter along
	// its whole ancestor path, including nodes inside collapsed branches.
	// Tree view uses it.
	SearchVisible SearchMode = iota
	// SearchAll considers every node, hidden and completed ones included.
	// List find uses it.
	SearchAll
)

func (m SearchMode) String() string {
	if m == SearchAll {
		return "all"
	}
	return "visible"
}

// PatternError wraps a regular expression that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Entry is a node's searchable text.
type Entry struct {
	ID          int64
	Title       string
	Description string
}

// Entries yields the search scope for mode in tree order.
func (f *Forest) Entries(mode SearchMode, keep Filter) iter.Seq[Entry] {
	if mode == SearchAll {
		keep = nil
	}
	return func(yield func(Entry) bool) {
		for l := range Flatten(f, AllExpanded, keep) {
			td := f.Nodes[l.ID].Todo
			if !yield(Entry{ID: td.ID, Title: td.Title, Description: td.Description}) {
				return
			}
		}
	}
}

// Compile builds the matcher for pattern. Matching is case-insensitive
// unless caseSensitive is set.
func Compile(pattern string, caseSensitive bool) (*regexp.Regexp, error) {
	expr := pattern
	if !caseSensitive {
		expr = "(?i)" + pattern
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &PatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}

// SearchState is an ordered match set with a cyclic cursor. The zero value
// is an empty search.
type SearchState struct {
	Pattern string
	matches []int64
	set     map[int64]struct{}
	index   int
}

// Search matches pattern against each entry's title or description and
// returns the matches in entry order, positioned on the first. An empty
// pattern matches nothing.
func Search(pattern string, entries iter.Seq[Entry], caseSensitive bool) (SearchState, error) {
	defer metrics.Timer(metrics.Search)()

	st := SearchState{Pattern: pattern}
	if pattern == "" {
		return st, nil
	}
	re, err := Compile(pattern, caseSensitive)
	if err != nil {
		return SearchState{}, err
	}
	for e := range entries {
		if re.MatchString(e.Title) || re.MatchString(e.Description) {
			st.matches = append(st.matches, e.ID)
		}
	}
	st.set = make(map[int64]struct{}, len(st.matches))
	for _, id := range st.matches {
		st.set[id] = struct{}{}
	}
	return st, nil
}

// Matches returns the matched ids in order.
func (s *SearchState) Matches() []int64 { return s.matches }

// Len returns the number of matches.
func (s *SearchState) Len() int { return len(s.matches) }

// Index returns the 0-based cursor, or -1 when there are no matches.
func (s *SearchState) Index() int {
	if len(s.matches) == 0 {
		return -1
	}
	return s.index
}

// Contains reports whether id is in the match set.
func (s *SearchState) Contains(id int64) bool {
	_, ok := s.set[id]
	return ok
}

// Current returns the id under the cursor.
func (s *SearchState) Current() (int64, bool) {
	if len(s.matches) == 0 {
		return 0, false
	}
	return s.matches[s.index], true
}

// Next advances the cursor, wrapping from last to first.
func (s *SearchState) Next() (int64, bool) {
	if len(s.matches) == 0 {
		return 0, false
	}
	s.index = (s.index + 1) % len(s.matches)
	return s.matches[s.index], true
}

// Previous moves the cursor back, wrapping from first to last.
func (s *SearchState) Previous() (int64, bool) {
	if len(s.matches) == 0 {
		return 0, false
	}
	s.index--
	if s.index < 0 {
		s.index = len(s.matches) - 1
	}
	return s.matches[s.index], true
}

// Searcher keeps the last valid SearchState across keystrokes. A pattern
// that fails to compile leaves the previous state in place.
type Searcher struct {
	Mode          SearchMode
	CaseSensitive bool

	state SearchState
	err   error
}

// NewSearcher returns a Searcher for mode.
func NewSearcher(mode SearchMode, caseSensitive bool) *Searcher {
	return &Searcher{Mode: mode, CaseSensitive: caseSensitive}
}

// Search recomputes the match set for pattern over f. On a PatternError the
// previous state is kept and the error is returned and remembered.
func (s *Searcher) Search(pattern string, f *Forest, keep Filter) error {
	st, err := Search(pattern, f.Entries(s.Mode, keep), s.CaseSensitive)
	if err != nil {
		s.err = err
		return err
	}
	s.state = st
	s.err = nil
	return nil
}

// Refresh reruns the current pattern, typically after a rebuild. The cursor
// stays on the same id when it still matches.
func (s *Searcher) Refresh(f *Forest, keep Filter) {
	cur, had := s.state.Current()
	if err := s.Search(s.state.Pattern, f, keep); err != nil {
		return
	}
	if !had {
		return
	}
	for i, id := range s.state.matches {
		if id == cur {
			s.state.index = i
			return
		}
	}
}

// Reset clears the pattern, matches and error.
func (s *Searcher) Reset() {
	s.state = SearchState{}
	s.err = nil
}

// State returns the current search state.
func (s *Searcher) State() *SearchState { return &s.state }

// Err returns the last PatternError, or nil if the last search compiled.
func (s *Searcher) Err() error { return s.err }

// Active reports whether a non-empty pattern is in effect.
func (s *Searcher) Active() bool { return s.state.Pattern != "" }

// Next advances to the following match, wrapping at the end.
func (s *Searcher) Next() (int64, bool) { return s.state.Next() }

// Previous steps back to the prior match, wrapping at the start.
func (s *Searcher) Previous() (int64, bool) { return s.state.Previous() }

// Current returns the selected match without moving.
func (s *Searcher) Current() (int64, bool) { return s.state.Current() }
