package tree

import (
	"strconv"

	"github.com/vanderheijden86/tododb/pkg/metrics"
	"github.com/vanderheijden86/tododb/pkg/model"
)

// MaxGotoDigits is the length of the id suffix goto matches against.
const MaxGotoDigits = 2

// GotoState matches ids by their last two digits. An id matches when
// id mod 100 equals the numeric value of the typed digits, so "7" and "07"
// both select 7, 107, 207.
type GotoState struct {
	digits  string
	nodes   []int64
	matches []int64
	index   int
}

// Goto returns the state for digits over nodes, in node order. Characters
// other than ASCII digits and anything past MaxGotoDigits are ignored.
func Goto(digits string, nodes []int64) GotoState {
	g := GotoState{nodes: nodes}
	for _, r := range digits {
		g.AppendDigit(r)
	}
	return g
}

// NewGoto starts an empty goto over nodes.
func NewGoto(nodes []int64) *GotoState {
	return &GotoState{nodes: nodes}
}

func (g *GotoState) recompute() {
	defer metrics.Timer(metrics.Goto)()

	g.matches = nil
	g.index = 0
	if g.digits == "" {
		return
	}
	want, err := strconv.ParseInt(g.digits, 10, 64)
	if err != nil {
		return
	}
	for _, id := range g.nodes {
		if model.IDMod(id) == want {
			g.matches = append(g.matches, id)
		}
	}
}

// AppendDigit adds r to the digit string and recomputes the matches. It
// reports false, changing nothing, when r is not a digit or the string is full.
func (g *GotoState) AppendDigit(r rune) bool {
	if r < '0' || r > '9' || len(g.digits) >= MaxGotoDigits {
		return false
	}
	g.digits += string(r)
	g.recompute()
	return true
}

// Backspace drops the last digit and recomputes.
func (g *GotoState) Backspace() {
	if g.digits == "" {
		return
	}
	g.digits = g.digits[:len(g.digits)-1]
	g.recompute()
}

// Cancel clears the digits and the match set.
func (g *GotoState) Cancel() {
	g.digits = ""
	g.matches = nil
	g.index = 0
}

// SetNodes replaces the ordering goto works over, e.g. after a rebuild.
func (g *GotoState) SetNodes(nodes []int64) {
	g.nodes = nodes
	g.recompute()
}

// Confirm returns the selected id and resets the state.
func (g *GotoState) Confirm() (int64, bool) {
	id, ok := g.Current()
	g.Cancel()
	return id, ok
}

// Digits returns the typed digit string.
func (g *GotoState) Digits() string { return g.digits }

// Active reports whether any digit has been typed.
func (g *GotoState) Active() bool { return g.digits != "" }

// Matches returns the matching ids in node order.
func (g *GotoState) Matches() []int64 { return g.matches }

// Len returns the number of matches.
func (g *GotoState) Len() int { return len(g.matches) }

// Index returns the 0-based cursor, or -1 when there are no matches.
func (g *GotoState) Index() int {
	if len(g.matches) == 0 {
		return -1
	}
	return g.index
}

// Contains reports whether id is a current match.
func (g *GotoState) Contains(id int64) bool {
	for _, m := range g.matches {
		if m == id {
			return true
		}
	}
	return false
}

// Current returns the id under the cursor.
func (g *GotoState) Current() (int64, bool) {
	if len(g.matches) == 0 {
		return 0, false
	}
	return g.matches[g.index], true
}

// Next advances the cursor cyclically.
func (g *GotoState) Next() (int64, bool) {
	if len(g.matches) == 0 {
		return 0, false
	}
	g.index = (g.index + 1) % len(g.matches)
	return g.matches[g.index], true
}

// Previous moves the cursor back cyclically.
func (g *GotoState) Previous() (int64, bool) {
	if len(g.matches) == 0 {
		return 0, false
	}
	g.index--
	if g.index < 0 {
		g.index = len(g.matches) - 1
	}
	return g.matches[g.index], true
}
