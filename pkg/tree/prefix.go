package tree

import "strings"

// Glyphs are the pieces of a line's indentation prefix, each one column
// group wide.
type Glyphs struct {
	Guide      string // an ancestor with more siblings below
	Blank      string // an ancestor that was the last child
	Branch     string
	LastBranch string
}

var (
	BoxGlyphs   = Glyphs{Guide: "│   ", Blank: "    ", Branch: "├── ", LastBranch: "└── "}
	ASCIIGlyphs = Glyphs{Guide: "|   ", Blank: "    ", Branch: "|-- ", LastBranch: "`-- "}
)

// Prefix renders the guides and branch for l. Roots have no prefix, so
// depth d yields d groups.
func (l Line) Prefix(g Glyphs) string {
	if l.Depth == 0 {
		return ""
	}
	var sb strings.Builder
	for d := 1; d < l.Depth; d++ {
		if l.AncestorLast[d] {
			sb.WriteString(g.Blank)
		} else {
			sb.WriteString(g.Guide)
		}
	}
	if l.Last {
		sb.WriteString(g.LastBranch)
	} else {
		sb.WriteString(g.Branch)
	}
	return sb.String()
}
