package export

import (
	"fmt"
	"image/color"
	"io"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/tododb/pkg/tree"
)

// --- layout computation ----------------------------------------------------

type layoutNode struct {
	ID        int64
	ParentID  int64 // 0 for roots and todos whose parent was filtered out
	Title     string
	Completed bool
	Hidden    bool
	X, Y      float64
	W, H      float64
}

type layoutResult struct {
	Nodes     []layoutNode
	Width     int
	Height    int
	Header    float64
	Title     string
	Exported  string
	Roots     int
	Completed int
}

const (
	snapNodeW    = 230.0
	snapNodeH    = 34.0
	snapIndent   = 36.0
	snapRowGap   = 10.0
	snapPadding  = 28.0
	snapHeaderH  = 96.0
	snapTitleMax = 30
)

// buildLayout places one node per row in pre-order and indents by depth,
// so parent/child connectors are simple elbows.
func buildLayout(f *tree.Forest, opts Options) layoutResult {
	res := layoutResult{
		Header:   snapHeaderH,
		Title:    opts.title(),
		Exported: opts.date(opts.now()),
	}

	maxDepth := 0
	var parents []int64 // parents[d] is the last node seen at depth d
	for line := range tree.Flatten(f, tree.AllExpanded, opts.Keep) {
		td, _ := f.Todo(line.ID)
		if line.Depth == 0 {
			res.Roots++
		}
		if td.IsCompleted() {
			res.Completed++
		}
		parents = append(parents[:line.Depth], line.ID)
		var parent int64
		if line.Depth > 0 {
			parent = parents[line.Depth-1]
		}
		maxDepth = max(maxDepth, line.Depth)

		row := len(res.Nodes)
		res.Nodes = append(res.Nodes, layoutNode{
			ID:        td.ID,
			ParentID:  parent,
			Title:     truncate(td.Title, snapTitleMax),
			Completed: td.IsCompleted(),
			Hidden:    td.Hidden,
			X:         snapPadding + float64(line.Depth)*snapIndent,
			Y:         snapPadding + snapHeaderH + float64(row)*(snapNodeH+snapRowGap),
			W:         snapNodeW,
			H:         snapNodeH,
		})
	}

	res.Width = max(480, int(snapPadding*2+float64(maxDepth)*snapIndent+snapNodeW))
	res.Height = max(240, int(snapPadding*2+snapHeaderH+float64(len(res.Nodes))*(snapNodeH+snapRowGap)))
	return res
}

// --- rendering -------------------------------------------------------------

var (
	colorOpen      = color.RGBA{0xc8, 0xe6, 0xc9, 0xff}
	colorCompleted = color.RGBA{0xcf, 0xd8, 0xdc, 0xff}
	colorHidden    = color.RGBA{0xff, 0xf3, 0xe0, 0xff}
	colorStroke    = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorEdge      = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle    = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorBackdrop  = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG  = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
)

func nodeColor(n layoutNode) color.RGBA {
	switch {
	case n.Completed:
		return colorCompleted
	case n.Hidden:
		return colorHidden
	default:
		return colorOpen
	}
}

func nodeLabel(n layoutNode) string {
	box := "[ ]"
	if n.Completed {
		box = "[x]"
	}
	return fmt.Sprintf("%s #%d %s", box, n.ID, n.Title)
}

func summaryLines(l layoutResult) []string {
	return []string{
		fmt.Sprintf("exported: %s", l.Exported),
		fmt.Sprintf("todos: %d  roots: %d  completed: %d", len(l.Nodes), l.Roots, l.Completed),
	}
}

// elbow returns the connector from a parent's left edge down and across to
// the child's left edge.
func elbow(parent, child layoutNode) (x1, y1, x2, y2, x3, y3 float64) {
	x1 = parent.X + snapIndent/2
	y1 = parent.Y + parent.H
	x2 = x1
	y2 = child.Y + child.H/2
	x3 = child.X
	y3 = y2
	return
}

// PNG renders the snapshot as a raster image.
func PNG(w io.Writer, f *tree.Forest, opts Options) error {
	layout := buildLayout(f, opts)

	dc := gg.NewContext(layout.Width, layout.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(12, 12, float64(layout.Width)-24, layout.Header, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(layout.Title, 28, 40, 0, 0.5)
	dc.SetColor(colorSubtle)
	for i, s := range summaryLines(layout) {
		dc.DrawStringAnchored(s, 28, 62+float64(i)*20, 0, 0.5)
	}

	byID := make(map[int64]layoutNode, len(layout.Nodes))
	for _, n := range layout.Nodes {
		byID[n.ID] = n
	}
	dc.SetColor(colorEdge)
	dc.SetLineWidth(1.5)
	for _, n := range layout.Nodes {
		p, ok := byID[n.ParentID]
		if !ok {
			continue
		}
		x1, y1, x2, y2, x3, y3 := elbow(p, n)
		dc.DrawLine(x1, y1, x2, y2)
		dc.DrawLine(x2, y2, x3, y3)
		dc.Stroke()
	}

	for _, n := range layout.Nodes {
		dc.SetColor(nodeColor(n))
		dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 6)
		dc.Fill()
		dc.SetColor(colorStroke)
		dc.SetLineWidth(1)
		dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 6)
		dc.Stroke()
		dc.SetColor(colorText)
		dc.DrawStringAnchored(nodeLabel(n), n.X+8, n.Y+n.H/2, 0, 0.5)
	}

	return dc.EncodePNG(w)
}

// SVG renders the snapshot as vector markup.
func SVG(w io.Writer, f *tree.Forest, opts Options) error {
	layout := buildLayout(f, opts)

	canvas := svg.New(w)
	canvas.Start(layout.Width, layout.Height)
	canvas.Rect(0, 0, layout.Width, layout.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(12, 12, layout.Width-24, int(layout.Header), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(28, 40, layout.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))
	for i, s := range summaryLines(layout) {
		canvas.Text(28, 62+i*20, s, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", css(colorSubtle)))
	}

	byID := make(map[int64]layoutNode, len(layout.Nodes))
	for _, n := range layout.Nodes {
		byID[n.ID] = n
	}
	edgeStyle := fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", css(colorEdge))
	for _, n := range layout.Nodes {
		p, ok := byID[n.ParentID]
		if !ok {
			continue
		}
		x1, y1, x2, y2, x3, y3 := elbow(p, n)
		canvas.Polyline(
			[]int{int(x1), int(x2), int(x3)},
			[]int{int(y1), int(y2), int(y3)},
			edgeStyle,
		)
	}

	for _, n := range layout.Nodes {
		x, y := int(n.X), int(n.Y)
		canvas.Roundrect(x, y, int(n.W), int(n.H), 6, 6,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1", css(nodeColor(n)), css(colorStroke)))
		canvas.Text(x+8, y+int(n.H)/2+4, nodeLabel(n), fmt.Sprintf("fill:%s;font-size:12px;font-family:monospace", css(colorText)))
	}

	canvas.End()
	return nil
}

// --- helpers ---------------------------------------------------------------

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

