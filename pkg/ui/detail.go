package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/vanderheijden86/tododb/pkg/export"
	"github.com/vanderheijden86/tododb/pkg/model"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

// detailView shows one todo rendered as markdown.
type detailView struct {
	id       int64
	viewport viewport.Model
	renderer *glamour.TermRenderer
	wrap     int
}

func (d *detailView) setSize(width, height int) {
	d.viewport.Width = width
	d.viewport.Height = height
}

// detailMarkdown is the markdown shown in the detail view.
func detailMarkdown(f *tree.Forest, td model.Todo, dateFormat string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", td.Title)

	state := "open"
	if td.IsCompleted() {
		state = "completed " + export.FormatDate(dateFormat, *td.CompletedAt)
	}
	if td.Hidden {
		state += ", hidden"
	}
	fmt.Fprintf(&sb, "**#%d** · %s\n\n", td.ID, state)

	if path := f.Ancestors(td.ID); len(path) > 0 {
		crumbs := make([]string, 0, len(path))
		for i := len(path) - 1; i >= 0; i-- {
			a, _ := f.Todo(path[i])
			crumbs = append(crumbs, a.Title)
		}
		fmt.Fprintf(&sb, "*%s*\n\n", strings.Join(crumbs, " › "))
	} else if f.IsOrphan(td.ID) && td.ParentID != nil {
		fmt.Fprintf(&sb, "*Parent #%d unresolved, shown at top level*\n\n", *td.ParentID)
	}

	if desc := strings.TrimSpace(td.Description); desc != "" {
		sb.WriteString(desc)
		sb.WriteString("\n\n")
	} else {
		sb.WriteString("_No description._\n\n")
	}

	if n, ok := f.Node(td.ID); ok && n.HasChildren() {
		sb.WriteString("## Subtasks\n\n")
		for _, cid := range n.Children {
			c, _ := f.Todo(cid)
			box := " "
			if c.IsCompleted() {
				box = "x"
			}
			fmt.Fprintf(&sb, "- [%s] %s `#%d`\n", box, c.Title, c.ID)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("---\n\n")
	fmt.Fprintf(&sb, "Created %s · updated %s\n",
		export.FormatDate(dateFormat, td.CreatedAt.Local()),
		export.FormatDate(dateFormat, td.UpdatedAt.Local()))
	if td.DueBy != nil {
		fmt.Fprintf(&sb, "\nDue %s\n", export.FormatDate(dateFormat, td.DueBy.Local()))
	}
	return sb.String()
}

func (m *Model) openDetail(id int64) {
	td, ok := m.forest.Todo(id)
	if !ok {
		return
	}
	wrap := max(m.width-4, 20)
	if m.detail.renderer == nil || m.detail.wrap != wrap {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			m.setError(fmt.Errorf("markdown renderer: %w", err))
			return
		}
		m.detail.renderer = r
		m.detail.wrap = wrap
	}

	md := detailMarkdown(m.forest, td, m.cfg.DateFormat)
	content, err := m.detail.renderer.Render(md)
	if err != nil {
		content = md
	}
	m.detail.id = id
	m.detail.viewport = viewport.New(m.width, m.bodyHeight())
	m.detail.viewport.SetContent(content)
	m.focused = focusDetail
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter", "v":
		m.focused = focusMain
		return m, nil
	case "e":
		m.focused = focusMain
		return m, m.openEditor(m.detail.id)
	}
	var cmd tea.Cmd
	m.detail.viewport, cmd = m.detail.viewport.Update(msg)
	return m, cmd
}

func (d detailView) view() string {
	return d.viewport.View()
}
