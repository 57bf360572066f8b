package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/tododb/pkg/metrics"
	"github.com/vanderheijden86/tododb/pkg/model"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

// Expander arrows for nodes with visible children.
const (
	expandedArr = "▼"
	collapseArr = "▶"
)

// bodyHeight is the number of rows left for the main pane after the
// header, the input/status bar and the help footer.
func (m Model) bodyHeight() int {
	return max(1, m.height-3)
}

func (m Model) pageSize() int {
	return max(1, m.bodyHeight()-1)
}

// ensureCursorVisible adjusts offset so the cursor row is on screen,
// scrolling just enough to keep it at the edge.
func (m *Model) ensureCursorVisible() {
	visible := m.bodyHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	maxOffset := max(0, len(m.lines)-visible)
	m.offset = max(0, min(m.offset, maxOffset))
}

// visibleRange returns the [start, end) rows to render.
func (m Model) visibleRange() (start, end int) {
	start = m.offset
	end = min(len(m.lines), start+m.bodyHeight())
	return start, end
}

func (m Model) View() string {
	defer metrics.Timer(metrics.UIRender)()

	var body string
	switch m.focused {
	case focusHelp:
		body = m.renderHelpOverlay()
	case focusMove:
		body = m.move.view(m)
	case focusCreate:
		body = m.create.view(m)
	case focusDetail:
		body = m.detail.view()
	default:
		body = m.renderBody()
	}

	// Pad the body so the bars stay pinned to the bottom.
	if n := lipgloss.Height(body); n < m.bodyHeight() {
		body += strings.Repeat("\n", m.bodyHeight()-n)
	}

	return strings.Join([]string{
		m.renderHeader(),
		body,
		m.renderBar(),
		m.renderFooter(),
	}, "\n")
}

func (m Model) renderHeader() string {
	total, done := 0, 0
	for _, td := range m.todos {
		total++
		if td.IsCompleted() {
			done++
		}
	}
	left := fmt.Sprintf("tododb · %s", m.view)
	right := fmt.Sprintf("%d todos · %d done", total, done)
	if m.showHidden {
		right += " · showing hidden"
	}
	gap := max(1, m.width-2-runewidth.StringWidth(left)-runewidth.StringWidth(right))
	return m.theme.Header.Width(max(m.width, 1)).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderBody() string {
	if len(m.lines) == 0 {
		return m.renderEmptyState()
	}

	var sb strings.Builder
	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		if i > start {
			sb.WriteByte('\n')
		}
		sb.WriteString(m.renderLine(m.lines[i], i == m.cursor))
	}
	return sb.String()
}

func (m Model) renderEmptyState() string {
	muted := m.theme.MutedText
	var sb strings.Builder
	switch {
	case m.view == viewList && m.finder.Active():
		sb.WriteString(muted.Render(fmt.Sprintf("No todos match %q.", m.finder.State().Pattern)))
	case m.view == viewCompleted:
		sb.WriteString(muted.Render("Nothing completed yet."))
	default:
		sb.WriteString(m.theme.PrimaryBold.Render("No todos to display."))
		sb.WriteString("\n\n")
		sb.WriteString(muted.Render("Press n to create one, or H to show hidden todos."))
	}
	return sb.String()
}

// treePrefix builds the indentation and branch characters for a line.
func treePrefix(l tree.Line) string {
	return l.Prefix(tree.BoxGlyphs)
}

func expander(l tree.Line) string {
	switch {
	case !l.HasChildren:
		return " "
	case l.Expanded:
		return expandedArr
	default:
		return collapseArr
	}
}

// renderLine renders one row: <prefix><expander> [✓] 07 title.
func (m Model) renderLine(l tree.Line, selected bool) string {
	td, ok := m.forest.Todo(l.ID)
	if !ok {
		return ""
	}
	t := m.theme
	width := max(m.width-2, 20)

	var prefix string
	if m.view == viewTree {
		prefix = treePrefix(l) + expander(l) + " "
	}

	idStyle := t.MutedText
	if m.gotoState.Contains(td.ID) {
		idStyle = t.GotoText
	}
	id := idLabel(td.IDMod())

	suffix := m.lineSuffix(td)
	used := runewidth.StringWidth(prefix) + 3 + len(id) + 2
	if suffix != "" {
		used += runewidth.StringWidth(suffix) + 1
	}
	title := truncate(firstLine(td.Title), max(width-used, 4))

	row := t.MutedText.Render(prefix) +
		RenderCheckbox(td.IsCompleted()) + " " +
		idStyle.Render(id) + " " +
		m.titleStyle(td).Render(title)
	if suffix != "" {
		row += " " + t.MutedText.Render(suffix)
	}

	if selected {
		return t.Selected.Render(row)
	}
	return " " + row
}

func (m Model) titleStyle(td model.Todo) lipgloss.Style {
	t := m.theme
	if s := m.activeSearcher(); s != nil && s.State().Contains(td.ID) {
		if cur, ok := s.Current(); ok && cur == td.ID {
			return t.CurrentMatch
		}
		return t.MatchText
	}
	switch {
	case td.IsCompleted():
		return t.CompletedText
	case td.Hidden:
		return t.HiddenText
	default:
		return t.Base
	}
}

// lineSuffix is the trailing context shown outside the tree view.
func (m Model) lineSuffix(td model.Todo) string {
	var parts []string
	if td.Hidden {
		parts = append(parts, "hidden")
	}
	switch m.view {
	case viewList:
		if p, ok := m.forest.Parent(td.ID); ok {
			if pt, ok := m.forest.Todo(p); ok {
				parts = append(parts, "in "+truncate(pt.Title, 24))
			}
		}
	case viewCompleted:
		parts = append(parts, "done "+relativeAge(td.CompletedAt))
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// renderBar is the line above the footer: the active input bar, the delete
// prompt, or the status message.
func (m Model) renderBar() string {
	switch m.focused {
	case focusSearch:
		return m.renderSearchBar("/", m.searcher)
	case focusFind:
		return m.renderSearchBar("find: ", m.finder)
	case focusGoto:
		return m.renderGotoBar()
	case focusConfirmDelete:
		return m.renderDeletePrompt()
	}
	if m.status != "" {
		if m.statusIsError {
			return m.theme.ErrorText.Render(m.status)
		}
		return m.theme.SecondaryText.Render(m.status)
	}
	if s := m.activeSearcher(); s != nil {
		return m.renderMatchSummary(s)
	}
	return ""
}

func (m Model) renderDeletePrompt() string {
	td, _ := m.forest.Todo(m.deleteID)
	n := len(m.forest.Descendants(m.deleteID))
	msg := fmt.Sprintf("Delete #%d %q", td.ID, truncate(td.Title, 40))
	if n > 0 {
		msg += fmt.Sprintf(" and %d descendants", n)
	}
	return m.theme.ErrorText.Render(msg + "? (y/n)")
}

func (m Model) renderFooter() string {
	switch m.focused {
	case focusSearch, focusFind:
		return m.theme.MutedText.Render("enter keep · esc clear · ↑/↓ cycle matches")
	case focusGoto:
		return m.theme.MutedText.Render("enter edit · tab/shift+tab cycle · backspace · esc cancel")
	case focusMove:
		return m.theme.MutedText.Render("type to filter · ↑/↓ select · enter move · esc cancel")
	case focusCreate:
		return m.theme.MutedText.Render("tab next field · ←/→ parent · ctrl+s save · esc cancel")
	case focusDetail:
		return m.theme.MutedText.Render("j/k scroll · e edit · esc back")
	case focusHelp:
		return m.theme.MutedText.Render("press any key to close")
	}
	return m.help.View(m.keys)
}

func (m Model) renderHelpOverlay() string {
	h := m.help
	h.ShowAll = true
	title := m.theme.PrimaryBold.Render("Keyboard shortcuts")
	divider := RenderDivider(max(m.width-8, 10))
	return FocusedPanelStyle.Render(title + "\n" + divider + "\n" + h.View(m.keys))
}
