package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/tododb/pkg/model"
	"github.com/vanderheijden86/tododb/pkg/tree"
)

// pickerItem is one destination in the move picker or the parent field of
// the create form. Root marks the "(root)" entry.
type pickerItem struct {
	ID      int64
	Root    bool
	Title   string
	Depth   int
	Current bool
}

func (it pickerItem) label() string {
	if it.Root {
		return "(root)"
	}
	return fmt.Sprintf("#%d %s", it.ID, it.Title)
}

// parent returns the item as a parent pointer, nil for root.
func (it pickerItem) parent() *int64 {
	if it.Root {
		return nil
	}
	return model.Ptr(it.ID)
}

// pickerItemSource adapts items for fuzzy.FindFrom.
type pickerItemSource []pickerItem

func (s pickerItemSource) String(i int) string { return s[i].label() }
func (s pickerItemSource) Len() int            { return len(s) }

// destinationItems turns move candidates into picker items, root first.
func destinationItems(f *tree.Forest, cands []tree.Candidate, rootIsCurrent bool) []pickerItem {
	items := make([]pickerItem, 0, len(cands)+1)
	items = append(items, pickerItem{Root: true, Current: rootIsCurrent})
	for _, c := range cands {
		td, _ := f.Todo(c.ID)
		items = append(items, pickerItem{
			ID:      c.ID,
			Title:   td.Title,
			Depth:   f.Depth(c.ID),
			Current: c.Current,
		})
	}
	return items
}

// allParentItems lists root and every todo in tree order.
func allParentItems(f *tree.Forest) []pickerItem {
	items := []pickerItem{{Root: true}}
	for l := range tree.Flatten(f, tree.AllExpanded, nil) {
		td, _ := f.Todo(l.ID)
		items = append(items, pickerItem{ID: l.ID, Title: td.Title, Depth: l.Depth})
	}
	return items
}

// movePicker chooses a new parent for source.
type movePicker struct {
	source   int64
	items    []pickerItem
	filtered []pickerItem
	cursor   int
	input    textinput.Model
}

func newMovePicker(source int64, items []pickerItem) movePicker {
	in := textinput.New()
	in.Prompt = "› "
	in.Placeholder = "filter destinations"
	p := movePicker{source: source, items: items, input: in}
	p.applyFilter()
	return p
}

// applyFilter fuzzy-matches the query against the labels. An empty query
// keeps tree order.
func (p *movePicker) applyFilter() {
	query := strings.TrimSpace(p.input.Value())
	if query == "" {
		p.filtered = p.items
	} else {
		matches := fuzzy.FindFrom(query, pickerItemSource(p.items))
		p.filtered = make([]pickerItem, 0, len(matches))
		for _, match := range matches {
			p.filtered = append(p.filtered, p.items[match.Index])
		}
	}
	p.cursor = 0
}

func (p *movePicker) selected() (pickerItem, bool) {
	if p.cursor < 0 || p.cursor >= len(p.filtered) {
		return pickerItem{}, false
	}
	return p.filtered[p.cursor], true
}

func (p *movePicker) moveCursor(delta int) {
	if len(p.filtered) == 0 {
		return
	}
	p.cursor = (p.cursor + delta + len(p.filtered)) % len(p.filtered)
}

func (m *Model) openMove() tea.Cmd {
	id, ok := m.SelectedID()
	if !ok {
		return nil
	}
	cands, err := tree.CandidateDestinations(m.forest, id)
	if err != nil {
		m.setError(err)
		return nil
	}
	_, hasParent := m.forest.Parent(id)
	m.move = newMovePicker(id, destinationItems(m.forest, cands, !hasParent))
	m.focused = focusMove
	return m.move.input.Focus()
}

func (m Model) handleMoveKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focused = focusMain
		m.move.input.Blur()
		return m, nil
	case "up", "ctrl+p", "shift+tab":
		m.move.moveCursor(-1)
		return m, nil
	case "down", "ctrl+n", "tab":
		m.move.moveCursor(1)
		return m, nil
	case "enter":
		item, ok := m.move.selected()
		if !ok {
			return m, nil
		}
		m.focused = focusMain
		m.move.input.Blur()
		m.performMove(m.move.source, item)
		return m, nil
	}

	var cmd tea.Cmd
	before := m.move.input.Value()
	m.move.input, cmd = m.move.input.Update(msg)
	if m.move.input.Value() != before {
		m.move.applyFilter()
	}
	return m, cmd
}

// performMove reparents source and rebuilds. The moved todo stays selected.
func (m *Model) performMove(source int64, dest pickerItem) {
	moved, err := tree.Move(m.ctx, m.store, m.forest, source, dest.parent())
	if err != nil {
		m.setError(err)
		return
	}
	if !moved {
		m.setStatus(fmt.Sprintf("#%d is already there", source))
		return
	}
	m.afterWrite()
	m.jumpTo(source)
	if dest.Root {
		m.setStatus(fmt.Sprintf("Moved #%d to root", source))
	} else {
		m.setStatus(fmt.Sprintf("Moved #%d under #%d", source, dest.ID))
	}
}

func (p movePicker) view(m Model) string {
	t := m.theme
	td, _ := m.forest.Todo(p.source)

	var sb strings.Builder
	sb.WriteString(t.PrimaryBold.Render(fmt.Sprintf("Move #%d %s to:", td.ID, truncate(td.Title, 40))))
	sb.WriteString("\n")
	sb.WriteString(p.input.View())
	sb.WriteString("\n\n")

	height := max(3, m.bodyHeight()-6)
	start := max(0, min(p.cursor-height/2, len(p.filtered)-height))
	end := min(len(p.filtered), start+height)
	indent := strings.TrimSpace(p.input.Value()) == ""

	if len(p.filtered) == 0 {
		sb.WriteString(t.MutedText.Render("no matching destinations"))
	}
	for i := start; i < end; i++ {
		it := p.filtered[i]
		label := it.label()
		if indent && !it.Root {
			label = strings.Repeat("  ", it.Depth) + label
		}
		label = truncate(label, max(m.width-16, 10))
		if it.Current {
			label += " " + t.SecondaryText.Render("(current)")
		}
		if i == p.cursor {
			sb.WriteString(t.PrimaryBold.Render("› ") + t.Base.Bold(true).Render(label))
		} else {
			sb.WriteString("  " + label)
		}
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return FocusedPanelStyle.Width(max(m.width-4, 20)).Render(sb.String())
}
