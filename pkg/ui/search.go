package ui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tododb/pkg/tree"
)

// ── Search methods ──

// activeSearcher is the searcher whose matches the current view shows, or
// nil when none is active.
func (m Model) activeSearcher() *tree.Searcher {
	switch {
	case m.view == viewTree && m.searcher.Active():
		return m.searcher
	case m.view == viewList && m.finder.Active():
		return m.finder
	}
	return nil
}

// openSearch starts live tree search. The previous pattern is kept in the
// input so it can be refined.
func (m *Model) openSearch() tea.Cmd {
	if m.view != viewTree {
		m.setView(viewTree)
	}
	m.focused = focusSearch
	m.input.SetValue(m.searcher.State().Pattern)
	m.input.CursorEnd()
	return m.input.Focus()
}

// openFind starts a find over every todo and switches to the list view,
// which then shows only the matches.
func (m *Model) openFind() tea.Cmd {
	m.focused = focusFind
	m.input.SetValue(m.finder.State().Pattern)
	m.input.CursorEnd()
	if m.view != viewList {
		m.setView(viewList)
	}
	return m.input.Focus()
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searcher.Reset()
		m.closeInput()
		return m, nil
	case "enter":
		m.closeInput()
		if !m.searcher.Active() {
			m.searcher.Reset()
		}
		return m, nil
	case "down", "ctrl+n", "tab":
		if id, ok := m.searcher.Next(); ok {
			m.jumpTo(id)
		}
		return m, nil
	case "up", "ctrl+p", "shift+tab":
		if id, ok := m.searcher.Previous(); ok {
			m.jumpTo(id)
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.runSearch(m.searcher)
	}
	return m, cmd
}

func (m Model) handleFindKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.finder.Reset()
		m.closeInput()
		m.refreshLines()
		return m, nil
	case "enter":
		m.closeInput()
		return m, nil
	case "down", "ctrl+n", "tab":
		if id, ok := m.finder.Next(); ok {
			m.selectID(id)
		}
		return m, nil
	case "up", "ctrl+p", "shift+tab":
		if id, ok := m.finder.Previous(); ok {
			m.selectID(id)
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.input.Value()
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.runSearch(m.finder)
		m.refreshLines()
		if id, ok := m.finder.Current(); ok {
			m.selectID(id)
		}
	}
	return m, cmd
}

// runSearch re-runs s with the input's pattern. A bad pattern keeps the
// previous matches and shows the compile error instead.
func (m *Model) runSearch(s *tree.Searcher) {
	if err := s.Search(m.input.Value(), m.forest, m.filter()); err != nil {
		var perr *tree.PatternError
		if errors.As(err, &perr) {
			return
		}
		m.setError(err)
		return
	}
	if s == m.searcher {
		if id, ok := s.Current(); ok {
			m.jumpTo(id)
		}
	}
}

func (m *Model) closeInput() {
	m.input.Blur()
	m.focused = focusMain
}

// clearSearches drops every search, find and goto state.
func (m *Model) clearSearches() {
	hadFind := m.finder.Active()
	m.searcher.Reset()
	m.finder.Reset()
	m.gotoState.Cancel()
	if hadFind && m.view == viewList {
		m.refreshLines()
	}
}

func (m Model) renderSearchBar(prompt string, s *tree.Searcher) string {
	t := m.theme
	bar := t.PrimaryBold.Render(prompt) + m.input.View()
	if err := s.Err(); err != nil {
		var perr *tree.PatternError
		if errors.As(err, &perr) {
			return bar + " " + t.ErrorText.Render(perr.Err.Error())
		}
	}
	return bar + " " + m.matchInfo(s)
}

func (m Model) renderMatchSummary(s *tree.Searcher) string {
	return m.theme.PrimaryBold.Render(fmt.Sprintf("/%s", s.State().Pattern)) + " " + m.matchInfo(s)
}

func (m Model) matchInfo(s *tree.Searcher) string {
	st := s.State()
	switch {
	case st.Len() > 0:
		return m.theme.SecondaryText.Render(fmt.Sprintf("[%d/%d]", st.Index()+1, st.Len()))
	case st.Pattern != "":
		return m.theme.MutedText.Render("[no matches]")
	}
	return ""
}

// ── Goto methods ──

// startGoto begins a goto with the first typed digit.
func (m *Model) startGoto(msg tea.KeyMsg) {
	m.gotoState.Cancel()
	if len(msg.Runes) != 1 || !m.gotoState.AppendDigit(msg.Runes[0]) {
		return
	}
	m.focused = focusGoto
	m.selectGotoCurrent()
}

func (m Model) handleGotoKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.gotoState.Cancel()
		m.focused = focusMain
	case "enter":
		id, ok := m.gotoState.Confirm()
		m.focused = focusMain
		if ok {
			m.selectID(id)
			return m, m.openEditor(id)
		}
	case "backspace":
		m.gotoState.Backspace()
		if !m.gotoState.Active() {
			m.focused = focusMain
			return m, nil
		}
		m.selectGotoCurrent()
	case "tab", "down", "ctrl+n":
		if id, ok := m.gotoState.Next(); ok {
			m.selectID(id)
		}
	case "shift+tab", "up", "ctrl+p":
		if id, ok := m.gotoState.Previous(); ok {
			m.selectID(id)
		}
	default:
		if len(msg.Runes) == 1 && m.gotoState.AppendDigit(msg.Runes[0]) {
			m.selectGotoCurrent()
		}
	}
	return m, nil
}

func (m *Model) selectGotoCurrent() {
	if id, ok := m.gotoState.Current(); ok {
		m.selectID(id)
	}
}

func (m Model) renderGotoBar() string {
	t := m.theme
	g := m.gotoState
	bar := t.GotoText.Render("#" + g.Digits())
	switch {
	case g.Len() > 0:
		bar += " " + t.SecondaryText.Render(fmt.Sprintf("[%d/%d]", g.Index()+1, g.Len()))
	default:
		bar += " " + t.MutedText.Render("[no matches]")
	}
	return bar
}
