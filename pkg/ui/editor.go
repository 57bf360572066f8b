package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tododb/pkg/debug"
	"github.com/vanderheijden86/tododb/pkg/editor"
)

// editorFinishedMsg is sent when the external editor process exits.
type editorFinishedMsg struct {
	session *editor.Session
	err     error
}

// openEditor suspends the program and hands the todo to the user's editor.
func (m *Model) openEditor(id int64) tea.Cmd {
	td, ok := m.forest.Todo(id)
	if !ok {
		return nil
	}
	var parentTitle string
	if p, ok := m.forest.Parent(id); ok {
		if pt, ok := m.forest.Todo(p); ok {
			parentTitle = pt.Title
		}
	}

	sess, err := editor.Prepare(td, parentTitle)
	if err != nil {
		m.setError(err)
		return nil
	}
	editorCmd := editor.ResolveEditor(m.cfg.Editor)
	debug.Log("ui: editing #%d with %q (%s)", id, editorCmd, sess.Path)
	return tea.ExecProcess(sess.Command(editorCmd), func(err error) tea.Msg {
		return editorFinishedMsg{session: sess, err: err}
	})
}

// handleEditorFinished applies the edited document. A non-zero editor exit
// is tolerated as long as the file parses.
func (m Model) handleEditorFinished(msg editorFinishedMsg) Model {
	sess := msg.session
	defer sess.Cleanup()
	if msg.err != nil {
		debug.Log("ui: editor exited: %v", msg.err)
	}

	edit, changed, err := sess.Result()
	if err != nil {
		m.setError(err)
		return m
	}
	if !changed {
		m.setStatus(fmt.Sprintf("No changes to #%d", sess.Todo.ID))
		return m
	}
	if err := m.applyEdit(sess.Todo.ID, edit); err != nil {
		m.setError(err)
		m.afterWrite()
		return m
	}
	m.afterWrite()
	m.selectID(sess.Todo.ID)
	m.setStatus(fmt.Sprintf("Updated #%d", sess.Todo.ID))
	return m
}

func (m *Model) applyEdit(id int64, e editor.Edit) error {
	orig, ok := m.forest.Todo(id)
	if !ok {
		return fmt.Errorf("#%d no longer exists", id)
	}
	if e.Title != orig.Title || e.Description != strings.TrimSpace(orig.Description) {
		if err := m.store.Update(m.ctx, id, e.Title, e.Description); err != nil {
			return err
		}
	}
	if !e.HasMeta {
		return nil
	}
	if e.Completed != orig.IsCompleted() {
		if err := m.store.SetCompleted(m.ctx, id, e.Completed); err != nil {
			return err
		}
	}
	if e.Hidden != orig.Hidden {
		if _, err := m.store.ToggleHidden(m.ctx, id); err != nil {
			return err
		}
	}
	return nil
}
