package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tododb/pkg/model"
)

type createField int

const (
	fieldTitle createField = iota
	fieldParent
	fieldDescription
	fieldCount
)

// createForm collects a new todo: title, parent and description.
type createForm struct {
	title       textinput.Model
	description textarea.Model
	parents     []pickerItem
	parent      int
	field       createField
	err         string
}

func newCreateForm(parents []pickerItem, parent *int64, width int) createForm {
	title := textinput.New()
	title.Prompt = ""
	title.Placeholder = "What needs doing?"
	title.CharLimit = 200

	desc := textarea.New()
	desc.Placeholder = "Optional description"
	desc.ShowLineNumbers = false
	desc.SetWidth(max(width-8, 20))
	desc.SetHeight(5)

	f := createForm{title: title, description: desc, parents: parents}
	if parent != nil {
		for i, it := range parents {
			if !it.Root && it.ID == *parent {
				f.parent = i
				break
			}
		}
	}
	return f
}

// focusField moves focus to field and returns the blink command.
func (f *createForm) focusField(field createField) tea.Cmd {
	f.field = field
	f.title.Blur()
	f.description.Blur()
	switch field {
	case fieldTitle:
		return f.title.Focus()
	case fieldDescription:
		return f.description.Focus()
	}
	return nil
}

func (f *createForm) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.field {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	}
	return cmd
}

func (f *createForm) cycleParent(delta int) {
	if len(f.parents) == 0 {
		return
	}
	f.parent = (f.parent + delta + len(f.parents)) % len(f.parents)
}

func (f createForm) selectedParent() *int64 {
	if f.parent < 0 || f.parent >= len(f.parents) {
		return nil
	}
	return f.parents[f.parent].parent()
}

// newTodo validates the form.
func (f createForm) newTodo() (model.NewTodo, error) {
	n := model.NewTodo{
		Title:       strings.TrimSpace(f.title.Value()),
		Description: strings.TrimSpace(f.description.Value()),
		ParentID:    f.selectedParent(),
	}
	return n, n.Validate()
}

func (m *Model) openCreate(parent *int64) tea.Cmd {
	m.create = newCreateForm(allParentItems(m.forest), parent, m.width)
	m.focused = focusCreate
	return m.create.focusField(fieldTitle)
}

func (m Model) handleCreateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := &m.create
	switch msg.String() {
	case "esc":
		m.focused = focusMain
		return m, nil
	case "tab":
		return m, f.focusField((f.field + 1) % fieldCount)
	case "shift+tab":
		return m, f.focusField((f.field + fieldCount - 1) % fieldCount)
	case "ctrl+s":
		m.submitCreate()
		return m, nil
	case "enter":
		if f.field != fieldDescription {
			m.submitCreate()
			return m, nil
		}
	case "left", "ctrl+p":
		if f.field == fieldParent {
			f.cycleParent(-1)
			return m, nil
		}
	case "right", "ctrl+n":
		if f.field == fieldParent {
			f.cycleParent(1)
			return m, nil
		}
	}
	return m, f.updateFocused(msg)
}

// submitCreate stores the new todo, or keeps the form open with the
// validation error.
func (m *Model) submitCreate() {
	n, err := m.create.newTodo()
	if err != nil {
		if errors.Is(err, model.ErrEmptyTitle) {
			m.create.err = "Title is required"
		} else {
			m.create.err = err.Error()
		}
		return
	}
	id, err := m.store.Create(m.ctx, n)
	if err != nil {
		m.create.err = err.Error()
		return
	}
	m.focused = focusMain
	m.afterWrite()
	m.jumpTo(id)
	m.setStatus(fmt.Sprintf("Created #%d", id))
}

func (f createForm) view(m Model) string {
	t := m.theme
	label := func(field createField, s string) string {
		if f.field == field {
			return t.PrimaryBold.Render("› " + s)
		}
		return t.SecondaryText.Render("  " + s)
	}

	parent := "(root)"
	if f.parent >= 0 && f.parent < len(f.parents) {
		parent = truncate(f.parents[f.parent].label(), max(m.width-20, 10))
	}
	if f.field == fieldParent {
		parent = "◀ " + parent + " ▶"
	}

	var sb strings.Builder
	sb.WriteString(t.PrimaryBold.Render("New todo"))
	sb.WriteString("\n\n")
	sb.WriteString(label(fieldTitle, "Title") + "\n  " + f.title.View() + "\n\n")
	sb.WriteString(label(fieldParent, "Parent") + "\n  " + parent + "\n\n")
	sb.WriteString(label(fieldDescription, "Description") + "\n" + f.description.View())
	if f.err != "" {
		sb.WriteString("\n\n" + t.ErrorText.Render(f.err))
	}
	return FocusedPanelStyle.Width(max(m.width-4, 20)).Render(sb.String())
}
