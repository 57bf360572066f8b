package ui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds every binding of the tree and list views.
type KeyMap struct {
	Up          key.Binding
	Down        key.Binding
	Top         key.Binding
	Bottom      key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Parent      key.Binding
	Child       key.Binding
	Toggle      key.Binding
	ExpandAll   key.Binding
	CollapseAll key.Binding
	Complete    key.Binding
	Hide        key.Binding
	ShowHidden  key.Binding
	ListView    key.Binding
	Completed   key.Binding
	Detail      key.Binding
	New         key.Binding
	NewChild    key.Binding
	Delete      key.Binding
	Move        key.Binding
	Edit        key.Binding
	Search      key.Binding
	Find        key.Binding
	NextMatch   key.Binding
	PrevMatch   key.Binding
	Goto        key.Binding
	Copy        key.Binding
	Reload      key.Binding
	Clear       key.Binding
	Help        key.Binding
	Quit        key.Binding
	ForceQuit   key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:          key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		Down:        key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		Top:         key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "top")),
		Bottom:      key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "bottom")),
		PageUp:      key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("ctrl+u", "page up")),
		PageDown:    key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("ctrl+d", "page down")),
		Parent:      key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h", "parent")),
		Child:       key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l", "first child")),
		Toggle:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "expand/collapse")),
		ExpandAll:   key.NewBinding(key.WithKeys("E"), key.WithHelp("E", "expand all")),
		CollapseAll: key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "collapse all")),
		Complete:    key.NewBinding(key.WithKeys(" ", "space"), key.WithHelp("space", "complete")),
		Hide:        key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "hide")),
		ShowHidden:  key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "show hidden")),
		ListView:    key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "tree/list")),
		Completed:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "completed")),
		Detail:      key.NewBinding(key.WithKeys("enter", "v"), key.WithHelp("enter", "details")),
		New:         key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		NewChild:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "new child")),
		Delete:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Move:        key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "move")),
		Edit:        key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Search:      key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Find:        key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "find all")),
		NextMatch:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next match")),
		PrevMatch:   key.NewBinding(key.WithKeys("N"), key.WithHelp("N", "prev match")),
		Goto:        key.NewBinding(key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("0-9", "goto id")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy")),
		Reload:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Clear:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "clear")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:   key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// ShortHelp is the footer line.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Complete, k.New, k.Edit, k.Move, k.Search, k.Goto, k.Help, k.Quit}
}

// FullHelp is the help overlay, one column per group.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom, k.PageUp, k.PageDown, k.Parent, k.Child},
		{k.Toggle, k.ExpandAll, k.CollapseAll, k.ListView, k.Completed, k.ShowHidden, k.Detail},
		{k.Complete, k.Hide, k.New, k.NewChild, k.Edit, k.Move, k.Delete, k.Copy},
		{k.Search, k.Find, k.NextMatch, k.PrevMatch, k.Goto, k.Clear, k.Reload, k.Quit},
	}
}
