package ui

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/vanderheijden86/tododb/pkg/config"
	"github.com/vanderheijden86/tododb/pkg/debug"
	"github.com/vanderheijden86/tododb/pkg/metrics"
	"github.com/vanderheijden86/tododb/pkg/model"
	"github.com/vanderheijden86/tododb/pkg/tree"
	"github.com/vanderheijden86/tododb/pkg/watcher"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Default dimensions until the first WindowSizeMsg arrives.
const (
	defaultWidth  = 100
	defaultHeight = 30
)

// viewKind is which sequence the main pane shows.
type viewKind int

const (
	viewTree viewKind = iota
	viewList
	viewCompleted
)

func (v viewKind) String() string {
	switch v {
	case viewList:
		return "List"
	case viewCompleted:
		return "Completed"
	default:
		return "Tree"
	}
}

// focus represents which UI element has keyboard focus
type focus int

const (
	focusMain focus = iota
	focusSearch
	focusFind
	focusGoto
	focusMove
	focusCreate
	focusConfirmDelete
	focusDetail
	focusHelp
)

// FileChangedMsg is sent when the database changes on disk
type FileChangedMsg struct{}

// WatchFileCmd returns a command that waits for file changes and sends FileChangedMsg
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{}
	}
}

// Options configures NewModel.
type Options struct {
	Config  config.Config
	Watcher *watcher.Watcher
	Theme   *Theme // nil uses DefaultTheme on the default renderer

	// ExpansionPath is where collapsed nodes are checkpointed on quit. Empty
	// disables loading and saving.
	ExpansionPath string
}

// Model is the main Bubble Tea model for tododb
type Model struct {
	ctx           context.Context
	store         Store
	cfg           config.Config
	watcher       *watcher.Watcher
	expansionPath string

	theme Theme
	keys  KeyMap
	help  help.Model

	// Data, rebuilt from the store after every write
	todos     []model.Todo
	forest    *tree.Forest
	expansion *tree.ExpansionState
	lines     []tree.Line
	rowOf     map[int64]int

	view          viewKind
	focused       focus
	showHidden    bool
	hideCompleted bool

	cursor int
	offset int
	width  int
	height int

	searcher  *tree.Searcher // tree view, search visible
	finder    *tree.Searcher // list view, search all
	input     textinput.Model
	gotoState *tree.GotoState

	move     movePicker
	create   createForm
	detail   detailView
	deleteID int64

	status        string
	statusIsError bool
}

// NewModel loads every todo from store and builds the initial tree.
func NewModel(ctx context.Context, store Store, opts Options) Model {
	cfg := opts.Config
	exp := tree.NewExpansionState()
	if opts.ExpansionPath != "" {
		exp = tree.LoadExpansionState(opts.ExpansionPath)
	}

	input := textinput.New()
	input.Prompt = ""

	theme := DefaultTheme(lipgloss.DefaultRenderer())
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	m := Model{
		ctx:           ctx,
		store:         store,
		cfg:           cfg,
		watcher:       opts.Watcher,
		expansionPath: opts.ExpansionPath,
		theme:         theme,
		keys:          DefaultKeyMap(),
		help:          help.New(),
		forest:        tree.Build(nil),
		expansion:     exp,
		showHidden:    cfg.ShowHidden,
		hideCompleted: cfg.HideCompleted,
		width:         defaultWidth,
		height:        defaultHeight,
		searcher:      tree.NewSearcher(tree.SearchVisible, cfg.Search.CaseSensitive),
		finder:        tree.NewSearcher(tree.SearchAll, cfg.Search.CaseSensitive),
		input:         input,
		gotoState:     tree.NewGoto(nil),
	}
	if cfg.DefaultView == "list" {
		m.view = viewList
	}
	if err := m.reload(); err != nil {
		m.setError(err)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.watcher != nil {
		return WatchFileCmd(m.watcher)
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.detail.setSize(m.width, m.bodyHeight())
		m.ensureCursorVisible()
		return m, nil

	case FileChangedMsg:
		defer debug.LogFunc("ui: reloaded after external change")()
		if err := m.reload(); err != nil {
			m.setError(err)
		}
		if m.watcher != nil {
			return m, WatchFileCmd(m.watcher)
		}
		return m, nil

	case editorFinishedMsg:
		return m.handleEditorFinished(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Blink and other internal messages for the focused input.
	var cmd tea.Cmd
	switch m.focused {
	case focusSearch, focusFind:
		m.input, cmd = m.input.Update(msg)
	case focusMove:
		m.move.input, cmd = m.move.input.Update(msg)
	case focusCreate:
		cmd = m.create.updateFocused(msg)
	case focusDetail:
		m.detail.viewport, cmd = m.detail.viewport.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m, m.quit()
	}

	switch m.focused {
	case focusSearch:
		return m.handleSearchKeys(msg)
	case focusFind:
		return m.handleFindKeys(msg)
	case focusGoto:
		return m.handleGotoKeys(msg)
	case focusMove:
		return m.handleMoveKeys(msg)
	case focusCreate:
		return m.handleCreateKeys(msg)
	case focusConfirmDelete:
		return m.handleDeleteConfirmKeys(msg), nil
	case focusDetail:
		return m.handleDetailKeys(msg)
	case focusHelp:
		m.focused = focusMain
		return m, nil
	}
	return m.handleMainKeys(msg)
}

func (m Model) handleMainKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.clearStatus()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit()

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.Top):
		m.cursor = 0
		m.ensureCursorVisible()
	case key.Matches(msg, m.keys.Bottom):
		m.cursor = len(m.lines) - 1
		m.ensureCursorVisible()
	case key.Matches(msg, m.keys.PageUp):
		m.moveCursor(-m.pageSize())
	case key.Matches(msg, m.keys.PageDown):
		m.moveCursor(m.pageSize())
	case key.Matches(msg, m.keys.Parent):
		m.jumpToParent()
	case key.Matches(msg, m.keys.Child):
		m.jumpToFirstChild()

	case key.Matches(msg, m.keys.Toggle):
		if m.view != viewTree {
			m.setView(viewTree)
		} else {
			m.toggleSelected()
		}
	case key.Matches(msg, m.keys.ExpandAll):
		m.expansion.ExpandAll()
		m.refreshLines()
	case key.Matches(msg, m.keys.CollapseAll):
		m.expansion.CollapseAll(m.forest)
		m.refreshLines()
		m.setStatus(fmt.Sprintf("Collapsed %d", m.expansion.CollapsedCount()))
	case key.Matches(msg, m.keys.ShowHidden):
		m.showHidden = !m.showHidden
		m.refreshSearches()
		m.refreshLines()
		m.setStatus(fmt.Sprintf("Hidden todos %s", onOff(m.showHidden)))
	case key.Matches(msg, m.keys.ListView):
		if m.view == viewList {
			m.setView(viewTree)
		} else {
			m.setView(viewList)
		}
	case key.Matches(msg, m.keys.Completed):
		if m.view == viewCompleted {
			m.setView(viewTree)
		} else {
			m.setView(viewCompleted)
		}

	case key.Matches(msg, m.keys.Complete):
		m.toggleCompleted()
	case key.Matches(msg, m.keys.Hide):
		m.toggleHidden()

	// n and N cycle an active search before n falls through to "new".
	case key.Matches(msg, m.keys.NextMatch) && m.activeSearcher() != nil:
		if id, ok := m.activeSearcher().Next(); ok {
			m.jumpTo(id)
		}
	case key.Matches(msg, m.keys.PrevMatch):
		if s := m.activeSearcher(); s != nil {
			if id, ok := s.Previous(); ok {
				m.jumpTo(id)
			}
		}
	case key.Matches(msg, m.keys.New):
		return m, m.openCreate(nil)
	case key.Matches(msg, m.keys.NewChild):
		if id, ok := m.SelectedID(); ok {
			return m, m.openCreate(model.Ptr(id))
		}
		return m, m.openCreate(nil)

	case key.Matches(msg, m.keys.Delete):
		if id, ok := m.SelectedID(); ok {
			m.deleteID = id
			m.focused = focusConfirmDelete
		}
	case key.Matches(msg, m.keys.Move):
		return m, m.openMove()
	case key.Matches(msg, m.keys.Edit):
		if id, ok := m.SelectedID(); ok {
			return m, m.openEditor(id)
		}
	case key.Matches(msg, m.keys.Detail):
		if id, ok := m.SelectedID(); ok {
			m.openDetail(id)
		}

	case key.Matches(msg, m.keys.Search):
		return m, m.openSearch()
	case key.Matches(msg, m.keys.Find):
		return m, m.openFind()
	case key.Matches(msg, m.keys.Goto):
		m.startGoto(msg)

	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
	case key.Matches(msg, m.keys.Reload):
		if err := m.reload(); err != nil {
			m.setError(err)
		} else {
			m.setStatus(fmt.Sprintf("Reloaded %d todos", len(m.todos)))
		}
	case key.Matches(msg, m.keys.Clear):
		m.clearSearches()
	case key.Matches(msg, m.keys.Help):
		m.focused = focusHelp
	}
	return m, nil
}

// ── Data ──

// reload re-reads the store and rebuilds the forest, keeping expansion
// state, searches and the cursor (by id).
func (m *Model) reload() error {
	defer metrics.TimerWithCallback(metrics.Reload, func(d time.Duration) {
		debug.LogTiming("ui: reload", d)
	})()
	todos, err := m.store.LoadAll(m.ctx)
	if err != nil {
		return fmt.Errorf("load todos: %w", err)
	}
	m.todos = todos
	m.forest = tree.Build(todos)
	m.expansion.Prune(m.forest)
	m.refreshSearches()
	m.refreshLines()
	return nil
}

// filter is the visibility filter for the tree and list views.
func (m Model) filter() tree.Filter {
	var fs []tree.Filter
	if m.hideCompleted {
		fs = append(fs, tree.HideCompleted)
	}
	if !m.showHidden {
		fs = append(fs, tree.HideHidden)
	}
	return tree.AllOf(fs...)
}

func (m *Model) refreshSearches() {
	if m.searcher.Active() {
		m.searcher.Refresh(m.forest, m.filter())
	}
	if m.finder.Active() {
		m.finder.Refresh(m.forest, m.filter())
	}
}

// refreshLines recomputes the visible sequence for the current view and
// keeps the selection on the same id when it is still visible.
func (m *Model) refreshLines() {
	selected, hadSelection := m.SelectedID()

	switch m.view {
	case viewTree:
		m.lines = tree.Lines(m.forest, m.expansion, m.filter())
	case viewList:
		m.lines = m.listLines()
	case viewCompleted:
		m.lines = m.completedLines()
	}

	m.rowOf = make(map[int64]int, len(m.lines))
	ids := make([]int64, len(m.lines))
	for i, l := range m.lines {
		m.rowOf[l.ID] = i
		ids[i] = l.ID
	}
	m.gotoState.SetNodes(ids)

	if hadSelection {
		if row, ok := m.rowOf[selected]; ok {
			m.cursor = row
		}
	}
	m.clampCursor()
}

// listLines is every todo passing the filter in id order, or the find
// results when a find is active.
func (m Model) listLines() []tree.Line {
	if m.finder.Active() {
		matches := m.finder.State().Matches()
		out := make([]tree.Line, 0, len(matches))
		for _, id := range matches {
			out = append(out, tree.Line{ID: id})
		}
		return out
	}
	keep := m.filter()
	out := make([]tree.Line, 0, len(m.todos))
	for _, td := range m.todos {
		if _, ok := m.forest.Nodes[td.ID]; !ok {
			continue
		}
		if keep == nil || keep(td) {
			out = append(out, tree.Line{ID: td.ID})
		}
	}
	return out
}

// completedLines is every completed todo, most recently completed first.
func (m Model) completedLines() []tree.Line {
	var done []model.Todo
	for _, td := range m.todos {
		if td.IsCompleted() && (m.showHidden || !td.Hidden) {
			done = append(done, td)
		}
	}
	slices.SortStableFunc(done, func(a, b model.Todo) int {
		if c := b.CompletedAt.Compare(*a.CompletedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	out := make([]tree.Line, len(done))
	for i, td := range done {
		out[i] = tree.Line{ID: td.ID}
	}
	return out
}

func (m *Model) setView(v viewKind) {
	m.view = v
	m.refreshLines()
}

// ── Selection ──

// SelectedID returns the id under the cursor.
func (m Model) SelectedID() (int64, bool) {
	if m.cursor < 0 || m.cursor >= len(m.lines) {
		return 0, false
	}
	return m.lines[m.cursor].ID, true
}

func (m Model) selectedTodo() (model.Todo, bool) {
	id, ok := m.SelectedID()
	if !ok {
		return model.Todo{}, false
	}
	return m.forest.Todo(id)
}

func (m *Model) selectID(id int64) bool {
	row, ok := m.rowOf[id]
	if !ok {
		return false
	}
	m.cursor = row
	m.ensureCursorVisible()
	return true
}

// jumpTo makes id visible (expanding its ancestors in the tree view) and
// selects it.
func (m *Model) jumpTo(id int64) {
	if m.view == viewTree {
		m.expansion.ExpandPath(m.forest, id)
		m.refreshLines()
	}
	m.selectID(id)
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *Model) clampCursor() {
	m.cursor = max(0, min(m.cursor, len(m.lines)-1))
	m.ensureCursorVisible()
}

func (m *Model) jumpToParent() {
	id, ok := m.SelectedID()
	if !ok || m.view != viewTree {
		return
	}
	if parent, ok := m.forest.Parent(id); ok {
		m.selectID(parent)
	}
}

func (m *Model) jumpToFirstChild() {
	if m.view != viewTree || m.cursor >= len(m.lines) {
		return
	}
	line := m.lines[m.cursor]
	if !line.HasChildren {
		return
	}
	if !line.Expanded {
		m.expansion.Set(line.ID, true)
		m.refreshLines()
	}
	if m.cursor+1 < len(m.lines) {
		m.cursor++
		m.ensureCursorVisible()
	}
}

func (m *Model) toggleSelected() {
	if m.cursor >= len(m.lines) || !m.lines[m.cursor].HasChildren {
		return
	}
	m.expansion.Toggle(m.lines[m.cursor].ID)
	m.refreshLines()
}

// ── Writes ──

func (m *Model) toggleCompleted() {
	id, ok := m.SelectedID()
	if !ok {
		return
	}
	done, err := m.store.ToggleCompleted(m.ctx, id)
	if err != nil {
		m.setError(err)
		return
	}
	m.afterWrite()
	if done {
		m.setStatus(fmt.Sprintf("Completed #%d", id))
	} else {
		m.setStatus(fmt.Sprintf("Reopened #%d", id))
	}
}

func (m *Model) toggleHidden() {
	id, ok := m.SelectedID()
	if !ok {
		return
	}
	hidden, err := m.store.ToggleHidden(m.ctx, id)
	if err != nil {
		m.setError(err)
		return
	}
	m.afterWrite()
	if hidden {
		m.setStatus(fmt.Sprintf("Hid #%d", id))
	} else {
		m.setStatus(fmt.Sprintf("Unhid #%d", id))
	}
}

func (m Model) handleDeleteConfirmKeys(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "y", "Y":
		id := m.deleteID
		m.focused = focusMain
		n, err := m.store.Delete(m.ctx, id)
		if err != nil {
			m.setError(err)
			return m
		}
		m.afterWrite()
		if n == 1 {
			m.setStatus(fmt.Sprintf("Deleted #%d", id))
		} else {
			m.setStatus(fmt.Sprintf("Deleted #%d and %d descendants", id, n-1))
		}
	case "n", "N", "esc", "q":
		m.focused = focusMain
		m.setStatus("Delete cancelled")
	}
	return m
}

// afterWrite rebuilds after a store mutation. A failed reload keeps the
// stale tree on screen and reports the error.
func (m *Model) afterWrite() {
	if err := m.reload(); err != nil {
		m.setError(err)
	}
}

func (m *Model) copySelected() {
	td, ok := m.selectedTodo()
	if !ok {
		return
	}
	text := fmt.Sprintf("#%d %s", td.ID, td.Title)
	if err := clipboard.WriteAll(text); err != nil {
		m.setError(fmt.Errorf("clipboard: %w", err))
		return
	}
	m.setStatus(fmt.Sprintf("Copied #%d", td.ID))
}

// ── Lifecycle ──

func (m *Model) quit() tea.Cmd {
	return tea.Quit
}

// Stop checkpoints expansion state and stops the watcher. Run calls it on
// the final model.
func (m *Model) Stop() {
	if m.expansionPath != "" {
		if err := m.expansion.Save(m.expansionPath); err != nil {
			debug.Log("ui: saving expansion state: %v", err)
		}
	}
	if m.watcher != nil {
		m.watcher.Stop()
	}
}

// ── Status line ──

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusIsError = false
}

func (m *Model) setError(err error) {
	var cycle *tree.CycleError
	if errors.As(err, &cycle) {
		m.status = cycle.Error()
	} else {
		m.status = err.Error()
	}
	m.statusIsError = true
	debug.Log("ui: %v", err)
}

func (m *Model) clearStatus() {
	m.status = ""
	m.statusIsError = false
}

func onOff(b bool) string {
	if b {
		return "shown"
	}
	return "hidden"
}

// ── Accessors used by tests and the CLI ──

// CurrentView returns the current view name.
func (m Model) CurrentView() string { return m.view.String() }

// VisibleIDs returns the ids of the current visible sequence.
func (m Model) VisibleIDs() []int64 {
	return tree.IDs(slices.Values(m.lines))
}

// Status returns the status line text and whether it is an error.
func (m Model) Status() (string, bool) { return m.status, m.statusIsError }

// Expansion returns the live expansion state.
func (m Model) Expansion() *tree.ExpansionState { return m.expansion }

// relativeAge is used by the list and completed views.
func relativeAge(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTimeRel(*t)
}
